// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/waybridge/lib/fourcc"
)

// EnvVar names the environment variable read by Load.
const EnvVar = "WAYBRIDGE_CONFIG"

// Config is the complete server configuration.
type Config struct {
	// Socket selects where clients connect.
	Socket SocketConfig `yaml:"socket"`

	// Buffers lists the pixel formats advertised to clients.
	Buffers BuffersConfig `yaml:"buffers"`

	// Capabilities toggles the optional protocol families.
	Capabilities CapabilitiesConfig `yaml:"capabilities"`

	// DestructionPolicy is "silent" (destroyed objects just disappear
	// from the registries) or "report" (each destruction also produces
	// an event). Default: silent
	DestructionPolicy string `yaml:"destruction_policy"`

	// DispatchBudget is the longest a single dispatch cycle waits for
	// client input. Default: 16ms
	DispatchBudget time.Duration `yaml:"dispatch_budget"`

	// Seats are created at startup in order.
	Seats []SeatConfig `yaml:"seats"`

	// Outputs are created at startup in order.
	Outputs []OutputConfig `yaml:"outputs"`

	// Trace configures the operation trace file. Empty path disables it.
	Trace TraceConfig `yaml:"trace"`

	// Control configures the status socket used by waybridge-top.
	Control ControlConfig `yaml:"control"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`
}

// SocketConfig selects the listening socket.
type SocketConfig struct {
	// Name is the socket file name inside RuntimeDir. Empty picks the
	// first free wayland-N.
	Name string `yaml:"name"`

	// RuntimeDir holds the socket. Default: ${XDG_RUNTIME_DIR}
	RuntimeDir string `yaml:"runtime_dir"`
}

// BuffersConfig lists advertised formats.
type BuffersConfig struct {
	// ShmFormats are format names or fourcc codes. argb8888 and
	// xrgb8888 are always advertised.
	ShmFormats []string `yaml:"shm_formats"`

	// DmabufFormats are advertised through zwp_linux_dmabuf_v1 when
	// the dmabuf capability is on.
	DmabufFormats []DmabufFormatConfig `yaml:"dmabuf_formats"`
}

// DmabufFormatConfig pairs a format with its supported modifiers.
type DmabufFormatConfig struct {
	Format string `yaml:"format"`

	// Modifiers default to [linear] when empty.
	Modifiers []string `yaml:"modifiers"`
}

// CapabilitiesConfig toggles optional protocol families. Disabled
// families have no global and never produce events.
type CapabilitiesConfig struct {
	XdgShell     bool `yaml:"xdg_shell"`
	Dmabuf       bool `yaml:"dmabuf"`
	DragAndDrop  bool `yaml:"drag_and_drop"`
	ExplicitSync bool `yaml:"explicit_sync"`
}

// SeatConfig describes a seat created at startup.
type SeatConfig struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`

	// Keyboard adds a keyboard capability when set.
	Keyboard *KeyboardConfig `yaml:"keyboard"`

	// Cursor adds a pointer capability when true.
	Cursor bool `yaml:"cursor"`
}

// KeyboardConfig sets key repeat parameters.
type KeyboardConfig struct {
	// RepeatDelay is milliseconds before repeat starts.
	RepeatDelay int32 `yaml:"repeat_delay"`

	// RepeatRate is characters per second. Zero disables repeat.
	RepeatRate int32 `yaml:"repeat_rate"`
}

// OutputConfig describes an output created at startup.
type OutputConfig struct {
	ID       uint32         `yaml:"id"`
	Name     string         `yaml:"name"`
	Physical PhysicalConfig `yaml:"physical"`
	Mode     ModeConfig     `yaml:"mode"`
	Scale    int32          `yaml:"scale"`
}

// PhysicalConfig mirrors wl_output.geometry.
type PhysicalConfig struct {
	WidthMM  int32  `yaml:"width_mm"`
	HeightMM int32  `yaml:"height_mm"`
	Subpixel string `yaml:"subpixel"`
	Make     string `yaml:"make"`
	Model    string `yaml:"model"`
}

// ModeConfig mirrors wl_output.mode.
type ModeConfig struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`

	// Refresh is in mHz.
	Refresh int32 `yaml:"refresh"`
}

// TraceConfig configures the operation trace.
type TraceConfig struct {
	Path string `yaml:"path"`

	// Compression is none, lz4, or zstd. Default: zstd
	Compression string `yaml:"compression"`
}

// ControlConfig configures the status socket.
type ControlConfig struct {
	// SocketPath is empty to disable the control socket.
	SocketPath string `yaml:"socket_path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error. Default: info
	Level string `yaml:"level"`

	// Format is auto, text, or json. Default: auto
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given: one
// auto-named socket, the two mandatory shm formats, xdg-shell on, and
// every other optional family off.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			RuntimeDir: "${XDG_RUNTIME_DIR}",
		},
		Buffers: BuffersConfig{
			ShmFormats: []string{"argb8888", "xrgb8888"},
		},
		Capabilities: CapabilitiesConfig{
			XdgShell: true,
		},
		DestructionPolicy: "silent",
		DispatchBudget:    16 * time.Millisecond,
		Trace: TraceConfig{
			Compression: "zstd",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file named by WAYBRIDGE_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a waybridge config file, or use --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads path over Default and expands variables. It does not
// validate; callers run Validate once any flag overrides are applied.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(filepath.Ext(path), data); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.ExpandVariables()
	return cfg, nil
}

// decode merges data into c. JSONC is stripped to plain JSON, which
// is valid YAML. TOML is decoded generically and re-encoded as YAML so
// every format shares the yaml struct tags.
func (c *Config) decode(extension string, data []byte) error {
	switch strings.ToLower(extension) {
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, c)
	case ".json", ".jsonc":
		return yaml.Unmarshal(jsonc.ToJSON(data), c)
	case ".toml":
		var document map[string]any
		if err := toml.Unmarshal(data, &document); err != nil {
			return err
		}
		converted, err := yaml.Marshal(document)
		if err != nil {
			return fmt.Errorf("converting toml: %w", err)
		}
		return yaml.Unmarshal(converted, c)
	default:
		return fmt.Errorf("unsupported config extension %q", extension)
	}
}

// ExpandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) ExpandVariables() {
	c.Socket.RuntimeDir = expandVars(c.Socket.RuntimeDir)
	c.Trace.Path = expandVars(c.Trace.Path)
	c.Control.SocketPath = expandVars(c.Control.SocketPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// ShmFormats parses Buffers.ShmFormats.
func (c *Config) ShmFormats() ([]fourcc.Format, error) {
	formats := make([]fourcc.Format, 0, len(c.Buffers.ShmFormats))
	for _, name := range c.Buffers.ShmFormats {
		format, err := fourcc.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("buffers.shm_formats: %w", err)
		}
		formats = append(formats, format)
	}
	return formats, nil
}

// DmabufFormat is a parsed DmabufFormatConfig.
type DmabufFormat struct {
	Format    fourcc.Format
	Modifiers []fourcc.Modifier
}

// DmabufFormats parses Buffers.DmabufFormats.
func (c *Config) DmabufFormats() ([]DmabufFormat, error) {
	formats := make([]DmabufFormat, 0, len(c.Buffers.DmabufFormats))
	for i, entry := range c.Buffers.DmabufFormats {
		format, err := fourcc.Parse(entry.Format)
		if err != nil {
			return nil, fmt.Errorf("buffers.dmabuf_formats[%d]: %w", i, err)
		}
		parsed := DmabufFormat{Format: format}
		if len(entry.Modifiers) == 0 {
			parsed.Modifiers = []fourcc.Modifier{fourcc.ModifierLinear}
		}
		for _, text := range entry.Modifiers {
			modifier, err := fourcc.ParseModifier(text)
			if err != nil {
				return nil, fmt.Errorf("buffers.dmabuf_formats[%d]: %w", i, err)
			}
			parsed.Modifiers = append(parsed.Modifiers, modifier)
		}
		formats = append(formats, parsed)
	}
	return formats, nil
}

var subpixels = map[string]bool{
	"": true, "unknown": true, "none": true,
	"horizontal_rgb": true, "horizontal_bgr": true,
	"vertical_rgb": true, "vertical_bgr": true,
}

// Validate checks the whole configuration and joins every problem
// into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Socket.Name == "" && c.Socket.RuntimeDir == "" {
		errs = append(errs, errors.New("socket.runtime_dir is empty (is XDG_RUNTIME_DIR set?)"))
	}
	if strings.Contains(c.Socket.Name, "/") {
		errs = append(errs, fmt.Errorf("socket.name %q must not contain a path separator", c.Socket.Name))
	}

	if _, err := c.ShmFormats(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DmabufFormats(); err != nil {
		errs = append(errs, err)
	}

	switch c.DestructionPolicy {
	case "silent", "report":
	default:
		errs = append(errs, fmt.Errorf("destruction_policy %q (want silent or report)", c.DestructionPolicy))
	}

	if c.DispatchBudget < 0 {
		errs = append(errs, fmt.Errorf("dispatch_budget %v is negative", c.DispatchBudget))
	}

	seatIDs := make(map[uint32]bool)
	for i, seat := range c.Seats {
		if seatIDs[seat.ID] {
			errs = append(errs, fmt.Errorf("seats[%d]: duplicate id %d", i, seat.ID))
		}
		seatIDs[seat.ID] = true
		if seat.Name == "" {
			errs = append(errs, fmt.Errorf("seats[%d]: name is required", i))
		}
		if seat.Keyboard != nil && (seat.Keyboard.RepeatDelay < 0 || seat.Keyboard.RepeatRate < 0) {
			errs = append(errs, fmt.Errorf("seats[%d]: keyboard repeat values must not be negative", i))
		}
	}

	outputIDs := make(map[uint32]bool)
	for i, output := range c.Outputs {
		if outputIDs[output.ID] {
			errs = append(errs, fmt.Errorf("outputs[%d]: duplicate id %d", i, output.ID))
		}
		outputIDs[output.ID] = true
		if output.Name == "" {
			errs = append(errs, fmt.Errorf("outputs[%d]: name is required", i))
		}
		if !subpixels[output.Physical.Subpixel] {
			errs = append(errs, fmt.Errorf("outputs[%d]: unknown subpixel layout %q", i, output.Physical.Subpixel))
		}
		if output.Scale < 0 {
			errs = append(errs, fmt.Errorf("outputs[%d]: scale %d is negative", i, output.Scale))
		}
	}

	switch c.Trace.Compression {
	case "", "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("trace.compression %q (want none, lz4, or zstd)", c.Trace.Compression))
	}

	return errors.Join(errs...)
}
