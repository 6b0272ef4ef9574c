// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/waybridge/lib/clock"
	"github.com/bureau-foundation/waybridge/lib/config"
	"github.com/bureau-foundation/waybridge/lib/control"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/lib/process"
	"github.com/bureau-foundation/waybridge/lib/version"
	"github.com/bureau-foundation/waybridge/server"
	"github.com/bureau-foundation/waybridge/trace"
)

// statusInterval bounds how stale the control socket's view gets when
// no events arrive. Silent disconnects change state without events.
const statusInterval = time.Second

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		socketName  string
		tracePath   string
		logLevel    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("waybridge", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&socketName, "socket", "", "display socket name, overriding socket.name")
	flagSet.StringVar(&tracePath, "trace", "", "operation trace path, overriding trace.path")
	flagSet.StringVar(&logLevel, "log-level", "", "log level, overriding logging.level")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &process.ExitError{Code: 2, Err: err}
	}
	if showVersion {
		fmt.Printf("waybridge %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketName != "" {
		cfg.Socket.Name = socketName
	}
	if tracePath != "" {
		cfg.Trace.Path = tracePath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: logging.Format(cfg.Logging.Format),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.EnvVar) == "" {
		return config.Default(), nil
	}
	return config.Load()
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	options, err := server.ConfigOptions(cfg)
	if err != nil {
		return err
	}
	options.Logger = logger
	options.Identities = identity.Process()

	var writer *trace.Writer
	if cfg.Trace.Path != "" {
		compression, err := trace.ParseCompression(cfg.Trace.Compression)
		if err != nil {
			return err
		}
		writer, err = trace.Create(cfg.Trace.Path, compression)
		if err != nil {
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("closing operation trace", "path", cfg.Trace.Path, "error", err)
			}
		}()
		options.Trace = writer
	}

	srv, err := server.New(options)
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	defer srv.Close()

	if err := createDevices(srv, cfg); err != nil {
		return err
	}
	logger.Info("waybridge listening",
		"socket", srv.SocketPath(),
		"version", version.Info(),
		"seats", len(cfg.Seats),
		"outputs", len(cfg.Outputs),
	)

	var status atomic.Pointer[server.Status]
	current := srv.Status()
	status.Store(&current)

	var controlDone sync.WaitGroup
	if cfg.Control.SocketPath != "" {
		controlServer := newControlServer(cfg.Control.SocketPath, &status, logger)
		controlDone.Add(1)
		go func() {
			defer controlDone.Done()
			if err := controlServer.Serve(ctx); err != nil {
				logger.Error("control socket failed", "error", err)
			}
		}()
	}
	defer controlDone.Wait()

	clk := clock.Real()
	published := clk.Now()
	for ctx.Err() == nil {
		events := srv.Dispatch(ctx, cfg.DispatchBudget)
		for _, event := range events {
			logEvent(logger, event)
		}
		if len(events) > 0 || clk.Now().Sub(published) >= statusInterval {
			current := srv.Status()
			status.Store(&current)
			published = clk.Now()
		}
	}
	logger.Info("shutting down", "clients", len(srv.Clients()))
	return nil
}

// createDevices creates the configured seats and outputs in order.
func createDevices(srv *server.Server, cfg *config.Config) error {
	for _, seat := range cfg.Seats {
		id := identity.SeatID(seat.ID)
		if err := srv.CreateSeat(id, seat.Name); err != nil {
			return fmt.Errorf("creating seat %q: %w", seat.Name, err)
		}
		if seat.Keyboard != nil {
			srv.AddKeyboard(id, seat.Keyboard.RepeatDelay, seat.Keyboard.RepeatRate)
		}
		if seat.Cursor {
			srv.AddCursor(id)
		}
	}
	for _, output := range cfg.Outputs {
		id := identity.OutputID(output.ID)
		if err := srv.CreateOutput(id, output.Name, server.PhysicalFromConfig(output)); err != nil {
			return fmt.Errorf("creating output %q: %w", output.Name, err)
		}
	}
	return nil
}

// newControlServer registers the read-only actions. Handlers run on
// control goroutines and only read the published Status.
func newControlServer(socketPath string, status *atomic.Pointer[server.Status], logger *slog.Logger) *control.Server {
	controlServer := control.NewServer(socketPath, logger)
	controlServer.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return status.Load(), nil
	})
	controlServer.Handle("snapshot", func(ctx context.Context, raw []byte) (any, error) {
		return status.Load().Registry, nil
	})
	controlServer.Handle("version", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]string{"version": version.Info()}, nil
	})
	return controlServer
}
