// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/registry"
)

// ErrOutputExists is returned by CreateOutput for an id already in use.
var ErrOutputExists = errors.New("server: output already exists")

// Subpixel is the wl_output subpixel layout.
type Subpixel int32

const (
	SubpixelUnknown Subpixel = iota
	SubpixelNone
	SubpixelHorizontalRGB
	SubpixelHorizontalBGR
	SubpixelVerticalRGB
	SubpixelVerticalBGR
)

var subpixelNames = map[string]Subpixel{
	"unknown":        SubpixelUnknown,
	"none":           SubpixelNone,
	"horizontal_rgb": SubpixelHorizontalRGB,
	"horizontal_bgr": SubpixelHorizontalBGR,
	"vertical_rgb":   SubpixelVerticalRGB,
	"vertical_bgr":   SubpixelVerticalBGR,
}

// ParseSubpixel maps a configuration name to a layout. Unrecognized
// names are unknown.
func ParseSubpixel(name string) Subpixel { return subpixelNames[name] }

// Mode is the current output mode. Refresh is in mHz.
type Mode struct {
	Width   int32
	Height  int32
	Refresh int32
}

// PhysicalProperties is what wl_output tells clients about a display.
type PhysicalProperties struct {
	WidthMM  int32
	HeightMM int32
	Subpixel Subpixel
	Make     string
	Model    string
	Mode     Mode

	// Scale is the integer buffer scale; zero means 1.
	Scale int32
}

// Output is a host output advertised as a wl_output global.
type Output struct {
	id         identity.OutputID
	name       string
	properties PhysicalProperties
	global     *engine.Global
}

func (o *Output) ID() identity.OutputID          { return o.id }
func (o *Output) Name() string                   { return o.name }
func (o *Output) Properties() PhysicalProperties { return o.properties }

const outputModeCurrentPreferred uint32 = 0x1 | 0x2

// CreateOutput advertises a new output.
func (s *Server) CreateOutput(id identity.OutputID, name string, properties PhysicalProperties) error {
	if _, exists := s.Output(id); exists {
		return fmt.Errorf("%w: %s", ErrOutputExists, id)
	}
	if properties.Scale <= 0 {
		properties.Scale = 1
	}
	output := &Output{id: id, name: name, properties: properties}
	output.global = s.display.CreateGlobal(engine.OutputInterface, 4, func(dispatch any, _ *engine.Client, resource *engine.Resource) {
		bindOutput(dispatch, resource, output)
	})
	s.outputs = append(s.outputs, output)
	s.logger.Info("output created", "output", id, "name", name,
		"width", properties.Mode.Width, "height", properties.Mode.Height)
	return nil
}

// DestroyOutput withdraws an output global. It reports whether the
// output existed.
func (s *Server) DestroyOutput(id identity.OutputID) bool {
	output, ok := s.Output(id)
	if !ok {
		return false
	}
	output.global.Remove()
	s.outputs = slices.DeleteFunc(s.outputs, func(other *Output) bool { return other == output })
	s.logger.Info("output destroyed", "output", id)
	return true
}

// Output returns a host output.
func (s *Server) Output(id identity.OutputID) (*Output, bool) {
	for _, output := range s.outputs {
		if output.id == id {
			return output, true
		}
	}
	return nil, false
}

// Outputs returns the host outputs in creation order.
func (s *Server) Outputs() []*Output { return slices.Clone(s.outputs) }

func bindOutput(dispatch any, resource *engine.Resource, output *Output) {
	st := state(dispatch)
	engine.Set(resource.UserData(), outputBinding{outputID: output.id})
	if !st.instantiate(resource, registry.KindOutput, ignoreRequest, Instantiation{Output: output.id}) {
		return
	}
	p := output.properties
	st.send(resource, "geometry", int32(0), int32(0), p.WidthMM, p.HeightMM, int32(p.Subpixel), p.Make, p.Model, int32(0))
	st.send(resource, "mode", outputModeCurrentPreferred, p.Mode.Width, p.Mode.Height, p.Mode.Refresh)
	st.sendSince(resource, 2, "scale", p.Scale)
	st.sendSince(resource, 4, "name", output.name)
	st.sendSince(resource, 4, "description", p.Make+" "+p.Model)
	st.sendSince(resource, 2, "done")
}
