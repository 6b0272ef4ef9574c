// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/bureau-foundation/waybridge/lib/config"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/lib/testutil"
	"github.com/bureau-foundation/waybridge/registry"
	"github.com/bureau-foundation/waybridge/server"
)

func TestLogEventLevels(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&output, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logEvent(logger, server.Commit{Surface: 4})
	if output.Len() != 0 {
		t.Fatalf("commit logged at info: %s", output.String())
	}

	logEvent(logger, server.Instantiation{
		Interface: "wl_surface",
		Version:   4,
		Slot:      registry.KindSurface,
		Client:    2,
		Surface:   5,
	})
	var record map[string]any
	if err := json.Unmarshal(output.Bytes(), &record); err != nil {
		t.Fatalf("decoding log record %q: %v", output.String(), err)
	}
	want := map[string]any{
		"msg":       "instantiation",
		"interface": "wl_surface",
		"slot":      registry.KindSurface.String(),
		"client":    "client-2",
		"surface":   "surface-5",
		"version":   float64(4),
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("record[%q] = %v, want %v", key, record[key], value)
		}
	}
}

func TestCreateDevicesFromConfig(t *testing.T) {
	srv, err := server.New(server.Options{RuntimeDir: testutil.SocketDir(t), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer srv.Close()

	cfg := config.Default()
	cfg.Seats = []config.SeatConfig{
		{ID: 0, Name: "seat0", Keyboard: &config.KeyboardConfig{RepeatDelay: 500, RepeatRate: 30}, Cursor: true},
		{ID: 1, Name: "seat1"},
	}
	cfg.Outputs = []config.OutputConfig{{ID: 9, Name: "HDMI-A-1", Scale: 2}}
	if err := createDevices(srv, cfg); err != nil {
		t.Fatalf("createDevices: %v", err)
	}

	keyboard, ok := srv.Keyboard(0)
	if !ok || keyboard.RepeatRate != 30 {
		t.Fatalf("Keyboard(0) = %+v, %v, want repeat rate 30", keyboard, ok)
	}
	if _, ok := srv.Cursor(0); !ok {
		t.Fatalf("Cursor(0) missing")
	}
	if _, ok := srv.Keyboard(1); ok {
		t.Fatalf("Keyboard(1) present, want none")
	}
	output, ok := srv.Output(identity.OutputID(9))
	if !ok || output.Properties().Scale != 2 {
		t.Fatalf("Output(9) = %+v, %v, want scale 2", output, ok)
	}

	if err := createDevices(srv, cfg); err == nil {
		t.Fatalf("createDevices twice succeeded, want duplicate seat error")
	}
}
