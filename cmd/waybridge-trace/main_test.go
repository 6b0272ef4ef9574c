// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/lib/process"
	"github.com/bureau-foundation/waybridge/registry"
	"github.com/bureau-foundation/waybridge/trace"
)

// writeTrace records two frames: a client with a surface and a seat,
// then the surface's destruction.
func writeTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.wbtrace")
	writer, err := trace.Create(path, trace.CompressionZstd)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	live := registry.New[registry.Key](logging.Discard(), writer.Record)
	client := &engine.UserDataMap{}
	live.InsertClient(client, 1)
	live.Register(client, registry.Key(2), registry.KindCompositor)
	live.Register(client, registry.Key(3), registry.KindSurface)
	live.RegisterSeat(client, registry.Key(4), 0)
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	live.Unregister(client, registry.Key(3), registry.KindSurface)
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestInspectListsFrames(t *testing.T) {
	path := writeTrace(t)
	var stdout bytes.Buffer
	if err := run([]string{"inspect", "--operations", path}, &stdout); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	output := stdout.String()
	if !strings.Contains(output, "frame 0 ") || !strings.Contains(output, "frame 1 ") {
		t.Fatalf("inspect output missing frames:\n%s", output)
	}
	if !strings.Contains(output, "2 frames, 5 operations") {
		t.Fatalf("inspect output missing totals:\n%s", output)
	}
}

func TestInspectRawDiagnoses(t *testing.T) {
	path := writeTrace(t)
	var stdout bytes.Buffer
	if err := run([]string{"inspect", "--raw", path}, &stdout); err != nil {
		t.Fatalf("inspect --raw: %v", err)
	}
	if !strings.Contains(stdout.String(), `"op"`) {
		t.Fatalf("raw output has no diagnostic notation:\n%s", stdout.String())
	}
}

func TestReplayJSON(t *testing.T) {
	path := writeTrace(t)
	var stdout bytes.Buffer
	if err := run([]string{"replay", "--json", path}, &stdout); err != nil {
		t.Fatalf("replay: %v", err)
	}
	var snapshot registry.Snapshot
	if err := json.Unmarshal(stdout.Bytes(), &snapshot); err != nil {
		t.Fatalf("decoding snapshot: %v\n%s", err, stdout.String())
	}
	if len(snapshot.Clients) != 1 {
		t.Fatalf("clients = %d, want 1", len(snapshot.Clients))
	}
	if got := snapshot.Clients[0].Count(registry.KindSurface); got != 0 {
		t.Fatalf("surfaces = %d, want 0 after destruction", got)
	}
	if got := snapshot.Clients[0].Count(registry.KindCompositor); got != 1 {
		t.Fatalf("compositors = %d, want 1", got)
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{nil, {"bogus"}, {"replay"}, {"inspect", "a", "b"}} {
		err := run(args, &bytes.Buffer{})
		if code := process.ExitCode(err); code != 2 {
			t.Fatalf("run(%q) exit code = %d (%v), want 2", args, code, err)
		}
	}
}
