// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/registry"
)

// session drives a registry through a small client lifetime, recording
// to writer and flushing once per simulated dispatch cycle.
func session(t *testing.T, writer *Writer) *registry.Registry[registry.Key] {
	t.Helper()
	live := registry.New[registry.Key](logging.Discard(), writer.Record)
	first, second := &engine.UserDataMap{}, &engine.UserDataMap{}
	flush := func() {
		if err := writer.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}

	live.InsertClient(first, 1)
	live.Register(first, registry.Key(10), registry.KindCompositor)
	live.Register(first, registry.Key(11), registry.KindSurface)
	live.Register(first, registry.Key(12), registry.KindSurface)
	live.RegisterSeat(first, registry.Key(13), 0)
	live.RegisterCapability(first, registry.Key(13), registry.Key(14), registry.KindKeyboard)
	flush()

	live.InsertClient(second, 2)
	live.Register(second, registry.Key(20), registry.KindCompositor)
	live.Unregister(first, registry.Key(11), registry.KindSurface)
	flush()

	// An idle cycle writes no frame.
	flush()

	live.Unregister(second, registry.Key(20), registry.KindCompositor)
	live.RemoveClient(second)
	flush()
	return live
}

func readAll(t *testing.T, data []byte) []Frame {
	t.Helper()
	reader, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var frames []Frame
	for {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		frames = append(frames, frame)
	}
}

func TestReplayReproducesRegistry(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			var buffer bytes.Buffer
			writer, err := NewWriter(&buffer, compression)
			if err != nil {
				t.Fatalf("NewWriter: %v", err)
			}
			live := session(t, writer)

			if frames := readAll(t, buffer.Bytes()); len(frames) != 3 {
				t.Fatalf("frames = %d, want 3", len(frames))
			}
			replayed, err := Replay(bytes.NewReader(buffer.Bytes()), logging.Discard())
			if err != nil {
				t.Fatalf("Replay: %v", err)
			}
			if got, want := replayed.Snapshot(), live.Snapshot(); !got.Equal(want) {
				t.Fatalf("replayed snapshot = %+v, want %+v", got, want)
			}
		})
	}
}

func TestFramesPreserveOperationOrder(t *testing.T) {
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, CompressionZstd)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	session(t, writer)

	frames := readAll(t, buffer.Bytes())
	var ops []registry.Op
	for _, frame := range frames {
		for _, operation := range frame.Operations {
			ops = append(ops, operation.Op)
		}
	}
	want := []registry.Op{
		registry.OpInsertClient, registry.OpRegister, registry.OpRegister, registry.OpRegister,
		registry.OpRegisterSeat, registry.OpRegisterCapability,
		registry.OpInsertClient, registry.OpRegister, registry.OpUnregister,
		registry.OpUnregister, registry.OpRemoveClient,
	}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops[%d] = %s, want %s", i, ops[i], want[i])
		}
	}
	if frames[0].Operations[5].Seat != 13 || frames[0].Operations[5].Kind != registry.KindKeyboard {
		t.Fatalf("capability operation = %+v", frames[0].Operations[5])
	}
}

func TestLargeFrameCompresses(t *testing.T) {
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, CompressionZstd)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := range 1000 {
		writer.Record(registry.Operation{Op: registry.OpRegister, Client: 1, Kind: registry.KindSurface, Object: engine.ObjectKey(i + 1)})
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	frames := readAll(t, buffer.Bytes())
	if len(frames) != 1 || len(frames[0].Operations) != 1000 {
		t.Fatalf("frames = %d, want one frame of 1000 operations", len(frames))
	}
	if frames[0].Compression != CompressionZstd || frames[0].StoredSize >= frames[0].RawSize {
		t.Fatalf("frame stored %s %d of %d bytes, want zstd smaller than raw",
			frames[0].Compression, frames[0].StoredSize, frames[0].RawSize)
	}
}

func TestCorruptPayloadFailsChecksum(t *testing.T) {
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, CompressionNone)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	session(t, writer)
	data := buffer.Bytes()
	data[len(Magic)+headerSize+2] ^= 0xff

	reader, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, ErrChecksum) {
		t.Fatalf("Next on a corrupt frame = %v, want ErrChecksum", err)
	}
}

func TestTruncatedFrame(t *testing.T) {
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, CompressionLZ4)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	session(t, writer)
	data := buffer.Bytes()[:buffer.Len()-3]

	reader, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	for {
		_, err = reader.Next()
		if err != nil {
			break
		}
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Next at the cut = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestNotATrace(t *testing.T) {
	for _, input := range []string{"", "WBTR", "PK\x03\x04 zip file"} {
		if _, err := NewReader(bytes.NewReader([]byte(input))); !errors.Is(err, ErrNotTrace) {
			t.Fatalf("NewReader(%q) = %v, want ErrNotTrace", input, err)
		}
	}
}

func TestCreateAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.trace")
	writer, err := Create(path, CompressionZstd)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	writer.Record(registry.Operation{Op: registry.OpInsertClient, Client: 7})
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	frames := readAll(t, data)
	if len(frames) != 1 || frames[0].Operations[0].Client != 7 {
		t.Fatalf("frames = %+v, want the operation queued before Close", frames)
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name    string
		want    Compression
		wantErr bool
	}{
		{"none", CompressionNone, false},
		{"lz4", CompressionLZ4, false},
		{"zstd", CompressionZstd, false},
		{"", CompressionZstd, false},
		{"gzip", 0, true},
	}
	for _, test := range tests {
		got, err := ParseCompression(test.name)
		if (err != nil) != test.wantErr || got != test.want {
			t.Fatalf("ParseCompression(%q) = %s, %v", test.name, got, err)
		}
	}
}
