// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/waybridge/lib/codec"
	"github.com/bureau-foundation/waybridge/registry"
)

// Writer buffers operations and writes them as one frame per Flush.
// It is used from the server's dispatch goroutine and is not safe for
// concurrent use.
type Writer struct {
	out         io.Writer
	closer      io.Closer
	compression Compression
	pending     []registry.Operation

	// err is sticky: once a write fails the trace is truncated and
	// every later Flush reports the same failure.
	err error
}

// NewWriter writes the trace magic to out and returns a Writer.
func NewWriter(out io.Writer, compression Compression) (*Writer, error) {
	if _, err := out.Write(Magic[:]); err != nil {
		return nil, fmt.Errorf("writing trace magic: %w", err)
	}
	return &Writer{out: out, compression: compression}, nil
}

// Create creates or truncates the file at path and returns a Writer
// that owns it.
func Create(path string, compression Compression) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating trace: %w", err)
	}
	writer, err := NewWriter(file, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.closer = file
	return writer, nil
}

// Record queues an operation for the next frame.
func (w *Writer) Record(operation registry.Operation) {
	w.pending = append(w.pending, operation)
}

// Flush writes the queued operations as one frame. With nothing queued
// it writes nothing.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.pending) == 0 {
		return nil
	}
	payload, err := codec.Marshal(w.pending)
	if err != nil {
		return fmt.Errorf("encoding %d trace operations: %w", len(w.pending), err)
	}
	w.pending = w.pending[:0]
	if len(payload) > maxPayload {
		return fmt.Errorf("trace frame of %d bytes exceeds %d", len(payload), maxPayload)
	}

	compression := w.compression
	stored, err := compress(payload, compression)
	if errors.Is(err, errIncompressible) {
		compression, stored = CompressionNone, payload
	} else if err != nil {
		return err
	}

	frame := header{
		compression: compression,
		rawSize:     uint32(len(payload)),
		storedSize:  uint32(len(stored)),
		checksum:    checksum(payload),
	}.encode()
	frame = append(frame, stored...)
	if _, err := w.out.Write(frame); err != nil {
		w.err = fmt.Errorf("writing trace frame: %w", err)
		return w.err
	}
	return nil
}

// Close flushes queued operations and closes the file a Writer from
// Create owns.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
		w.closer = nil
	}
	return err
}
