// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/waybridge/lib/codec"
	"github.com/bureau-foundation/waybridge/registry"
)

// Frame is one decoded frame.
type Frame struct {
	// Index counts frames from zero.
	Index int

	// Offset is the byte offset of the frame header in the file.
	Offset int64

	Compression Compression
	RawSize     int
	StoredSize  int
	Checksum    Checksum

	// Payload is the uncompressed CBOR payload.
	Payload    []byte
	Operations []registry.Operation
}

// Reader decodes frames in file order.
type Reader struct {
	in     *bufio.Reader
	offset int64
	index  int
}

// NewReader checks the trace magic and returns a Reader positioned at
// the first frame.
func NewReader(in io.Reader) (*Reader, error) {
	reader := &Reader{in: bufio.NewReader(in)}
	var magic [len(Magic)]byte
	if _, err := io.ReadFull(reader.in, magic[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotTrace
		}
		return nil, fmt.Errorf("reading trace magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrNotTrace
	}
	reader.offset = int64(len(Magic))
	return reader, nil
}

// Next returns the next frame, or io.EOF after the last one. A frame
// cut short by the end of input is io.ErrUnexpectedEOF.
func (r *Reader) Next() (Frame, error) {
	buffer := make([]byte, headerSize)
	if _, err := io.ReadFull(r.in, buffer); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("frame %d header at offset %d: %w", r.index, r.offset, err)
	}
	h, ok := decodeHeader(buffer)
	if !ok {
		return Frame{}, fmt.Errorf("frame %d at offset %d: malformed header", r.index, r.offset)
	}
	stored := make([]byte, h.storedSize)
	if _, err := io.ReadFull(r.in, stored); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("frame %d payload at offset %d: %w", r.index, r.offset, err)
	}

	frame := Frame{
		Index:       r.index,
		Offset:      r.offset,
		Compression: h.compression,
		RawSize:     int(h.rawSize),
		StoredSize:  int(h.storedSize),
		Checksum:    h.checksum,
	}
	r.index++
	r.offset += int64(headerSize) + int64(h.storedSize)

	payload, err := decompress(stored, h.compression, int(h.rawSize))
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	if checksum(payload) != h.checksum {
		return Frame{}, fmt.Errorf("frame %d at offset %d: %w", frame.Index, frame.Offset, ErrChecksum)
	}
	frame.Payload = payload
	if err := codec.Unmarshal(payload, &frame.Operations); err != nil {
		return Frame{}, fmt.Errorf("frame %d: decoding operations: %w", frame.Index, err)
	}
	return frame, nil
}

// Replay applies every operation in the trace to a fresh registry and
// returns it.
func Replay(in io.Reader, logger *slog.Logger) (*registry.Registry[registry.Key], error) {
	reader, err := NewReader(in)
	if err != nil {
		return nil, err
	}
	replayer := registry.NewReplayer(registry.New[registry.Key](logger, nil))
	for {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return replayer.Registry, nil
		}
		if err != nil {
			return nil, err
		}
		for _, operation := range frame.Operations {
			if err := replayer.Apply(operation); err != nil {
				return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
			}
		}
	}
}
