// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"sync"
	"testing"
)

func TestAllocatorNeverRepeats(t *testing.T) {
	var allocator Allocator
	seen := make(map[uint64]bool)
	for i := range 1000 {
		var raw uint64
		if i%2 == 0 {
			raw = allocator.NextClient().Uint64()
		} else {
			raw = allocator.NextSurface().Uint64()
		}
		if raw == 0 {
			t.Fatal("allocator returned the zero identity")
		}
		if seen[raw] {
			t.Fatalf("identity %d allocated twice", raw)
		}
		seen[raw] = true
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	var allocator Allocator
	const workers, perWorker = 8, 500

	results := make(chan SurfaceID, workers*perWorker)
	var group sync.WaitGroup
	for range workers {
		group.Add(1)
		go func() {
			defer group.Done()
			for range perWorker {
				results <- allocator.NextSurface()
			}
		}()
	}
	group.Wait()
	close(results)

	seen := make(map[SurfaceID]bool)
	for id := range results {
		if seen[id] {
			t.Fatalf("%v allocated twice", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("got %d identities, want %d", len(seen), workers*perWorker)
	}
}

func TestProcessAllocatorShared(t *testing.T) {
	first := Process().NextClient()
	second := Process().NextSurface()
	if second.Uint64() <= first.Uint64() {
		t.Fatalf("process allocator went backwards: %d then %d", first, second)
	}
}

func TestIntegerConversion(t *testing.T) {
	if got := SurfaceID(SurfaceID(42).Uint64()); got != 42 {
		t.Fatalf("SurfaceID round trip = %d, want 42", got)
	}
	if got := SeatID(SeatID(7).Uint32()); got != 7 {
		t.Fatalf("SeatID round trip = %d, want 7", got)
	}
}

func TestTextForm(t *testing.T) {
	text, err := ClientID(12).MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "client-12" {
		t.Fatalf("MarshalText = %q, want client-12", text)
	}

	var client ClientID
	if err := client.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if client != 12 {
		t.Fatalf("UnmarshalText = %d, want 12", client)
	}

	var output OutputID
	if err := output.UnmarshalText([]byte("seat-3")); err == nil {
		t.Fatal("OutputID accepted a seat- prefix")
	}
}
