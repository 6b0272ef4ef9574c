// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/engine/wltest"
	"github.com/bureau-foundation/waybridge/lib/clock"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/lib/testutil"
)

// recorder is the dispatch value for these tests. Handlers record what
// they observed into it.
type recorder struct {
	binds     []*engine.Resource
	requests  []string
	destroyed []string
	clients   int
	fdValid   bool
}

func record(dispatch any) *recorder { return dispatch.(*recorder) }

type harness struct {
	display  *engine.Display
	path     string
	recorder *recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	directory := testutil.SocketDir(t)
	display := engine.NewDisplay(logging.Discard(), clock.Real())
	name, err := display.AddSocketAuto(directory)
	if err != nil {
		t.Fatalf("AddSocketAuto: %v", err)
	}
	h := &harness{display: display, path: filepath.Join(directory, name), recorder: &recorder{}}
	display.OnClientCreated(func(dispatch any, _ *engine.Client) { record(dispatch).clients++ })
	display.OnClientDestroyed(func(dispatch any, _ *engine.Client) { record(dispatch).clients-- })
	t.Cleanup(func() { display.Close(h.recorder) })
	return h
}

func (h *harness) pump() {
	_ = h.display.FlushClients(h.recorder)
	_ = h.display.Dispatch(context.Background(), 5*time.Millisecond, h.recorder)
	_ = h.display.FlushClients(h.recorder)
}

func bindCompositor(dispatch any, _ *engine.Client, resource *engine.Resource) {
	record(dispatch).binds = append(record(dispatch).binds, resource)
	resource.Assign(handleCompositor)
}

func handleCompositor(dispatch any, _ *engine.Resource, request *engine.Request) {
	record(dispatch).requests = append(record(dispatch).requests, request.Name())
	if request.Name() == "create_surface" {
		surface := request.NewResource(0)
		surface.Assign(func(dispatch any, _ *engine.Resource, request *engine.Request) {
			record(dispatch).requests = append(record(dispatch).requests, "surface."+request.Name())
		})
		surface.AssignDestructor(func(dispatch any, resource *engine.Resource) {
			record(dispatch).destroyed = append(record(dispatch).destroyed, resource.String())
		})
	}
}

func TestBindRoutesRequests(t *testing.T) {
	h := newHarness(t)
	h.display.CreateGlobal(engine.CompositorInterface, 4, bindCompositor)

	client := wltest.Dial(t, h.path, h.pump)
	if _, ok := client.Global("wl_compositor"); !ok {
		t.Fatalf("wl_compositor not advertised; globals = %v", client.Globals())
	}
	compositor := client.Bind(engine.CompositorInterface, 3)
	surface := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", surface)
	client.Request(surface, "commit")
	client.Roundtrip(h.pump)

	if len(h.recorder.binds) != 1 {
		t.Fatalf("binds = %d, want 1", len(h.recorder.binds))
	}
	if got := h.recorder.binds[0].Version(); got != 3 {
		t.Fatalf("bound version = %d, want 3", got)
	}
	want := []string{"create_surface", "surface.commit"}
	if len(h.recorder.requests) != len(want) {
		t.Fatalf("requests = %v, want %v", h.recorder.requests, want)
	}
	for i := range want {
		if h.recorder.requests[i] != want[i] {
			t.Fatalf("requests[%d] = %q, want %q", i, h.recorder.requests[i], want[i])
		}
	}
	if h.recorder.clients != 1 {
		t.Fatalf("clients = %d, want 1", h.recorder.clients)
	}
}

func TestDestructorRequestSendsDeleteID(t *testing.T) {
	h := newHarness(t)
	h.display.CreateGlobal(engine.CompositorInterface, 4, bindCompositor)
	client := wltest.Dial(t, h.path, h.pump)
	compositor := client.Bind(engine.CompositorInterface, 4)
	surface := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", surface)
	client.Request(surface, "destroy")
	events := client.Roundtrip(h.pump)

	if len(h.recorder.destroyed) != 1 {
		t.Fatalf("destroyed = %v, want one surface", h.recorder.destroyed)
	}
	deletes := wltest.Find(events, "wl_display", "delete_id")
	found := false
	for _, event := range deletes {
		if event.Uint(0) == surface {
			found = true
		}
	}
	if !found {
		t.Fatalf("no delete_id for surface %d in %v", surface, events)
	}
	if client.Alive(surface) {
		t.Fatalf("surface %d still tracked after delete_id", surface)
	}
}

func TestClientIDReuseGetsFreshKey(t *testing.T) {
	h := newHarness(t)
	var keys []engine.ObjectKey
	h.display.CreateGlobal(engine.CompositorInterface, 4, func(dispatch any, _ *engine.Client, resource *engine.Resource) {
		resource.Assign(func(dispatch any, _ *engine.Resource, request *engine.Request) {
			keys = append(keys, request.NewResource(0).Key())
		})
	})
	client := wltest.Dial(t, h.path, h.pump)
	compositor := client.Bind(engine.CompositorInterface, 4)

	first := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", first)
	client.Request(first, "destroy")
	client.Roundtrip(h.pump)

	second := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", second)
	client.Roundtrip(h.pump)

	if len(keys) != 2 {
		t.Fatalf("created %d surfaces, want 2", len(keys))
	}
	if keys[0] == keys[1] {
		t.Fatalf("both surfaces got key %d", keys[0])
	}
}

func TestInvalidObjectIsProtocolError(t *testing.T) {
	h := newHarness(t)
	client := wltest.Dial(t, h.path, h.pump)

	// A wl_callback id the server never saw.
	bogus := client.NewID(engine.CompositorInterface)
	client.Request(bogus, "create_surface", client.NewID(engine.SurfaceInterface))
	client.WaitDisconnect(h.pump)

	errs := client.ProtocolErrors()
	if len(errs) != 1 {
		t.Fatalf("protocol errors = %v, want 1", errs)
	}
	if code := errs[0].Uint(1); code != engine.DisplayErrorInvalidObject {
		t.Fatalf("error code = %d, want %d", code, engine.DisplayErrorInvalidObject)
	}
	// The other half of the disconnect shows up once the hook runs.
	deadline := time.Now().Add(wltest.Timeout)
	for h.recorder.clients != 0 && time.Now().Before(deadline) {
		h.pump()
	}
	if h.recorder.clients != 0 {
		t.Fatalf("clients = %d after protocol error, want 0", h.recorder.clients)
	}
}

func TestBindRejectsNewerVersion(t *testing.T) {
	h := newHarness(t)
	h.display.CreateGlobal(engine.CompositorInterface, 2, bindCompositor)
	client := wltest.Dial(t, h.path, h.pump)
	client.Bind(engine.CompositorInterface, 4)
	client.WaitDisconnect(h.pump)

	if len(h.recorder.binds) != 0 {
		t.Fatalf("bind handler ran %d times for an invalid version", len(h.recorder.binds))
	}
	if len(client.ProtocolErrors()) != 1 {
		t.Fatalf("protocol errors = %v, want 1", client.ProtocolErrors())
	}
}

func TestRemovedGlobalBindIsInert(t *testing.T) {
	h := newHarness(t)
	global := h.display.CreateGlobal(engine.CompositorInterface, 4, bindCompositor)
	client := wltest.Dial(t, h.path, h.pump)
	advertised, ok := client.Global("wl_compositor")
	if !ok {
		t.Fatal("wl_compositor not advertised")
	}

	global.Remove()
	if !global.Removed() {
		t.Fatal("Removed() = false after Remove")
	}
	compositor := client.BindName(advertised.Name, engine.CompositorInterface, 4)
	client.Request(compositor, "create_surface", client.NewID(engine.SurfaceInterface))
	events := client.Roundtrip(h.pump)

	if len(wltest.Find(events, "wl_registry", "global_remove")) != 1 {
		t.Fatalf("events = %v, want one global_remove", events)
	}
	if len(h.recorder.binds) != 0 || len(h.recorder.requests) != 0 {
		t.Fatalf("removed global reached handlers: binds=%d requests=%v", len(h.recorder.binds), h.recorder.requests)
	}
	if len(client.ProtocolErrors()) != 0 {
		t.Fatalf("protocol errors = %v, want none", client.ProtocolErrors())
	}
}

func TestDisconnectDestroysNewestFirst(t *testing.T) {
	h := newHarness(t)
	h.display.CreateGlobal(engine.CompositorInterface, 4, bindCompositor)
	client := wltest.Dial(t, h.path, h.pump)
	compositor := client.Bind(engine.CompositorInterface, 4)
	first := client.NewID(engine.SurfaceInterface)
	second := client.NewID(engine.SurfaceInterface)
	client.Request(compositor, "create_surface", first)
	client.Request(compositor, "create_surface", second)
	client.Roundtrip(h.pump)

	client.Close()
	deadline := time.Now().Add(wltest.Timeout)
	for h.recorder.clients != 0 && time.Now().Before(deadline) {
		h.pump()
	}
	if h.recorder.clients != 0 {
		t.Fatal("client-destroyed hook did not run")
	}
	if len(h.display.Clients()) != 0 {
		t.Fatalf("Clients() = %d after disconnect, want 0", len(h.display.Clients()))
	}
	if len(h.recorder.destroyed) != 2 {
		t.Fatalf("destroyed = %v, want 2 surfaces", h.recorder.destroyed)
	}
	if h.recorder.destroyed[0] != fmt.Sprintf("wl_surface@%d", second) {
		t.Fatalf("destroyed = %v, want %d first", h.recorder.destroyed, second)
	}
}

func TestRequestFDTransfer(t *testing.T) {
	h := newHarness(t)
	h.display.CreateGlobal(engine.ShmInterface, 1, func(dispatch any, _ *engine.Client, resource *engine.Resource) {
		resource.Assign(func(dispatch any, _ *engine.Resource, request *engine.Request) {
			fd := request.TakeFD(1)
			var stat unix.Stat_t
			record(dispatch).fdValid = unix.Fstat(fd, &stat) == nil && stat.Size == 4096
			unix.Close(fd)
		})
	})
	client := wltest.Dial(t, h.path, h.pump)
	shm := client.Bind(engine.ShmInterface, 1)

	file, err := os.CreateTemp(t.TempDir(), "pool")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer file.Close()
	if err := file.Truncate(4096); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	client.Request(shm, "create_pool", client.NewID(engine.ShmPoolInterface), int(file.Fd()), int32(4096))
	client.Roundtrip(h.pump)

	if !h.recorder.fdValid {
		t.Fatal("handler did not receive a usable descriptor")
	}
}

func TestDispatchZeroBudgetReturnsImmediately(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	display := engine.NewDisplay(logging.Discard(), fake)
	defer display.Close(nil)

	if err := display.Dispatch(context.Background(), 0, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fake.PendingCount() != 0 {
		t.Fatalf("zero budget armed %d timers", fake.PendingCount())
	}
}

func TestDispatchWaitsForBudget(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	display := engine.NewDisplay(logging.Discard(), fake)
	defer display.Close(nil)

	done := make(chan error, 1)
	go func() { done <- display.Dispatch(context.Background(), time.Second, nil) }()

	fake.WaitForTimers(1)
	testutil.RequireNoReceive(t, done, 10*time.Millisecond, "Dispatch returned before the budget elapsed")
	fake.Advance(time.Second)
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Dispatch did not return"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func TestDispatchHonorsContext(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	display := engine.NewDisplay(logging.Discard(), fake)
	defer display.Close(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- display.Dispatch(ctx, time.Hour, nil) }()
	fake.WaitForTimers(1)
	cancel()

	err := testutil.RequireReceive(t, done, 5*time.Second, "Dispatch ignored cancellation")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Dispatch = %v, want context.Canceled", err)
	}
}

func TestDispatchAfterClose(t *testing.T) {
	display := engine.NewDisplay(logging.Discard(), clock.Real())
	display.Close(nil)
	if err := display.Dispatch(context.Background(), 0, nil); !errors.Is(err, engine.ErrClosed) {
		t.Fatalf("Dispatch after Close = %v, want ErrClosed", err)
	}
}
