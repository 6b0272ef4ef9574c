// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wltest is a minimal Wayland client for tests. It speaks the
// wire protocol directly using the engine's interface tables, tracks
// the objects it creates, and records every event it receives.
//
// The server under test runs in the test goroutine, so the client
// never blocks waiting for it. Operations that need a server response
// take a pump function that runs one dispatch cycle:
//
//	pump := func() { events = append(events, srv.Dispatch(ctx, 5*time.Millisecond)...) }
//	client := wltest.Dial(t, path, pump)
//	compositor := client.Bind(engine.CompositorInterface, 4)
//	client.Roundtrip(pump)
package wltest

import (
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/engine/wire"
)

// Timeout bounds Roundtrip and WaitDisconnect.
var Timeout = 5 * time.Second

// Event is one decoded event. Object and new_id arguments are raw ids.
// Descriptor arguments are closed on receipt; only their presence is
// recorded.
type Event struct {
	Object    uint32
	Interface string
	Name      string
	Args      []any
}

func (e Event) Uint(i int) uint32      { return e.Args[i].(uint32) }
func (e Event) Int(i int) int32        { return e.Args[i].(int32) }
func (e Event) String(i int) string    { s, _ := e.Args[i].(string); return s }
func (e Event) Array(i int) []byte     { return e.Args[i].([]byte) }
func (e Event) Fixed(i int) wire.Fixed { return e.Args[i].(wire.Fixed) }

// Global is an advertised registry global.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Client is a test connection.
type Client struct {
	t    testing.TB
	conn *net.UnixConn

	mu       sync.Mutex
	objects  map[uint32]*engine.Interface
	nextID   uint32
	events   []Event
	globals  []Global
	errors   []Event
	readErr  error
	registry uint32
}

// Dial connects to the socket at path, creates a registry, and runs a
// roundtrip so Globals is populated on return.
func Dial(t testing.TB, path string, pump func()) *Client {
	t.Helper()
	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		t.Fatalf("dialing %s: %v", path, err)
	}
	client := &Client{
		t:       t,
		conn:    conn,
		objects: map[uint32]*engine.Interface{1: engine.DisplayInterface},
		nextID:  2,
	}
	t.Cleanup(client.Close)
	go client.readLoop()

	client.registry = client.NewID(engine.RegistryInterface)
	client.Request(1, "get_registry", client.registry)
	client.Roundtrip(pump)
	return client
}

// Close closes the connection.
func (c *Client) Close() { c.conn.Close() }

// NewID allocates a client object id for iface.
func (c *Client) NewID(iface *engine.Interface) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.objects[id] = iface
	return id
}

// Request sends a request. Object and new_id arguments are raw ids
// (allocate new ones with NewID); descriptors are ints and stay owned
// by the caller.
func (c *Client) Request(object uint32, name string, args ...any) {
	c.t.Helper()
	c.mu.Lock()
	iface := c.objects[object]
	c.mu.Unlock()
	if iface == nil {
		c.t.Fatalf("request %s on unknown object %d", name, object)
	}
	opcode, message, ok := iface.Request(name)
	if !ok {
		c.t.Fatalf("%s has no request %q", iface.Name, name)
	}
	encoded, err := engine.EncodeMessage(object, opcode, message, args)
	if err != nil {
		c.t.Fatalf("encoding %s.%s: %v", iface.Name, name, err)
	}
	var oob []byte
	if len(encoded.FDs) > 0 {
		oob = unix.UnixRights(encoded.FDs...)
	}
	if _, _, err := c.conn.WriteMsgUnix(encoded.Data, oob, nil); err != nil {
		c.t.Fatalf("writing %s.%s: %v", iface.Name, name, err)
	}
}

// Bind binds the advertised global for iface at version and returns
// the new object id.
func (c *Client) Bind(iface *engine.Interface, version uint32) uint32 {
	c.t.Helper()
	global, ok := c.Global(iface.Name)
	if !ok {
		c.t.Fatalf("no %s global advertised", iface.Name)
	}
	return c.BindName(global.Name, iface, version)
}

// BindName binds a global by registry name.
func (c *Client) BindName(name uint32, iface *engine.Interface, version uint32) uint32 {
	c.t.Helper()
	id := c.NewID(iface)
	c.Request(c.registry, "bind", name, engine.NewID{Interface: iface.Name, Version: version, ID: id})
	return id
}

// Global returns the first advertised global for an interface.
func (c *Client) Global(iface string) (Global, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, global := range c.globals {
		if global.Interface == iface {
			return global, true
		}
	}
	return Global{}, false
}

// Globals returns every advertised global, in announcement order.
func (c *Client) Globals() []Global {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.globals)
}

// Roundtrip sends wl_display.sync and pumps until the callback fires.
// It returns, and removes from the pending list, every event received
// before the callback's done event.
func (c *Client) Roundtrip(pump func()) []Event {
	c.t.Helper()
	callback := c.NewID(engine.CallbackInterface)
	c.Request(1, "sync", callback)

	deadline := time.Now().Add(Timeout)
	for time.Now().Before(deadline) {
		pump()
		c.mu.Lock()
		for i, event := range c.events {
			if event.Object == callback && event.Name == "done" {
				before := slices.Clone(c.events[:i])
				c.events = slices.Delete(c.events, 0, i+1)
				c.mu.Unlock()
				return before
			}
		}
		readErr := c.readErr
		c.mu.Unlock()
		if readErr != nil {
			c.t.Fatalf("connection lost during roundtrip: %v (protocol errors: %v)", readErr, c.ProtocolErrors())
		}
	}
	c.t.Fatalf("roundtrip timed out after %v", Timeout)
	return nil
}

// Events returns and clears the pending events.
func (c *Client) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.events
	c.events = nil
	return events
}

// ProtocolErrors returns every wl_display.error received.
func (c *Client) ProtocolErrors() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.errors)
}

// Alive reports whether the object id is still live from the client's
// point of view (not yet acknowledged by delete_id).
func (c *Client) Alive(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[id]
	return ok
}

// WaitDisconnect pumps until the server closes the connection.
func (c *Client) WaitDisconnect(pump func()) {
	c.t.Helper()
	deadline := time.Now().Add(Timeout)
	for time.Now().Before(deadline) {
		pump()
		c.mu.Lock()
		readErr := c.readErr
		c.mu.Unlock()
		if readErr != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	c.t.Fatalf("server did not disconnect within %v", Timeout)
}

func (c *Client) readLoop() {
	buffer := make([]byte, wire.MaxMessageSize)
	oob := make([]byte, unix.CmsgSpace(wire.MaxFDsPerMessage*4))
	var pending []byte
	var fds []int
	for {
		n, oobn, _, _, err := c.conn.ReadMsgUnix(buffer, oob)
		n, oobn = max(n, 0), max(oobn, 0)
		if oobn > 0 {
			if messages, parseErr := unix.ParseSocketControlMessage(oob[:oobn]); parseErr == nil {
				for _, message := range messages {
					if rights, rightsErr := unix.ParseUnixRights(&message); rightsErr == nil {
						fds = append(fds, rights...)
					}
				}
			}
		}
		pending = append(pending, buffer[:n]...)
		pending, fds = c.decode(pending, fds)
		if err == nil && n == 0 {
			err = net.ErrClosed
		}
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			for _, fd := range fds {
				unix.Close(fd)
			}
			return
		}
	}
}

func (c *Client) decode(pending []byte, fds []int) ([]byte, []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		header, ok, err := wire.ParseHeader(pending)
		if err != nil || !ok || len(pending) < int(header.Size) {
			return pending, fds
		}
		body := pending[wire.HeaderSize:header.Size]
		pending = pending[header.Size:]

		iface := c.objects[header.Object]
		if iface == nil || int(header.Opcode) >= len(iface.Events) {
			continue
		}
		message := &iface.Events[header.Opcode]
		args, remaining, err := engine.DecodeArgs(message, body, fds)
		fds = remaining
		if err != nil {
			continue
		}
		event := Event{Object: header.Object, Interface: iface.Name, Name: message.Name, Args: args}
		for i, spec := range message.Args {
			switch spec.Type {
			case engine.ArgFD:
				unix.Close(args[i].(int))
			case engine.ArgNewID:
				if created, known := engine.LookupInterface(spec.Interface); known {
					c.objects[args[i].(uint32)] = created
				}
			}
		}
		c.track(event)
		c.events = append(c.events, event)
	}
}

func (c *Client) track(event Event) {
	switch {
	case event.Interface == "wl_display" && event.Name == "delete_id":
		delete(c.objects, event.Uint(0))
	case event.Interface == "wl_display" && event.Name == "error":
		c.errors = append(c.errors, event)
	case event.Interface == "wl_registry" && event.Name == "global":
		c.globals = append(c.globals, Global{Name: event.Uint(0), Interface: event.String(1), Version: event.Uint(2)})
	case event.Interface == "wl_registry" && event.Name == "global_remove":
		c.globals = slices.DeleteFunc(c.globals, func(g Global) bool { return g.Name == event.Uint(0) })
	}
}

// Find returns the events matching iface and name.
func Find(events []Event, iface, name string) []Event {
	var matches []Event
	for _, event := range events {
		if event.Interface == iface && event.Name == name {
			matches = append(matches, event)
		}
	}
	return matches
}
