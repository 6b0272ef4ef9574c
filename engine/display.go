// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine/wire"
	"github.com/bureau-foundation/waybridge/lib/clock"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("engine: display closed")

// inboxSize bounds how far socket goroutines can run ahead of the
// dispatch goroutine.
const inboxSize = 256

// ClientFunc observes client creation or destruction.
type ClientFunc func(dispatch any, client *Client)

// Display owns the listening sockets, the connected clients, and the
// globals advertised to them.
//
// Display is not safe for concurrent use. All methods, and every
// callback the Display invokes, run on the goroutine that calls
// Dispatch. Socket I/O happens on internal goroutines that only hand
// bytes to the dispatch goroutine through a channel.
type Display struct {
	logger *slog.Logger
	clock  clock.Clock

	inbox chan input
	done  chan struct{}
	group sync.WaitGroup

	sockets []*socket
	clients []*Client

	globals        []*Global
	removedGlobals map[uint32]*Global
	nextGlobal     uint32

	nextKey ObjectKey
	serial  uint32

	clientCreated   ClientFunc
	clientDestroyed ClientFunc
	closed          bool
}

// NewDisplay creates a display with no sockets and no globals.
func NewDisplay(logger *slog.Logger, clock clock.Clock) *Display {
	return &Display{
		logger:         logger,
		clock:          clock,
		inbox:          make(chan input, inboxSize),
		done:           make(chan struct{}),
		removedGlobals: make(map[uint32]*Global),
	}
}

// OnClientCreated registers the hook run once per accepted client,
// before any of its requests are dispatched.
func (d *Display) OnClientCreated(hook ClientFunc) { d.clientCreated = hook }

// OnClientDestroyed registers the hook run once per client after all
// of its resources have been destroyed.
func (d *Display) OnClientDestroyed(hook ClientFunc) { d.clientDestroyed = hook }

// NextSerial returns a fresh event serial.
func (d *Display) NextSerial() uint32 {
	d.serial++
	return d.serial
}

// Clients returns the connected clients in accept order.
func (d *Display) Clients() []*Client { return slices.Clone(d.clients) }

// Dispatch processes pending client input. If nothing is pending it
// waits up to budget for input to arrive, measured on the display's
// clock. A zero budget never waits. Callbacks run synchronously on
// the calling goroutine and receive dispatch unchanged.
func (d *Display) Dispatch(ctx context.Context, budget time.Duration, dispatch any) error {
	if d.closed {
		return ErrClosed
	}
	if d.drain(dispatch) > 0 || budget <= 0 {
		return nil
	}

	timer := d.clock.NewTimer(budget)
	defer timer.Stop()
	select {
	case in := <-d.inbox:
		in.handle(d, dispatch)
		d.drain(dispatch)
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// drain handles inputs already queued, bounded so that a flooding
// client cannot starve the caller.
func (d *Display) drain(dispatch any) int {
	for handled := range inboxSize {
		select {
		case in := <-d.inbox:
			in.handle(d, dispatch)
		default:
			return handled
		}
	}
	return inboxSize
}

// FlushClients writes every client's queued events. A client whose
// write fails, or that was scheduled for disconnect, is destroyed.
// Write failures are returned joined; they never affect other clients.
func (d *Display) FlushClients(dispatch any) error {
	var errs []error
	for _, client := range slices.Clone(d.clients) {
		if err := client.flush(); err != nil {
			errs = append(errs, fmt.Errorf("flushing %s: %w", client, err))
			client.Disconnect(err)
		}
		if client.closing != nil {
			d.destroyClient(dispatch, client)
		}
	}
	return errors.Join(errs...)
}

// Close destroys every client, closes the sockets, and waits for the
// socket goroutines to exit.
func (d *Display) Close(dispatch any) {
	if d.closed {
		return
	}
	d.closed = true
	for _, socket := range d.sockets {
		socket.close()
	}
	for _, client := range slices.Clone(d.clients) {
		_ = client.flush()
		d.destroyClient(dispatch, client)
	}
	close(d.done)
	d.group.Wait()

	// Anything that raced into the inbox carries descriptors.
	for {
		select {
		case in := <-d.inbox:
			in.discard()
		default:
			return
		}
	}
}

func (d *Display) destroyClient(dispatch any, client *Client) {
	if client.destroyed {
		return
	}
	client.destroyed = true
	client.destroying = true
	client.conn.Close()

	resources := client.Resources()
	for i := len(resources) - 1; i >= 0; i-- {
		resources[i].Destroy(dispatch)
	}
	client.objects = map[uint32]*Resource{}
	closeFDs(client.inFDs)
	client.inFDs = nil
	for _, pending := range client.out {
		closeFDs(pending.FDs)
	}
	client.out = nil

	if d.clientDestroyed != nil {
		d.clientDestroyed(dispatch, client)
	}
	d.clients = slices.DeleteFunc(d.clients, func(c *Client) bool { return c == client })

	if client.closing != nil && !errors.Is(client.closing, io.EOF) {
		d.logger.Info("client disconnected", "client", client.String(), "reason", client.closing)
	} else {
		d.logger.Debug("client disconnected", "client", client.String())
	}
}

// input is one unit of work handed from a socket goroutine.
type input interface {
	handle(d *Display, dispatch any)
	discard()
}

type accepted struct {
	conn *net.UnixConn
}

func (a accepted) handle(d *Display, dispatch any) {
	client := newClient(d, a.conn)
	d.clients = append(d.clients, client)
	client.displayResource = client.newResource(displayObjectID, DisplayInterface, 1)
	client.displayResource.Assign(handleDisplayRequest)

	d.logger.Debug("client connected",
		"client", client.String(),
		"uid", client.credentials.UID,
	)
	if d.clientCreated != nil {
		d.clientCreated(dispatch, client)
	}

	d.group.Add(1)
	go d.readLoop(client)
}

func (a accepted) discard() { a.conn.Close() }

type received struct {
	client *Client
	data   []byte
	fds    []int
	err    error
}

func (r received) handle(d *Display, dispatch any) {
	if r.client.destroyed {
		closeFDs(r.fds)
		return
	}
	if len(r.data) > 0 || len(r.fds) > 0 {
		r.client.receive(dispatch, r.data, r.fds)
	}
	if r.err != nil {
		r.client.Disconnect(r.err)
		d.destroyClient(dispatch, r.client)
	}
}

func (r received) discard() { closeFDs(r.fds) }

func (d *Display) readLoop(client *Client) {
	defer d.group.Done()

	buffer := make([]byte, wire.MaxMessageSize)
	oob := make([]byte, unix.CmsgSpace(wire.MaxFDsPerMessage*4))
	for {
		n, oobn, _, _, err := client.conn.ReadMsgUnix(buffer, oob)
		// A failed read reports -1 for both counts.
		n, oobn = max(n, 0), max(oobn, 0)
		var fds []int
		if oobn > 0 {
			fds = parseRights(oob[:oobn])
		}
		if n == 0 && err == nil {
			err = io.EOF
		}
		chunk := received{client: client, data: append([]byte(nil), buffer[:n]...), fds: fds, err: err}
		select {
		case d.inbox <- chunk:
		case <-d.done:
			chunk.discard()
			return
		}
		if err != nil {
			return
		}
	}
}

func parseRights(oob []byte) []int {
	messages, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil
	}
	var fds []int
	for _, message := range messages {
		rights, err := unix.ParseUnixRights(&message)
		if err != nil {
			continue
		}
		for _, fd := range rights {
			unix.CloseOnExec(fd)
		}
		fds = append(fds, rights...)
	}
	return fds
}

// handleDisplayRequest implements wl_display.
func handleDisplayRequest(dispatch any, resource *Resource, request *Request) {
	client := resource.client
	display := client.display
	switch request.Name() {
	case "sync":
		callback := request.NewResource(0)
		if err := callback.Send("done", display.NextSerial()); err != nil {
			display.logger.Debug("sending wl_callback.done", "error", err)
		}
		callback.Destroy(dispatch)
	case "get_registry":
		registry := request.NewResource(0)
		registry.Assign(handleRegistryRequest)
		registry.AssignDestructor(func(_ any, registry *Resource) {
			client.registries = slices.DeleteFunc(client.registries, registry.Equal)
		})
		client.registries = append(client.registries, registry)
		for _, global := range display.globals {
			global.announce(registry)
		}
	}
}
