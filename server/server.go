// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bureau-foundation/waybridge/engine"
	"github.com/bureau-foundation/waybridge/lib/clock"
	"github.com/bureau-foundation/waybridge/lib/fourcc"
	"github.com/bureau-foundation/waybridge/lib/identity"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/registry"
)

// Server is a display server that tracks protocol objects and turns
// client activity into Events.
//
// A Server is not safe for concurrent use. Dispatch and every host
// operation must run on one goroutine.
type Server struct {
	logger  *slog.Logger
	clock   clock.Clock
	display *engine.Display
	state   *dispatchState
	trace   TraceSink

	runtimeDir string
	socketName string

	shmFormats    []fourcc.Format
	dmabufFormats []dmabufFormat

	seats   []*Seat
	outputs []*Output
	closed  bool
}

type dmabufFormat struct {
	format    fourcc.Format
	modifiers []fourcc.Modifier
}

// New creates a server and binds its socket. A socket that cannot be
// bound is returned as an error; nothing is left listening.
func New(options Options) (*Server, error) {
	logger := logging.OrDiscard(options.Logger)
	serverClock := options.Clock
	if serverClock == nil {
		serverClock = clock.Real()
	}
	identities := options.Identities
	if identities == nil {
		identities = identity.Process()
	}

	s := &Server{
		logger:     logger,
		clock:      serverClock,
		trace:      options.Trace,
		shmFormats: shmFormats(options.ShmFormats),
	}
	for _, entry := range options.DmabufFormats {
		s.dmabufFormats = append(s.dmabufFormats, dmabufFormat{format: entry.Format, modifiers: entry.Modifiers})
	}

	observer := options.Observer
	traceSink := options.Trace
	s.state = &dispatchState{
		server:     s,
		logger:     logger,
		identities: identities,
		policy:     options.DestructionPolicy,
		surfaces:   make(map[identity.SurfaceID]*engine.Resource),
		registry: registry.New[*engine.Resource](logger, func(operation registry.Operation) {
			if traceSink != nil {
				traceSink.Record(operation)
			}
			if observer != nil {
				observer(operation)
			}
		}),
	}

	s.display = engine.NewDisplay(logger, serverClock)
	s.display.OnClientCreated(clientCreated)
	s.display.OnClientDestroyed(clientDestroyed)

	s.runtimeDir = options.RuntimeDir
	if s.runtimeDir == "" {
		s.runtimeDir = os.Getenv("XDG_RUNTIME_DIR")
	}
	var err error
	if options.SocketName != "" {
		s.socketName = options.SocketName
		err = s.display.AddSocket(s.runtimeDir, options.SocketName)
	} else {
		s.socketName, err = s.display.AddSocketAuto(s.runtimeDir)
	}
	if err != nil {
		s.display.Close(s.state)
		return nil, fmt.Errorf("binding display socket: %w", err)
	}

	s.createGlobals(options.Capabilities)
	return s, nil
}

// shmFormats returns the advertised shm formats: the two mandatory
// ones first, then the configured extras without duplicates.
func shmFormats(configured []fourcc.Format) []fourcc.Format {
	formats := []fourcc.Format{fourcc.ARGB8888, fourcc.XRGB8888}
	for _, format := range configured {
		if !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	return formats
}

func (s *Server) createGlobals(capabilities Capabilities) {
	s.display.CreateGlobal(engine.CompositorInterface, 4, bindCompositor)
	s.display.CreateGlobal(engine.SubcompositorInterface, 1, bindSubcompositor)
	s.display.CreateGlobal(engine.ShellInterface, 1, bindShell)
	s.display.CreateGlobal(engine.ShmInterface, 1, bindShm)
	if capabilities.XdgShell {
		s.display.CreateGlobal(engine.XdgWmBaseInterface, 3, bindXdgWmBase)
	}
	if capabilities.DragAndDrop {
		s.display.CreateGlobal(engine.DataDeviceManagerInterface, 3, bindDataDeviceManager)
	}
	if capabilities.Dmabuf {
		s.display.CreateGlobal(engine.LinuxDmabufInterface, 3, bindDmabuf)
	}
	if capabilities.ExplicitSync {
		s.display.CreateGlobal(engine.LinuxExplicitSyncInterface, 2, bindExplicitSync)
	}
}

// SocketName returns the display socket name, suitable for
// WAYLAND_DISPLAY.
func (s *Server) SocketName() string { return s.socketName }

// SocketPath returns the absolute path of the display socket.
func (s *Server) SocketPath() string { return filepath.Join(s.runtimeDir, s.socketName) }

// Dispatch runs one cycle: flush pending output, wait up to budget
// for client input, handle it, and return every event produced since
// the previous call in emission order. Errors never escape: failing
// clients are logged and disconnected. Cancelling ctx ends the wait
// early.
func (s *Server) Dispatch(ctx context.Context, budget time.Duration) []Event {
	if s.closed {
		return nil
	}
	st := s.state
	st.closeDeferred()

	if err := s.display.FlushClients(st); err != nil {
		s.logger.Warn("flushing clients", "error", err)
	}
	if err := s.display.Dispatch(ctx, budget, st); err != nil && !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) {
		s.logger.Error("dispatching client input", "error", err)
	}
	// Replies to this cycle's requests go out now rather than at the
	// start of the next cycle.
	if err := s.display.FlushClients(st); err != nil {
		s.logger.Warn("flushing clients", "error", err)
	}

	if s.trace != nil {
		if err := s.trace.Flush(); err != nil {
			s.logger.Error("flushing operation trace", "error", err)
		}
	}
	return st.drain()
}

// Close disconnects every client and removes the socket. Events
// produced by the final teardown are discarded.
func (s *Server) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.display.Close(s.state)
	s.state.drain()
	s.state.closeDeferred()
	if s.trace != nil {
		if err := s.trace.Flush(); err != nil {
			s.logger.Error("flushing operation trace", "error", err)
		}
	}
}

// ClientInfo describes one connected client.
type ClientInfo struct {
	ID          identity.ClientID
	Credentials engine.Credentials
	Process     string
	Objects     int
}

// Clients describes the connected clients in connection order.
func (s *Server) Clients() []ClientInfo {
	var clients []ClientInfo
	for _, client := range s.display.Clients() {
		record, ok := s.state.registry.Record(client.UserData())
		if !ok {
			continue
		}
		info, _ := engine.Get[clientInfo](client.UserData())
		clients = append(clients, ClientInfo{
			ID:          record.ID(),
			Credentials: client.Credentials(),
			Process:     info.process,
			Objects:     len(client.Resources()),
		})
	}
	return clients
}

// Snapshot summarizes the client registries.
func (s *Server) Snapshot() registry.Snapshot { return s.state.registry.Snapshot() }

// Registry exposes the live registry for inspection. It must only be
// read on the dispatch goroutine.
func (s *Server) Registry() *registry.Registry[*engine.Resource] { return s.state.registry }

// SurfaceKind returns the role of a live surface.
func (s *Server) SurfaceKind(id identity.SurfaceID) (SurfaceKind, bool) {
	resource, ok := s.state.surfaces[id]
	if !ok {
		return SurfaceNone, false
	}
	return surfaceOf(resource).kind, true
}

// Surface returns the wl_surface resource for a live surface.
func (s *Server) Surface(id identity.SurfaceID) (*engine.Resource, bool) {
	resource, ok := s.state.surfaces[id]
	return resource, ok
}

func clientCreated(dispatch any, client *engine.Client) {
	st := state(dispatch)
	id := st.identities.NextClient()
	st.registry.InsertClient(client.UserData(), id)

	credentials := client.Credentials()
	process, err := credentials.ProcessName()
	if err != nil {
		st.logger.Debug("resolving client process", "client", id, "pid", credentials.PID, "error", err)
	}
	engine.Set(client.UserData(), clientInfo{process: process})
	st.logger.Info("client connected",
		"client", id,
		"pid", credentials.PID,
		"uid", credentials.UID,
		"process", process,
	)
}

func clientDestroyed(dispatch any, client *engine.Client) {
	st := state(dispatch)
	record, ok := st.registry.RemoveClient(client.UserData())
	if !ok {
		return
	}
	info, _ := engine.Get[clientInfo](client.UserData())
	st.logger.Info("client removed", "client", record.ID(), "process", info.process)
	if st.policy == DestructionReport {
		st.emit(ClientRemoved{Client: record.ID(), Credentials: client.Credentials(), Process: info.process})
	}
}
