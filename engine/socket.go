// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrNoRuntimeDir is returned when no runtime directory is known.
	ErrNoRuntimeDir = errors.New("engine: XDG_RUNTIME_DIR is not set")

	// ErrSocketInUse is returned when another server holds the lock
	// for a socket name.
	ErrSocketInUse = errors.New("engine: socket name in use")
)

// maxAutoSockets is how many wayland-N names AddSocketAuto tries.
const maxAutoSockets = 32

// sunPathMax is the usable length of sockaddr_un.sun_path.
const sunPathMax = 107

type socket struct {
	name     string
	path     string
	lockPath string
	listener *net.UnixListener
	lock     *os.File
}

// AddSocketAuto listens on the first free wayland-N in runtimeDir and
// returns the chosen name.
func (d *Display) AddSocketAuto(runtimeDir string) (string, error) {
	for i := range maxAutoSockets {
		name := fmt.Sprintf("wayland-%d", i)
		err := d.AddSocket(runtimeDir, name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrSocketInUse) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free socket name in %s after wayland-%d: %w", runtimeDir, maxAutoSockets-1, ErrSocketInUse)
}

// AddSocket listens on runtimeDir/name. The name is guarded by an
// exclusive flock on name.lock; holding the lock means any socket file
// already at the path is stale and is removed.
func (d *Display) AddSocket(runtimeDir, name string) error {
	if runtimeDir == "" {
		return ErrNoRuntimeDir
	}
	path := filepath.Join(runtimeDir, name)
	if len(path) > sunPathMax {
		return fmt.Errorf("socket path %s is longer than %d bytes", path, sunPathMax)
	}

	lockPath := path + ".lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o660)
	if err != nil {
		return fmt.Errorf("opening lock file %s: %w", lockPath, err)
	}
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lock.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, path)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		lock.Close()
		return fmt.Errorf("removing stale socket %s: %w", path, err)
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		lock.Close()
		return fmt.Errorf("listening on %s: %w", path, err)
	}
	listener.SetUnlinkOnClose(true)

	socket := &socket{name: name, path: path, lockPath: lockPath, listener: listener, lock: lock}
	d.sockets = append(d.sockets, socket)
	d.logger.Info("listening", "socket", path)

	d.group.Add(1)
	go d.acceptLoop(socket)
	return nil
}

// SocketNames returns the names of the listening sockets.
func (d *Display) SocketNames() []string {
	names := make([]string, 0, len(d.sockets))
	for _, socket := range d.sockets {
		names = append(names, socket.name)
	}
	return names
}

func (d *Display) acceptLoop(socket *socket) {
	defer d.group.Done()
	for {
		conn, err := socket.listener.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			d.logger.Error("accept failed", "socket", socket.path, "error", err)
			// Back off so that descriptor exhaustion does not spin.
			select {
			case <-d.clock.After(50 * time.Millisecond):
				continue
			case <-d.done:
				return
			}
		}
		in := accepted{conn: conn}
		select {
		case d.inbox <- in:
		case <-d.done:
			in.discard()
			return
		}
	}
}

func (s *socket) close() {
	s.listener.Close()
	os.Remove(s.lockPath)
	s.lock.Close()
}
