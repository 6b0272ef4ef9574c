// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"

	"github.com/shirou/gopsutil/v3/process"
)

// Credentials identifies the process on the other end of a client
// connection. Zero values mean the platform did not report them.
type Credentials struct {
	PID int32
	UID uint32
	GID uint32
}

// ProcessName looks up the executable name of the peer process. The
// process may have exited since it connected.
func (c Credentials) ProcessName() (string, error) {
	if c.PID <= 0 {
		return "", errors.New("peer pid unknown")
	}
	peer, err := process.NewProcess(c.PID)
	if err != nil {
		return "", err
	}
	return peer.Name()
}
