// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package engine

import (
	"errors"
	"net"
)

func peerCredentials(*net.UnixConn) (Credentials, error) {
	return Credentials{}, errors.New("peer credentials are only available on linux")
}
