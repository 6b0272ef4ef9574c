// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// SocketDir returns a fresh directory under /tmp for Unix sockets.
// t.TempDir paths can exceed the 108-byte sun_path limit, so socket
// tests use this instead. The directory is removed on cleanup.
func SocketDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "waybridge-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}

// RuntimeDir creates a socket directory and points XDG_RUNTIME_DIR at
// it for the duration of the test.
func RuntimeDir(t *testing.T) string {
	t.Helper()
	directory := SocketDir(t)
	t.Setenv("XDG_RUNTIME_DIR", directory)
	return directory
}
