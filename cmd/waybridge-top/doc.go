// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Waybridge-top is a live terminal view of a running waybridge. It
// polls the control socket for the server status and shows connected
// clients, the objects each one holds, and the host seats and outputs.
package main
