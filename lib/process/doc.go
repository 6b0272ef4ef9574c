// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers used by main functions
// before a structured logger exists or after run has already failed.
package process
