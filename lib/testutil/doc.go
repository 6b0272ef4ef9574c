// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the package tests: short
// socket directories, bounded channel receives, and unique names.
package testutil
