// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the waybridge server configuration.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the WAYBRIDGE_CONFIG environment variable (via
// [Load]). There is no search path. The file format follows the
// extension:
//
//   - .yaml, .yml: YAML
//   - .json, .jsonc: JSON with comments and trailing commas
//   - .toml: TOML
//
// The file is merged over [Default], so a config only needs the keys
// it changes. After loading, ${VAR} and ${VAR:-default} references in
// path fields are expanded. ${XDG_RUNTIME_DIR} is the common one.
//
// Key exports:
//
//   - [Config] -- socket, buffers, capabilities, seats, outputs,
//     trace, control, logging
//   - [Default] -- the configuration used with no file at all
//   - [Load] and [LoadFile] -- the entry points
//   - [Config.Validate] -- parses formats and policies, reports every
//     problem at once
package config
