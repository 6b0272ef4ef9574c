// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/waybridge/lib/config"
	"github.com/bureau-foundation/waybridge/lib/process"
	"github.com/bureau-foundation/waybridge/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		socketPath  string
		configPath  string
		interval    time.Duration
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("waybridge-top", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", "", "control socket path (default: control.socket_path from the config)")
	flagSet.StringVar(&configPath, "config", "", "config file to read control.socket_path from (default: $"+config.EnvVar+")")
	flagSet.DurationVar(&interval, "interval", time.Second, "polling interval")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &process.ExitError{Code: 2, Err: err}
	}
	if showVersion {
		fmt.Printf("waybridge-top %s\n", version.Info())
		return nil
	}

	if socketPath == "" {
		path, err := configuredSocket(configPath)
		if err != nil {
			return err
		}
		socketPath = path
	}
	if interval <= 0 {
		return &process.ExitError{Code: 2, Err: fmt.Errorf("--interval %v must be positive", interval)}
	}

	// Honor NO_COLOR and CLICOLOR_FORCE before the alt screen hides
	// whether stdout is a terminal.
	lipgloss.SetColorProfile(termenv.EnvColorProfile())

	program := tea.NewProgram(newModel(socketPath, interval), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// configuredSocket reads the control socket path from the config
// waybridge itself would load.
func configuredSocket(configPath string) (string, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", fmt.Errorf("%w (or pass --socket)", err)
	}
	if cfg.Control.SocketPath == "" {
		return "", errors.New("control.socket_path is not set in the config; pass --socket")
	}
	return cfg.Control.SocketPath, nil
}
