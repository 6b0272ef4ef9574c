// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/waybridge/lib/codec"
	"github.com/bureau-foundation/waybridge/lib/logging"
	"github.com/bureau-foundation/waybridge/lib/process"
	"github.com/bureau-foundation/waybridge/lib/version"
	"github.com/bureau-foundation/waybridge/registry"
	"github.com/bureau-foundation/waybridge/trace"
)

const usage = `usage:
  waybridge-trace inspect [--operations] [--raw] <trace>
  waybridge-trace replay [--json] <trace>
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return &process.ExitError{Code: 2, Err: errors.New(strings.TrimSpace(usage))}
	}
	switch args[0] {
	case "inspect":
		return inspect(args[1:], stdout)
	case "replay":
		return replay(args[1:], stdout)
	case "--version", "version":
		fmt.Fprintf(stdout, "waybridge-trace %s\n", version.Info())
		return nil
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return &process.ExitError{Code: 2, Err: fmt.Errorf("unknown command %q\n%s", args[0], usage)}
	}
}

// parsePath parses flags and returns the single trace path argument.
func parsePath(flagSet *pflag.FlagSet, args []string) (string, error) {
	if err := flagSet.Parse(args); err != nil {
		return "", &process.ExitError{Code: 2, Err: err}
	}
	if flagSet.NArg() != 1 {
		return "", &process.ExitError{Code: 2, Err: fmt.Errorf("%s takes exactly one trace path", flagSet.Name())}
	}
	return flagSet.Arg(0), nil
}

func inspect(args []string, stdout io.Writer) error {
	var showOperations, showRaw bool
	flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	flagSet.BoolVar(&showOperations, "operations", false, "print every operation in each frame")
	flagSet.BoolVar(&showRaw, "raw", false, "print each payload in CBOR diagnostic notation")
	path, err := parsePath(flagSet, args)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader, err := trace.NewReader(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	var frames, operations int
	for {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		frames++
		operations += len(frame.Operations)
		fmt.Fprintf(stdout, "frame %d offset=%d compression=%s raw=%d stored=%d operations=%d checksum=%s\n",
			frame.Index, frame.Offset, frame.Compression, frame.RawSize, frame.StoredSize,
			len(frame.Operations), hex.EncodeToString(frame.Checksum[:8]))
		if showOperations {
			for _, operation := range frame.Operations {
				fmt.Fprintf(stdout, "  %s\n", operation)
			}
		}
		if showRaw {
			diagnostic, err := codec.Diagnose(frame.Payload)
			if err != nil {
				return fmt.Errorf("frame %d: %w", frame.Index, err)
			}
			fmt.Fprintf(stdout, "  %s\n", diagnostic)
		}
	}
	fmt.Fprintf(stdout, "%d frames, %d operations\n", frames, operations)
	return nil
}

func replay(args []string, stdout io.Writer) error {
	var asJSON bool
	flagSet := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flagSet.BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	path, err := parsePath(flagSet, args)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	replayed, err := trace.Replay(file, logging.Discard())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	snapshot := replayed.Snapshot()
	if asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	}
	printSnapshot(stdout, snapshot)
	return nil
}

func printSnapshot(stdout io.Writer, snapshot registry.Snapshot) {
	if len(snapshot.Clients) == 0 {
		fmt.Fprintln(stdout, "no clients")
		return
	}
	for _, client := range snapshot.Clients {
		fmt.Fprintf(stdout, "%s\n", client.ID)
		for _, slot := range client.Slots {
			fmt.Fprintf(stdout, "  %-24s %d\n", slot.Kind, len(slot.Keys))
		}
		for _, seat := range client.Seats {
			fmt.Fprintf(stdout, "  wl_seat %s object=%d pointers=%d keyboards=%d touches=%d\n",
				seat.SeatID, seat.Key, len(seat.Pointers), len(seat.Keyboards), len(seat.Touches))
		}
	}
}
