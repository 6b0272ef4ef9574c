// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/waybridge/server"
)

// logEvent writes one dispatch event. Commits and acquire fences come
// once per frame, so they log at debug.
func logEvent(logger *slog.Logger, event server.Event) {
	level := slog.LevelInfo
	switch typed := event.(type) {
	case server.Commit:
		level = slog.LevelDebug
	case server.ExplicitSync:
		if typed.Action == server.SyncAcquireFence {
			level = slog.LevelDebug
		}
	}
	logger.LogAttrs(context.Background(), level, event.Kind().String(), eventAttrs(event)...)
}

func eventAttrs(event server.Event) []slog.Attr {
	switch typed := event.(type) {
	case server.Instantiation:
		attrs := []slog.Attr{
			slog.String("interface", typed.Interface),
			slog.Uint64("version", uint64(typed.Version)),
			slog.String("slot", typed.Slot.String()),
			slog.String("client", typed.Client.String()),
		}
		if typed.Surface.Valid() {
			attrs = append(attrs, slog.String("surface", typed.Surface.String()))
		}
		return attrs
	case server.Destruction:
		return []slog.Attr{
			slog.String("interface", typed.Interface),
			slog.String("slot", typed.Slot.String()),
			slog.String("client", typed.Client.String()),
		}
	case server.ClientRemoved:
		return []slog.Attr{
			slog.String("client", typed.Client.String()),
			slog.Int("pid", int(typed.Credentials.PID)),
			slog.String("process", typed.Process),
		}
	case server.Commit:
		return []slog.Attr{
			slog.String("surface", typed.Surface.String()),
			slog.String("role", typed.SurfaceKind.String()),
			slog.Bool("attached", typed.Attached),
		}
	case server.ShellRequest:
		attrs := []slog.Attr{
			slog.String("request", typed.Request.String()),
			slog.String("surface", typed.Surface.String()),
		}
		if typed.Text != "" {
			attrs = append(attrs, slog.String("text", typed.Text))
		}
		return attrs
	case server.SeatEvent:
		return []slog.Attr{
			slog.String("change", typed.Change.String()),
			slog.String("seat", typed.Seat.String()),
			slog.String("surface", typed.Surface.String()),
		}
	case server.BufferImport:
		return []slog.Attr{
			slog.String("format", typed.Format.String()),
			slog.Int("width", int(typed.Width)),
			slog.Int("height", int(typed.Height)),
			slog.Int("planes", len(typed.Planes)),
			slog.Bool("immediate", typed.Immediate),
		}
	case server.DragAndDrop:
		return []slog.Attr{
			slog.String("action", typed.Action.String()),
			slog.String("seat", typed.Seat.String()),
			slog.Any("mime_types", typed.MimeTypes),
		}
	case server.ExplicitSync:
		return []slog.Attr{
			slog.String("action", typed.Action.String()),
			slog.String("surface", typed.Surface.String()),
		}
	default:
		return nil
	}
}
