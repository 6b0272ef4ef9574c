// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import "testing"

func TestPositionerGeometry(t *testing.T) {
	anchor := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	tests := []struct {
		name       string
		positioner Positioner
		want       Rect
	}{
		{
			name:       "centered",
			positioner: Positioner{Width: 40, Height: 30, AnchorRect: anchor},
			want:       Rect{X: 40, Y: 30, Width: 40, Height: 30},
		},
		{
			name:       "below right",
			positioner: Positioner{Width: 40, Height: 30, AnchorRect: anchor, Anchor: edgeBottomRight, Gravity: edgeBottomRight},
			want:       Rect{X: 110, Y: 70, Width: 40, Height: 30},
		},
		{
			name: "above left with offset",
			positioner: Positioner{
				Width: 40, Height: 30, AnchorRect: anchor,
				Anchor: edgeTopLeft, Gravity: edgeTopLeft,
				OffsetX: 2, OffsetY: 3,
			},
			want: Rect{X: -28, Y: -7, Width: 40, Height: 30},
		},
		{
			name:       "dropdown",
			positioner: Positioner{Width: 40, Height: 30, AnchorRect: anchor, Anchor: edgeBottom, Gravity: edgeBottom},
			want:       Rect{X: 40, Y: 70, Width: 40, Height: 30},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.positioner.Geometry(); got != test.want {
				t.Fatalf("Geometry() = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestPositionerComplete(t *testing.T) {
	if (Positioner{Width: 10, Height: 10}).Complete() {
		t.Fatalf("positioner without an anchor rect is complete")
	}
	if (Positioner{AnchorRect: Rect{Width: 1, Height: 1}}).Complete() {
		t.Fatalf("positioner without a size is complete")
	}
	if !(Positioner{Width: 10, Height: 10, AnchorRect: Rect{Width: 1, Height: 1}}).Complete() {
		t.Fatalf("positioner with size and anchor rect is incomplete")
	}
}
