// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

// Rect is a rectangle in surface-local coordinates.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

// xdg_positioner anchor and gravity values share one numbering.
const (
	edgeNone uint32 = iota
	edgeTop
	edgeBottom
	edgeLeft
	edgeRight
	edgeTopLeft
	edgeBottomLeft
	edgeTopRight
	edgeBottomRight
)

// Positioner is the accumulated state of an xdg_positioner, copied
// into popup requests at the time they are made.
type Positioner struct {
	Width, Height        int32
	AnchorRect           Rect
	Anchor               uint32
	Gravity              uint32
	ConstraintAdjustment uint32
	OffsetX, OffsetY     int32
	Reactive             bool
	ParentWidth          int32
	ParentHeight         int32
	ParentConfigure      uint32
}

// Complete reports whether the positioner has the size and anchor
// rectangle a popup requires.
func (p Positioner) Complete() bool {
	return p.Width > 0 && p.Height > 0 && p.AnchorRect.Width > 0 && p.AnchorRect.Height > 0
}

// Geometry places the popup relative to its parent. Constraint
// adjustment is not applied; there is no output layout to constrain
// against.
func (p Positioner) Geometry() Rect {
	anchor := p.AnchorRect
	x := anchor.X + anchor.Width/2
	y := anchor.Y + anchor.Height/2
	if hasLeft(p.Anchor) {
		x = anchor.X
	} else if hasRight(p.Anchor) {
		x = anchor.X + anchor.Width
	}
	if hasTop(p.Anchor) {
		y = anchor.Y
	} else if hasBottom(p.Anchor) {
		y = anchor.Y + anchor.Height
	}

	// Gravity is the direction the popup extends from the anchor
	// point.
	switch {
	case hasLeft(p.Gravity):
		x -= p.Width
	case !hasRight(p.Gravity):
		x -= p.Width / 2
	}
	switch {
	case hasTop(p.Gravity):
		y -= p.Height
	case !hasBottom(p.Gravity):
		y -= p.Height / 2
	}
	return Rect{X: x + p.OffsetX, Y: y + p.OffsetY, Width: p.Width, Height: p.Height}
}

func hasTop(edge uint32) bool    { return edge == edgeTop || edge == edgeTopLeft || edge == edgeTopRight }
func hasBottom(edge uint32) bool { return edge == edgeBottom || edge == edgeBottomLeft || edge == edgeBottomRight }
func hasLeft(edge uint32) bool   { return edge == edgeLeft || edge == edgeTopLeft || edge == edgeBottomLeft }
func hasRight(edge uint32) bool  { return edge == edgeRight || edge == edgeTopRight || edge == edgeBottomRight }
