// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fourcc

import "testing"

func TestCodeMatchesDRM(t *testing.T) {
	// drm_fourcc.h: DRM_FORMAT_ARGB8888 = fourcc_code('A', 'R', '2', '4').
	if ARGB8888 != 0x34325241 {
		t.Fatalf("ARGB8888 = %#x, want 0x34325241", uint32(ARGB8888))
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"argb8888", ARGB8888},
		{"XRGB8888", XRGB8888},
		{"NV12", NV12},
		{"AB24", ABGR8888},
		{"0x34325241", ARGB8888},
	}
	for _, test := range tests {
		got, err := Parse(test.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", test.input, err)
		}
		if got != test.want {
			t.Fatalf("Parse(%q) = %v, want %v", test.input, got, test.want)
		}
	}
	if _, err := Parse("not-a-format"); err == nil {
		t.Fatal("Parse accepted an unknown name")
	}
}

func TestShmMapping(t *testing.T) {
	if got := ShmCode(ARGB8888); got != 0 {
		t.Fatalf("ShmCode(ARGB8888) = %d, want 0", got)
	}
	if got := ShmCode(XRGB8888); got != 1 {
		t.Fatalf("ShmCode(XRGB8888) = %d, want 1", got)
	}
	if got := ShmCode(RGB565); got != Shm(RGB565) {
		t.Fatalf("ShmCode(RGB565) = %#x, want the fourcc", uint32(got))
	}
	for _, format := range []Format{ARGB8888, XRGB8888, NV12} {
		if got := ShmCode(format).DRM(); got != format {
			t.Fatalf("ShmCode(%v).DRM() = %v", format, got)
		}
	}
}

func TestModifierHalves(t *testing.T) {
	modifier := Modifier(0x0100000000000002)
	if got := JoinModifier(modifier.Hi(), modifier.Lo()); got != modifier {
		t.Fatalf("JoinModifier = %v, want %v", got, modifier)
	}
	if got, err := ParseModifier("linear"); err != nil || got != ModifierLinear {
		t.Fatalf("ParseModifier(linear) = %v, %v", got, err)
	}
	if ModifierInvalid.String() != "invalid" {
		t.Fatalf("ModifierInvalid.String() = %q", ModifierInvalid.String())
	}
}
