// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSingleGroupMask(t *testing.T) {
	for _, tc := range []struct {
		module, asic, group int
		want                uint16
	}{
		// even ASIC, low group: plain nibble shift.
		{module: 5, asic: 2, group: 1, want: 0xfdff},
		{module: 0, asic: 0, group: 0, want: 0xfffe},
		{module: 0, asic: 0, group: 1, want: 0xfffd},
		// even ASIC, high group: lands in the next nibble.
		{module: 0, asic: 0, group: 2, want: 0xffef},
		{module: 0, asic: 0, group: 3, want: 0xffdf},
		// odd ASIC, low group: lands in the previous nibble.
		{module: 3, asic: 3, group: 0, want: 0xfbff},
		{module: 0, asic: 1, group: 0, want: 0xfffb},
		{module: 0, asic: 1, group: 1, want: 0xfff7},
		// odd ASIC, high group: plain nibble shift.
		{module: 0, asic: 1, group: 2, want: 0xffbf},
		{module: 0, asic: 1, group: 3, want: 0xff7f},
	} {
		mask, err := SingleGroupMask(tc.module, tc.asic, tc.group)
		if err != nil {
			t.Fatalf("module=%d asic=%d group=%d: %+v", tc.module, tc.asic, tc.group, err)
		}
		if got := mask[tc.module]; got != tc.want {
			t.Errorf(
				"module=%d asic=%d group=%d: got=0x%04x, want=0x%04x",
				tc.module, tc.asic, tc.group, got, tc.want,
			)
		}
		for i, w := range mask {
			if i != tc.module && w != 0xffff {
				t.Errorf(
					"module=%d asic=%d group=%d: slot %d not masked off (0x%04x)",
					tc.module, tc.asic, tc.group, i, w,
				)
			}
		}
	}
}

func TestSingleGroupMaskInvalid(t *testing.T) {
	for _, tc := range []struct{ module, asic, group int }{
		{module: 32, asic: 0, group: 0},
		{module: -1, asic: 0, group: 0},
		{module: 0, asic: 4, group: 0},
		{module: 0, asic: 0, group: 4},
	} {
		_, err := SingleGroupMask(tc.module, tc.asic, tc.group)
		if err == nil {
			t.Errorf(
				"module=%d asic=%d group=%d: expected an error",
				tc.module, tc.asic, tc.group,
			)
		}
	}
}

func TestMaskFromPattern(t *testing.T) {
	pattern := "10000000010000000000000000000001"
	mask, err := MaskFromPattern(pattern)
	if err != nil {
		t.Fatalf("could not build mask: %+v", err)
	}
	for i, c := range pattern {
		want := uint16(0xffff)
		if c == '1' {
			want = 0x0000
		}
		if mask[i] != want {
			t.Errorf("slot %d: got=0x%04x, want=0x%04x", i, mask[i], want)
		}
	}

	if _, err := MaskFromPattern("101"); err == nil {
		t.Fatalf("expected an error for a short pattern")
	}
}

func TestReadMaskFile(t *testing.T) {
	dir := t.TempDir()

	words := make([]string, 32)
	for i := range words {
		words[i] = "ffff"
	}
	words[3] = "0000"
	words[17] = "fdff"

	fname := filepath.Join(dir, "mask.txt")
	err := os.WriteFile(fname, []byte(strings.Join(words, "\n")+"\n"), 0644)
	if err != nil {
		t.Fatalf("could not write mask file: %+v", err)
	}

	mask, err := ReadMaskFile(fname)
	if err != nil {
		t.Fatalf("could not read mask file: %+v", err)
	}
	if got, want := mask[3], uint16(0x0000); got != want {
		t.Errorf("slot 3: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := mask[17], uint16(0xfdff); got != want {
		t.Errorf("slot 17: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := mask[0], uint16(0xffff); got != want {
		t.Errorf("slot 0: got=0x%04x, want=0x%04x", got, want)
	}
}

func TestReadMaskFileInvalid(t *testing.T) {
	dir := t.TempDir()

	for _, tc := range []struct {
		name string
		data string
	}{
		{name: "short", data: "ffff ffff ffff\n"},
		{name: "long", data: strings.Repeat("ffff ", 33)},
		{name: "badword", data: strings.Repeat("ffff ", 31) + "zzzz"},
		{name: "overflow", data: strings.Repeat("ffff ", 31) + "1ffff"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(dir, tc.name)
			err := os.WriteFile(fname, []byte(tc.data), 0644)
			if err != nil {
				t.Fatalf("could not write mask file: %+v", err)
			}
			if _, err := ReadMaskFile(fname); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	if _, err := ReadMaskFile(filepath.Join(dir, "not-there")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
