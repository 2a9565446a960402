// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"strings"
	"testing"
)

func TestAssembleHitPattern(t *testing.T) {
	var frames [4]Frame
	for i := range frames {
		for w := 0; w < 8; w++ {
			// tag every payload word with its page and position.
			frames[i][w+2] = uint16(i<<8 | w)
		}
	}

	hp := PatternOf(frames)

	// page p, payload word w holds pattern word (31-8p)-w.
	for p := 0; p < 4; p++ {
		for w := 0; w < 8; w++ {
			idx := 31 - 8*p - w
			if got, want := hp[idx], uint16(p<<8|w); got != want {
				t.Errorf("word %d: got=0x%04x, want=0x%04x", idx, got, want)
			}
		}
	}
}

func TestHitPatternChannel(t *testing.T) {
	var hp HitPattern
	hp[0] = 0x0001  // channel 0
	hp[2] = 0x8000  // channel 47
	hp[31] = 0x0100 // channel 504

	for _, tc := range []struct {
		ch   int
		want bool
	}{
		{ch: 0, want: true},
		{ch: 1, want: false},
		{ch: 47, want: true},
		{ch: 46, want: false},
		{ch: 504, want: true},
		{ch: 511, want: false},
	} {
		if got := hp.Channel(tc.ch); got != tc.want {
			t.Errorf("channel %d: got=%v, want=%v", tc.ch, got, tc.want)
		}
	}
}

func TestHitPatternGrid(t *testing.T) {
	var hp HitPattern
	hp[24] = 0x8000 // top block, left module, column 3, top row
	hp[20] = 0x0001 // top block, right module, column 0, bottom row
	hp[0] = 0xffff  // bottom block, right module, all pixels

	grid := hp.Grid()
	lines := strings.Split(grid, "\n")

	// 5 blocks of 4 rows, separated by blank lines, trailing newline.
	if got, want := len(lines), 5*4+4+1; got != want {
		t.Fatalf("invalid number of lines: got=%d, want=%d", got, want)
	}

	if got, want := lines[0], " 0001 0000 0000 0000 0000"; got != want {
		t.Errorf("invalid top row:\ngot = %q\nwant= %q", got, want)
	}
	if got, want := lines[3], " 0000 0000 0000 0000 1000"; got != want {
		t.Errorf("invalid bottom row of top block:\ngot = %q\nwant= %q", got, want)
	}
	// blank separator between blocks.
	if got := lines[4]; got != "" {
		t.Errorf("expected a blank separator, got %q", got)
	}
	// bottom block rows all end with a fully lit module.
	for _, i := range []int{20, 21, 22, 23} {
		if !strings.HasSuffix(lines[i], " 1111") {
			t.Errorf("line %d should end with a lit module: %q", i, lines[i])
		}
	}
}
