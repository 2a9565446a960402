// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"fmt"
	"strings"
)

// HitPattern holds the 512 trigger pixel hits, 16 trigger groups per
// word. Trigger channel n lives at bit n%16 of word n/16.
type HitPattern [32]uint16

// PatternOf merges the four hit pattern page responses. Each frame
// carries 8 words in descending channel order, so the payload is
// reversed into the pattern.
func PatternOf(frames [4]Frame) HitPattern {
	var hp HitPattern
	for i := 0; i < 8; i++ {
		hp[31-i] = frames[0][i+2]
		hp[23-i] = frames[1][i+2]
		hp[15-i] = frames[2][i+2]
		hp[7-i] = frames[3][i+2]
	}
	return hp
}

// Channel reports whether trigger channel n (0-511) fired.
func (hp HitPattern) Channel(n int) bool {
	return hp[n/16]>>(n%16)&1 == 1
}

// Grid renders the hits in camera layout.
//
// Modules are drawn in five rows of five, words descending left to
// right within a row; each module is a 4x4 pixel block whose columns
// are the word's nibbles and whose top row holds bit 3 of each
// nibble. Words 25-31 map to unpopulated slots and are not drawn.
func (hp HitPattern) Grid() string {
	o := new(strings.Builder)
	for blk := 0; blk < 5; blk++ {
		if blk > 0 {
			fmt.Fprintf(o, "\n")
		}
		hi := 24 - 5*blk
		for row := 0; row < 4; row++ {
			for w := hi; w > hi-5; w-- {
				fmt.Fprintf(o, " ")
				for col := 0; col < 4; col++ {
					bit := 4*col + (3 - row)
					fmt.Fprintf(o, "%x", hp[w]>>bit&1)
				}
			}
			fmt.Fprintf(o, "\n")
		}
	}
	return o.String()
}
