// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// TriggerMask holds one 16-bit trigger enable word per module slot.
// A bit set to 1 disables the corresponding trigger group; the idle
// mask is all ones.
type TriggerMask [32]uint16

// NewTriggerMask returns a mask with every trigger group disabled.
func NewTriggerMask() TriggerMask {
	var m TriggerMask
	for i := range m {
		m[i] = 0xffff
	}
	return m
}

// SingleGroupMask enables exactly one trigger group of one ASIC of one
// module and disables everything else.
//
// The bit position is not a plain group<<asic*4 shuffle: the TFPGA
// interleaves the groups of even/odd ASIC pairs across nibbles, so
// half the groups land in the neighbouring ASIC's nibble.
func SingleGroupMask(module, asic, group int) (TriggerMask, error) {
	if module < 0 || module > 31 {
		return TriggerMask{}, fmt.Errorf("bp: invalid module %d (want 0-31)", module)
	}
	if asic < 0 || asic > 3 {
		return TriggerMask{}, fmt.Errorf("bp: invalid asic %d (want 0-3)", asic)
	}
	if group < 0 || group > 3 {
		return TriggerMask{}, fmt.Errorf("bp: invalid group %d (want 0-3)", group)
	}

	var w int
	switch {
	case asic%2 == 0 && group < 2:
		w = 0xffff &^ ((0xf & (0x1 << group)) << (asic * 4))
	case asic%2 == 0:
		w = 0xffff &^ ((0xf & (0x1 << (group - 2))) << ((asic + 1) * 4))
	case group > 1:
		w = 0xffff &^ ((0xf & (0x1 << group)) << (asic * 4))
	default:
		w = 0xffff &^ ((0xf & (0x1 << (group + 2))) << ((asic - 1) * 4))
	}

	mask := NewTriggerMask()
	mask[module] = uint16(w)
	return mask, nil
}

// MaskFromPattern builds a mask from a 32-character pattern, one
// character per module slot: '1' enables all trigger groups of the
// slot, anything else leaves the slot disabled.
func MaskFromPattern(pattern string) (TriggerMask, error) {
	if len(pattern) != 32 {
		return TriggerMask{}, fmt.Errorf(
			"bp: invalid mask pattern length %d (want 32)", len(pattern),
		)
	}
	mask := NewTriggerMask()
	for i, c := range pattern {
		if c == '1' {
			mask[i] = 0x0000
		}
	}
	return mask, nil
}

// ReadMaskFile loads a mask from a whitespace-separated file of
// exactly 32 hexadecimal words, one per module slot.
func ReadMaskFile(fname string) (TriggerMask, error) {
	f, err := os.Open(fname)
	if err != nil {
		return TriggerMask{}, fmt.Errorf("bp: could not open mask file: %w", err)
	}
	defer f.Close()

	var mask TriggerMask
	scan := bufio.NewScanner(f)
	scan.Split(bufio.ScanWords)
	i := 0
	for scan.Scan() {
		if i >= len(mask) {
			return TriggerMask{}, fmt.Errorf(
				"bp: too many words in mask file %q (want 32)", fname,
			)
		}
		v, err := strconv.ParseUint(scan.Text(), 16, 16)
		if err != nil {
			return TriggerMask{}, fmt.Errorf(
				"bp: invalid mask word %q in %q: %w", scan.Text(), fname, err,
			)
		}
		mask[i] = uint16(v)
		i++
	}
	if err := scan.Err(); err != nil {
		return TriggerMask{}, fmt.Errorf("bp: could not read mask file %q: %w", fname, err)
	}
	if i != len(mask) {
		return TriggerMask{}, fmt.Errorf(
			"bp: short mask file %q: got %d words, want 32", fname, i,
		)
	}
	return mask, nil
}
