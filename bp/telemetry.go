// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"fmt"
	"strings"
)

// ADC scale factors, from the backplane housekeeping calibration.
const (
	voltsPerADC = 0.006158 // FEE 12V rail
	ampsPerADC  = 0.00117  // FEE 12V current
)

// CounterResetOffset is subtracted from the raw TACK and hardware
// trigger counters: the TFPGA registers one extra count on reset.
const CounterResetOffset = 1

// feeSlots maps the 8 payload words of the four FEE housekeeping
// read-out frames to backplane slot numbers. The ADC multiplexer scan
// order does not follow the connector numbering.
var feeSlots = [4][8]int{
	{5, 12, 6, 17, 7, 13, 11, 18},
	{4, 10, 1, 0, 3, 2, 16, 22},
	{28, 24, 30, 23, 31, 29, 26, 25},
	{20, 8, 27, 15, 9, 19, 21, 14},
}

// feeGrid lays the 32 slots out the way the modules sit in the camera
// frame, 5 rows of 5. Slots j32 and j22 share a jumper, so slot 22
// closes the last row; slots 0-4, 10 and 16 are not populated.
var feeGrid = [5][5]int{
	{5, 6, 7, 8, 9},
	{11, 12, 13, 14, 15},
	{17, 18, 19, 20, 21},
	{23, 24, 25, 26, 27},
	{28, 29, 30, 31, 22},
}

// FEEReadings holds one calibrated value per backplane slot.
type FEEReadings [32]float64

// decodeFEE assembles slot readings from the four read-out frames,
// applying the slot shuffle and the given ADC scale.
func decodeFEE(frames [4]Frame, scale float64) FEEReadings {
	var out FEEReadings
	for i, frame := range frames {
		for w, slot := range feeSlots[i] {
			out[slot] = float64(frame[w+2]) * scale
		}
	}
	return out
}

// Grid renders the readings in camera layout, 5 rows of 5 slots.
func (r FEEReadings) Grid() string {
	o := new(strings.Builder)
	for _, row := range feeGrid {
		for _, slot := range row {
			fmt.Fprintf(o, "%5.2f  ", r[slot])
		}
		fmt.Fprintf(o, "\n")
	}
	return o.String()
}

// FEEPresence reports which front-end modules the HKFPGA sees and
// which have their 12V rail switched on.
type FEEPresence struct {
	Present [2]uint16 // bit i of word 0: slot i; word 1: slot 16+i
	Power   [2]uint16
}

// IsPresent reports whether a module is detected in the slot.
func (p FEEPresence) IsPresent(slot int) bool {
	return p.Present[slot/16]>>(slot%16)&1 == 1
}

// IsPowered reports whether the slot's 12V rail is on.
func (p FEEPresence) IsPowered(slot int) bool {
	return p.Power[slot/16]>>(slot%16)&1 == 1
}

// Grid renders the presence bits in camera layout.
func (p FEEPresence) Grid() string {
	o := new(strings.Builder)
	for _, row := range feeGrid {
		for _, slot := range row {
			v := 0
			if p.IsPresent(slot) {
				v = 1
			}
			fmt.Fprintf(o, "%x ", v)
		}
		fmt.Fprintf(o, "\n")
	}
	return o.String()
}

// Power board rail scales, in ADC scan order: 1V0_I, 3v3_I, 3V3, 1V0,
// 2V5CLK, 2V5, 2V5_I, 2V5CLK_I.
var pwbScale = [8]float64{
	0.00252, 0.00126, 0.00123, 0.00122,
	0.00122, 0.001225, 0.00252, 0.00126,
}

// PowerBoard holds the calibrated power board housekeeping rails.
type PowerBoard [8]float64

func decodePowerBoard(f Frame) PowerBoard {
	var pb PowerBoard
	for i := range pb {
		pb[i] = float64(f[i+2]) * pwbScale[i]
	}
	return pb
}

func (pb PowerBoard) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, " 1V0_I  3v3_I   3V3   1V0 2V5CLK   2V5  2V5_I 2V5CLK_I\n")
	fmt.Fprintf(o, " %5.2f  %5.2f %5.2f %5.2f  %5.2f %5.2f  %5.2f    %5.2f\n",
		pb[0], pb[1], pb[2], pb[3], pb[4], pb[5], pb[6], pb[7],
	)
	return o.String()
}

// Environment channel scales, in ADC scan order: DACQ1_I, DACQ2_I,
// FEE33_I, FEE33_V, ENV1-4.
var envScale = [8]float64{
	0.00126, 0.00126, 0.00117, 0.006167,
	0.001, 0.001, 0.001, 0.001,
}

// Env holds the calibrated environmental housekeeping channels: the
// DACQ board currents, the FEE 3.3V rail, and the four raw
// environment sensor inputs.
type Env [8]float64

func decodeEnv(f Frame) Env {
	var env Env
	for i := range env {
		env[i] = float64(f[i+2]) * envScale[i]
	}
	return env
}

func (env Env) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, " DACQ1_I DACQ2_I FEE33_I FEE33_V   ENV1  ENV2  ENV3  ENV4\n")
	fmt.Fprintf(o, "   %5.2f   %5.2f   %5.2f   %5.2f  %5.2f %5.2f %5.2f %5.2f\n",
		env[0], env[1], env[2], env[3], env[4], env[5], env[6], env[7],
	)
	return o.String()
}

// TriggerStats is the decoded READ_nsTimer response: the free-running
// nanosecond timer and the TACK and hardware trigger counters since
// the last reset.
type TriggerStats struct {
	NsTime     uint64
	Tacks      uint32
	HWTriggers uint32
}

func decodeTriggerStats(f Frame) TriggerStats {
	return TriggerStats{
		NsTime: uint64(f[2])<<48 | uint64(f[3])<<32 |
			uint64(f[4])<<16 | uint64(f[5]),
		Tacks:      (uint32(f[6])<<16 | uint32(f[7])) - CounterResetOffset,
		HWTriggers: (uint32(f[8])<<16 | uint32(f[9])) - CounterResetOffset,
	}
}

// TackRate returns the mean TACK rate in Hz since the counter reset.
func (st TriggerStats) TackRate() float64 {
	return rate(st.Tacks, st.NsTime)
}

// HWRate returns the mean hardware trigger rate in Hz.
func (st TriggerStats) HWRate() float64 {
	return rate(st.HWTriggers, st.NsTime)
}

func rate(n uint32, ns uint64) float64 {
	if ns == 0 {
		return 0
	}
	return float64(n) / (float64(ns) * 1e-9)
}

func (st TriggerStats) String() string {
	o := new(strings.Builder)
	fmt.Fprintf(o, "nsTimer %d ns\n", st.NsTime)
	fmt.Fprintf(o, "TACK Count %d\n", st.Tacks)
	fmt.Fprintf(o, "TACK Rate: %6.2f Hz\n", st.TackRate())
	fmt.Fprintf(o, "Hardware Trigger Count %d\n", st.HWTriggers)
	fmt.Fprintf(o, "HW Trigger Rate: %6.2f Hz\n", st.HWRate())
	return o.String()
}
