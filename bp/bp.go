// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bp implements the SPI command-frame protocol spoken by the
// SCT camera backplane FPGAs.
//
// Two slave devices share the link: the housekeeping controller
// (HKFPGA) and the trigger controller (TFPGA). The Raspberry Pi master
// frames every request as exactly 11 16-bit words:
//
//	word 0     start-of-message marker (device specific)
//	word 1     command word
//	words 2-9  payload
//	word 10    end-of-message marker
//
// The slave answers in full duplex, one word late: see Link.Transfer.
package bp // import "github.com/jmsantander/SCTSC/bp"

import (
	"fmt"
	"strings"
)

// Kind selects the slave device a frame addresses.
type Kind uint8

const (
	Housekeeping Kind = iota // HKFPGA
	Trigger                  // TFPGA
)

func (k Kind) String() string {
	switch k {
	case Housekeeping:
		return "HKFPGA"
	case Trigger:
		return "TFPGA"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// SOM returns the start-of-message marker for the device.
func (k Kind) SOM() uint16 {
	if k == Trigger {
		return somTFPGA
	}
	return somHKFPGA
}

// EOM returns the end-of-message marker for the device.
func (k Kind) EOM() uint16 {
	if k == Trigger {
		return eomTFPGA
	}
	return eomHKFPGA
}

// numWords is the fixed frame length, in 16-bit words.
const numWords = 11

// Frame is one 11-word backplane message, either a request or the
// decoded full-duplex response. A Frame is a value: once built for a
// command it is never mutated.
type Frame [numWords]uint16

// SOM returns the start-of-message word.
func (f Frame) SOM() uint16 { return f[0] }

// Cmd returns the command word.
func (f Frame) Cmd() uint16 { return f[1] }

// EOM returns the end-of-message word.
func (f Frame) EOM() uint16 { return f[10] }

// Payload returns the 8 data words.
func (f Frame) Payload() [8]uint16 {
	var p [8]uint16
	copy(p[:], f[2:10])
	return p
}

func (f Frame) String() string {
	o := new(strings.Builder)
	for i, w := range f {
		if i > 0 {
			fmt.Fprintf(o, " ")
		}
		fmt.Fprintf(o, "%04x", w)
	}
	return o.String()
}

// Legacy filler payloads. Payload words a command does not use are
// still transmitted; these are the deterministic patterns the original
// debug tool clocked out, kept so wire traces stay comparable.
var (
	fillerHK = [8]uint16{
		0x0111, 0x1222, 0x2333, 0x3444,
		0x4555, 0x5666, 0x6777, 0x7888,
	}
	fillerWrapTF = [8]uint16{
		0xc0fe, 0xbeef, 0xf1ea, 0xd0cc,
		0x6555, 0x7666, 0x8777, 0xa888,
	}
	fillerCount = [8]uint16{
		0x0001, 0x0002, 0x0003, 0x0004,
		0x0005, 0x0006, 0x0007, 0x0008,
	}
	fillerADC = [8]uint16{
		0x0111, 0x1222, 0x2333, 0x3444,
		0x4555, 0x5666, 0x0000, 0x0088,
	}
)

// newFrame frames cmd for the device with the given payload.
func newFrame(k Kind, cmd uint16, payload [8]uint16) Frame {
	var f Frame
	f[0] = k.SOM()
	f[1] = cmd
	copy(f[2:10], payload[:])
	f[10] = k.EOM()
	return f
}

// argFrame frames cmd with args overlaid on the counting filler,
// starting at payload word 0.
func argFrame(k Kind, cmd uint16, args ...uint16) Frame {
	payload := fillerCount
	copy(payload[:], args)
	return newFrame(k, cmd, payload)
}
