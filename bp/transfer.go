// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"log"
	"os"
)

// Wordbus exchanges single 16-bit words full duplex with the slave.
// *spibus.Bus implements Wordbus.
type Wordbus interface {
	Txword(w uint16) uint16
}

// Link runs framed transactions over a word bus.
type Link struct {
	bus Wordbus
	msg *log.Logger
}

// NewLink wraps a word bus.
func NewLink(bus Wordbus) *Link {
	return &Link{
		bus: bus,
		msg: log.New(os.Stdout, "bp: ", 0),
	}
}

// Transfer clocks the 11-word request out and assembles the slave's
// 11-word response.
//
// The slave echoes one word late: while request word i+1 goes out,
// response word i comes back. Twelve word exchanges move one frame:
//
//	exchange  master sends  master receives
//	0         req[0]        (stale, discarded)
//	1..9      req[1..9]     resp[0..8]
//	10        null word     resp[9]
//	11        req[10]       resp[10]
//
// A response whose SOM does not match the request's is reported but
// not rejected: the payload often remains usable during bring-up.
func (lnk *Link) Transfer(req Frame) Frame {
	var resp Frame

	lnk.bus.Txword(req[0])
	resp[0] = lnk.bus.Txword(req[1])
	resp[1] = lnk.bus.Txword(req[2])
	for i := 2; i <= 8; i++ {
		resp[i] = lnk.bus.Txword(req[i+1])
	}
	resp[9] = lnk.bus.Txword(nullWord)
	resp[10] = lnk.bus.Txword(req[10])

	if resp[0] != req[0] {
		lnk.msg.Printf(
			"unexpected SOM: got=0x%04x, want=0x%04x (cmd=0x%04x)",
			resp[0], req[0], req[1],
		)
	}
	return resp
}
