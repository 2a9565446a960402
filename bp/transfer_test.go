// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"io"
	"log"
	"testing"
	"time"
)

// plusOneBus returns every word incremented, which makes the one-word
// receive offset visible in the response.
type plusOneBus struct {
	tx []uint16
}

func (bus *plusOneBus) Txword(w uint16) uint16 {
	bus.tx = append(bus.tx, w)
	return w + 1
}

func TestTransferOffset(t *testing.T) {
	bus := new(plusOneBus)
	lnk := NewLink(bus)
	lnk.msg = log.New(io.Discard, "bp: ", 0)

	req := newFrame(Housekeeping, 0x1234, [8]uint16{
		0x1000, 0x2000, 0x3000, 0x4000,
		0x5000, 0x6000, 0x7000, 0x8000,
	})
	resp := lnk.Transfer(req)

	// with an increment-echo slave, resp[i] must be req[i+1]+1 for
	// i=0..8, the null word +1 at 9, and req[10]+1 at 10.
	for i := 0; i <= 8; i++ {
		if got, want := resp[i], req[i+1]+1; got != want {
			t.Errorf("resp[%d]: got=0x%04x, want=0x%04x", i, got, want)
		}
	}
	if got, want := resp[9], uint16(nullWord+1); got != want {
		t.Errorf("resp[9]: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := resp[10], req[10]+1; got != want {
		t.Errorf("resp[10]: got=0x%04x, want=0x%04x", got, want)
	}

	// the wire sees 12 exchanges: the request, a null word before the
	// closing EOM.
	want := []uint16{
		req[0], req[1], req[2], req[3], req[4], req[5],
		req[6], req[7], req[8], req[9], nullWord, req[10],
	}
	if len(bus.tx) != len(want) {
		t.Fatalf("invalid number of word exchanges: got=%d, want=%d", len(bus.tx), len(want))
	}
	for i, w := range want {
		if bus.tx[i] != w {
			t.Errorf("tx[%d]: got=0x%04x, want=0x%04x", i, bus.tx[i], w)
		}
	}
}

func TestFrameLayout(t *testing.T) {
	f := newFrame(Trigger, 0x0200, fillerCount)
	if got, want := f.SOM(), uint16(0xeb91); got != want {
		t.Errorf("invalid SOM: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := f.Cmd(), uint16(0x0200); got != want {
		t.Errorf("invalid command: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := f.EOM(), uint16(0xeb0a); got != want {
		t.Errorf("invalid EOM: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := f.Payload(), fillerCount; got != want {
		t.Errorf("invalid payload: got=%v, want=%v", got, want)
	}

	g := newFrame(Housekeeping, 0x0000, fillerHK)
	if got, want := g.SOM(), uint16(0xeb90); got != want {
		t.Errorf("invalid HK SOM: got=0x%04x, want=0x%04x", got, want)
	}
	if got, want := g.EOM(), uint16(0xeb09); got != want {
		t.Errorf("invalid HK EOM: got=0x%04x, want=0x%04x", got, want)
	}
}

// scriptedBus plays back pre-programmed response frames with the
// one-word receive offset of the real slaves.
type scriptedBus struct {
	tx []uint16
	rx []uint16
	i  int
}

// script queues the 12 receive words of one transaction: a stale word
// followed by the response frame.
func (bus *scriptedBus) script(resp Frame) {
	bus.rx = append(bus.rx, 0xdead)
	bus.rx = append(bus.rx, resp[:]...)
}

func (bus *scriptedBus) Txword(w uint16) uint16 {
	bus.tx = append(bus.tx, w)
	if bus.i >= len(bus.rx) {
		return 0
	}
	w = bus.rx[bus.i]
	bus.i++
	return w
}

// newTestDevice returns a device on a scripted bus, with sleeps
// recorded instead of taken.
func newTestDevice() (*Device, *scriptedBus, *[]string) {
	bus := new(scriptedBus)
	dev := NewDevice(bus)
	dev.lnk.msg = log.New(io.Discard, "bp: ", 0)
	var sleeps []string
	dev.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d.String())
	}
	return dev, bus, &sleeps
}
