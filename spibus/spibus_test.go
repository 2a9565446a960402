// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spibus

import (
	"fmt"
	"reflect"
	"testing"
)

type fakeConn struct {
	tx  [][]byte
	rx  [][]byte
	err error
}

func (c *fakeConn) Transfer(tx, rx []byte) error {
	c.tx = append(c.tx, append([]byte(nil), tx...))
	if c.err != nil {
		return c.err
	}
	if len(c.rx) == 0 {
		return fmt.Errorf("no data")
	}
	copy(rx, c.rx[0])
	c.rx = c.rx[1:]
	return nil
}

func (c *fakeConn) Close() error { return nil }

func TestTxword(t *testing.T) {
	conn := &fakeConn{
		rx: [][]byte{
			{0xeb, 0x90},
			{0x12, 0x34},
		},
	}
	bus := New(conn)

	got := bus.Txword(0xbeef)
	if got != 0xeb90 {
		t.Fatalf("invalid read word: got=0x%04x, want=0xeb90", got)
	}

	got = bus.Txword(0x0100)
	if got != 0x1234 {
		t.Fatalf("invalid read word: got=0x%04x, want=0x1234", got)
	}

	want := [][]byte{
		{0xbe, 0xef}, // MSB first
		{0x01, 0x00},
	}
	if !reflect.DeepEqual(conn.tx, want) {
		t.Fatalf("invalid write bytes:\ngot = %v\nwant= %v", conn.tx, want)
	}

	if err := bus.Err(); err != nil {
		t.Fatalf("unexpected bus error: %+v", err)
	}
}

func TestTxwordFault(t *testing.T) {
	conn := &fakeConn{err: fmt.Errorf("boom")}
	bus := New(conn)

	_ = bus.Txword(0x0042)
	_ = bus.Txword(0x0043)

	err := bus.Err()
	if err == nil {
		t.Fatalf("expected a latched bus error")
	}
	want := "spibus: could not transfer word 0x0042: boom"
	if got := err.Error(); got != want {
		t.Fatalf("invalid error:\ngot = %q\nwant= %q", got, want)
	}
}

func TestOpenError(t *testing.T) {
	_, err := Open("/dev/spidev-not-there")
	if err == nil {
		t.Fatalf("expected an error opening a missing device")
	}
}
