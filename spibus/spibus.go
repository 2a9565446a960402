// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spibus exchanges 16-bit words with the camera backplane
// over the Raspberry Pi SPI peripheral.
//
// The kernel spidev layer natively moves 8-bit units; Txword turns one
// two-byte full-duplex transfer into a 16-bit exchange, MSB first on
// both the write and the simultaneous read.
package spibus // import "github.com/jmsantander/SCTSC/spibus"

import (
	"fmt"
)

// Conn is a full-duplex connection to an SPI slave.
type Conn interface {
	// Transfer writes tx and simultaneously reads len(rx) bytes into rx.
	Transfer(tx, rx []byte) error
	Close() error
}

// DefaultSpeed is the SPI clock in Hz, a 512 ns bit period.
// The backplane nominally wants 640 ns; slower works too.
const DefaultSpeed = 1953125

// Option configures a Bus.
type Option func(*config)

type config struct {
	speed uint32
}

// WithSpeed sets the SPI clock rate in Hz.
func WithSpeed(hz uint32) Option {
	return func(cfg *config) {
		cfg.speed = hz
	}
}

var spiOpen = openSPIDev

// Bus drives one SPI chip-select line.
type Bus struct {
	conn Conn
	tx   [2]byte
	rx   [2]byte
	err  error
}

// Open opens the SPI character device (e.g. /dev/spidev0.0) and
// configures it for the backplane: mode 0, 8 bits per word, MSB first.
func Open(device string, opts ...Option) (*Bus, error) {
	cfg := config{speed: DefaultSpeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := spiOpen(device, cfg.speed)
	if err != nil {
		return nil, fmt.Errorf("spibus: could not open %q: %w", device, err)
	}
	return &Bus{conn: conn}, nil
}

// New wraps an already configured connection.
func New(conn Conn) *Bus {
	return &Bus{conn: conn}
}

// Txword transmits one 16-bit word and returns the word that was
// simultaneously clocked in by the slave.
//
// The backplane link has no error reporting of its own, so Txword
// exposes none either; a transfer fault is latched and available
// through Err.
func (bus *Bus) Txword(w uint16) uint16 {
	bus.tx[0] = byte(w >> 8)
	bus.tx[1] = byte(w)
	err := bus.conn.Transfer(bus.tx[:], bus.rx[:])
	if err != nil && bus.err == nil {
		bus.err = fmt.Errorf("spibus: could not transfer word 0x%04x: %w", w, err)
	}
	return uint16(bus.rx[0])<<8 | uint16(bus.rx[1])
}

// Err returns the first transfer fault seen by the bus, if any.
func (bus *Bus) Err() error {
	return bus.err
}

func (bus *Bus) Close() error {
	return bus.conn.Close()
}
