// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bpio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Decoder reads binary capture logs written by Encoder. The first
// error sticks.
type Decoder struct {
	r   io.Reader
	err error
	buf [8]byte
}

// NewDecoder reads a binary log from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Header reads the run header. It must be called before the first
// Decode.
func (dec *Decoder) Header() (Header, error) {
	var hdr Header
	hdr.N = dec.readI32()
	hdr.Freq = math.Float32frombits(dec.readU32())
	return hdr, dec.err
}

// Decode reads the next record into rec. At the end of the log it
// returns io.EOF.
func (dec *Decoder) Decode(rec *Record) error {
	if dec.err != nil {
		return dec.err
	}
	for i := range rec.Frames {
		for w := range rec.Frames[i] {
			rec.Frames[i][w] = dec.readU16()
		}
	}
	rec.Step = dec.readI32()
	dec.read(rec.Stamp[:])
	rec.Nsec = int64(dec.readU64())
	return dec.err
}

// Err returns the first error seen by the decoder, if any.
func (dec *Decoder) Err() error {
	return dec.err
}

func (dec *Decoder) readU16() uint16 {
	dec.read(dec.buf[:2])
	return binary.LittleEndian.Uint16(dec.buf[:2])
}

func (dec *Decoder) readI32() int32 {
	return int32(dec.readU32())
}

func (dec *Decoder) readU32() uint32 {
	dec.read(dec.buf[:4])
	return binary.LittleEndian.Uint32(dec.buf[:4])
}

func (dec *Decoder) readU64() uint64 {
	dec.read(dec.buf[:8])
	return binary.LittleEndian.Uint64(dec.buf[:8])
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, err := io.ReadFull(dec.r, p)
	switch {
	case err == nil:
	case err == io.EOF:
		dec.err = io.EOF
	default:
		dec.err = fmt.Errorf("bpio: could not read: %w", err)
	}
}
