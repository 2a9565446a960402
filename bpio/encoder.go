// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bpio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/jmsantander/SCTSC/bp"
)

// Encoder writes binary capture logs. The first error sticks: every
// call after a failed one is a no-op returning that error.
type Encoder struct {
	w   io.Writer
	err error
	buf [8]byte
}

// NewEncoder writes a binary log to w, starting with the run header.
func NewEncoder(w io.Writer, hdr Header) *Encoder {
	enc := &Encoder{w: w}
	enc.writeI32(hdr.N)
	enc.writeU32(math.Float32bits(hdr.Freq))
	return enc
}

// Encode appends one record.
func (enc *Encoder) Encode(rec *Record) error {
	if enc.err != nil {
		return enc.err
	}
	for _, frame := range rec.Frames {
		for _, w := range frame {
			enc.writeU16(w)
		}
	}
	enc.writeI32(rec.Step)
	enc.write(rec.Stamp[:])
	enc.writeU64(uint64(rec.Nsec))
	return enc.err
}

// Err returns the first error seen by the encoder, if any.
func (enc *Encoder) Err() error {
	return enc.err
}

// MarshalBinary encodes the record to the binary log record layout,
// without any run header.
func (rec *Record) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := &Encoder{w: buf}
	err := enc.Encode(rec)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (enc *Encoder) writeU16(v uint16) {
	binary.LittleEndian.PutUint16(enc.buf[:2], v)
	enc.write(enc.buf[:2])
}

func (enc *Encoder) writeI32(v int32) {
	enc.writeU32(uint32(v))
}

func (enc *Encoder) writeU32(v uint32) {
	binary.LittleEndian.PutUint32(enc.buf[:4], v)
	enc.write(enc.buf[:4])
}

func (enc *Encoder) writeU64(v uint64) {
	binary.LittleEndian.PutUint64(enc.buf[:8], v)
	enc.write(enc.buf[:8])
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, err := enc.w.Write(p)
	if err != nil {
		enc.err = fmt.Errorf("bpio: could not write: %w", err)
	}
}

// Writer streams capture samples into an Encoder, implementing
// bp.SampleWriter.
type Writer struct {
	enc *Encoder
}

// NewWriter writes samples as binary records to w.
func NewWriter(w io.Writer, hdr Header) *Writer {
	return &Writer{enc: NewEncoder(w, hdr)}
}

// WriteSample encodes one capture sample.
func (bw *Writer) WriteSample(s bp.Sample) error {
	rec := Record{
		Frames: s.Frames,
		Step:   int32(s.Step),
	}
	rec.SetTime(s.Time)
	return bw.enc.Encode(&rec)
}

// Err returns the first error seen by the underlying encoder.
func (bw *Writer) Err() error {
	return bw.enc.Err()
}
