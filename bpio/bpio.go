// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bpio reads and writes backplane capture logs.
//
// Two on-disk formats exist: a human-readable text log and a packed
// binary log. Both start with a run header (sample count and capture
// frequency) followed by one record per sample. The binary encoding
// is little endian, the byte order of the ARM host that historically
// wrote these files.
package bpio // import "github.com/jmsantander/SCTSC/bpio"

import (
	"fmt"
	"time"

	"github.com/jmsantander/SCTSC/bp"
)

// stampLayout is the record timestamp format, month first.
const stampLayout = "01/02/06 15:04:05"

// stampLen is the fixed size of the timestamp field in binary
// records; the text after the timestamp is zero padding.
const stampLen = 100

// Header describes a capture run.
type Header struct {
	N    int32   // number of samples
	Freq float32 // capture frequency in Hz
}

// Record is one binary log sample.
type Record struct {
	Frames [4]bp.Frame // raw hit pattern pages
	Step   int32       // 0-based capture index
	Stamp  [stampLen]byte
	Nsec   int64 // nanoseconds past the stamped second
}

// SetTime stamps the record with t, split into a whole-second
// timestamp and a nanosecond remainder.
func (rec *Record) SetTime(t time.Time) {
	rec.Stamp = [stampLen]byte{}
	copy(rec.Stamp[:], t.UTC().Format(stampLayout))
	rec.Nsec = int64(t.Nanosecond())
}

// Time returns the record timestamp.
func (rec *Record) Time() (time.Time, error) {
	raw := rec.Stamp[:]
	for i, c := range raw {
		if c == 0 {
			raw = raw[:i]
			break
		}
	}
	t, err := time.Parse(stampLayout, string(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("bpio: could not parse timestamp %q: %w", raw, err)
	}
	return t.Add(time.Duration(rec.Nsec)), nil
}
