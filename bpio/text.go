// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bpio

import (
	"fmt"
	"io"

	"github.com/jmsantander/SCTSC/bp"
)

// TextOption configures a TextWriter.
type TextOption func(*TextWriter)

// WithRawFrames makes the writer dump the raw response frames of each
// sample instead of the camera-layout hit grid.
func WithRawFrames() TextOption {
	return func(tw *TextWriter) {
		tw.raw = true
	}
}

// TextWriter writes human-readable capture logs, implementing
// bp.SampleWriter. The first write error sticks.
type TextWriter struct {
	w   io.Writer
	err error
	raw bool
}

// NewTextWriter writes a text log to w, starting with the run header.
func NewTextWriter(w io.Writer, hdr Header, opts ...TextOption) *TextWriter {
	tw := &TextWriter{w: w}
	for _, opt := range opts {
		opt(tw)
	}
	tw.printf("N: %d, freq: %f\n", hdr.N, hdr.Freq)
	return tw
}

// WriteSample appends one sample. Steps are logged 1-based, the way
// operators count them.
func (tw *TextWriter) WriteSample(s bp.Sample) error {
	if tw.err != nil {
		return tw.err
	}
	tw.printf("Step: %d\n", s.Step+1)
	t := s.Time.UTC()
	tw.printf("Current time: %s.%09d UTC\n",
		t.Format(stampLayout), t.Nanosecond(),
	)
	if tw.raw {
		for _, frame := range s.Frames {
			tw.frame(frame)
		}
		return tw.err
	}
	tw.printf("\n")
	tw.printf("%s", s.Pattern.Grid())
	return tw.err
}

// Err returns the first error seen by the writer, if any.
func (tw *TextWriter) Err() error {
	return tw.err
}

func (tw *TextWriter) frame(f bp.Frame) {
	tw.printf(" SOM  CMD DW 1 DW 2 DW 3 DW 4 DW 5 DW 6 DW 7 DW 8  EOM\n")
	for i, w := range f {
		if i == len(f)-1 {
			tw.printf("%04x\n", w)
			continue
		}
		tw.printf("%04x ", w)
	}
}

func (tw *TextWriter) printf(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}
	_, err := fmt.Fprintf(tw.w, format, args...)
	if err != nil {
		tw.err = fmt.Errorf("bpio: could not write: %w", err)
	}
}
