// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Sample is one hit pattern capture.
type Sample struct {
	Step    int // 0-based capture index
	Time    time.Time
	Frames  [4]Frame
	Pattern HitPattern
}

// SampleWriter consumes captured samples.
type SampleWriter interface {
	WriteSample(s Sample) error
}

// Capture reads n hit patterns at freq Hz and hands each sample to
// the sinks in order. Capture returns early on the first read or sink
// error, or when the context is cancelled between samples.
func (dev *Device) Capture(ctx context.Context, n int, freq float64, sinks ...SampleWriter) error {
	if n <= 0 {
		return fmt.Errorf("bp: invalid number of samples %d", n)
	}
	if freq <= 0 {
		return fmt.Errorf("bp: invalid capture frequency %v Hz", freq)
	}

	period := 1 / freq
	secs, frac := math.Modf(period)

	for step := 0; step < n; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now().UTC()
		pattern, frames, err := dev.ReadHitPattern()
		if err != nil {
			return fmt.Errorf("bp: could not read sample %d: %w", step, err)
		}

		sample := Sample{
			Step:    step,
			Time:    now,
			Frames:  frames,
			Pattern: pattern,
		}
		for _, sink := range sinks {
			if err := sink.WriteSample(sample); err != nil {
				return fmt.Errorf("bp: could not write sample %d: %w", step, err)
			}
		}

		// the period is paced as a whole-second sleep plus a
		// millisecond remainder
		if s := int(secs); s > 0 {
			dev.sleep(time.Duration(s) * time.Second)
		}
		if ms := int(frac * 1000); ms > 0 {
			dev.sleep(time.Duration(ms) * time.Millisecond)
		}
	}
	return nil
}
