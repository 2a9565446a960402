// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"fmt"
	"io"

	"go-hep.org/x/hep/hbook"
)

// Occupancy accumulates per-channel hit counts over a capture run,
// one histogram bin per trigger channel.
type Occupancy struct {
	h *hbook.H1D
}

// NewOccupancy returns an empty occupancy accumulator.
func NewOccupancy() *Occupancy {
	h := hbook.NewH1D(512, 0, 512)
	h.Ann["name"] = "occupancy"
	h.Ann["title"] = "trigger channel occupancy"
	return &Occupancy{h: h}
}

// WriteSample folds one sample into the occupancy histogram.
func (occ *Occupancy) WriteSample(s Sample) error {
	for ch := 0; ch < 512; ch++ {
		if s.Pattern.Channel(ch) {
			occ.h.Fill(float64(ch), 1)
		}
	}
	return nil
}

// Histogram returns the accumulated occupancy.
func (occ *Occupancy) Histogram() *hbook.H1D {
	return occ.h
}

// WriteYODA dumps the histogram in YODA format.
func (occ *Occupancy) WriteYODA(w io.Writer) error {
	raw, err := occ.h.MarshalYODA()
	if err != nil {
		return fmt.Errorf("bp: could not marshal occupancy: %w", err)
	}
	_, err = w.Write(raw)
	if err != nil {
		return fmt.Errorf("bp: could not write occupancy: %w", err)
	}
	return nil
}
