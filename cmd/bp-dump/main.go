// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// bp-dump decodes and displays binary hit pattern capture files.
//
// Usage: bp-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> bp-dump ./hitpattern.bin
//	N: 100, freq: 10.000000
//	Step: 1
//	Current time: 04/17/23 12:30:45.123456789 UTC
//
//	 0000 0000 0000 0000 0000
//	 [...]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jmsantander/SCTSC/bp"
	"github.com/jmsantander/SCTSC/bpio"
)

func main() {
	log.SetPrefix("bp-dump: ")
	log.SetFlags(0)

	raw := flag.Bool("raw", false, "dump raw response frames instead of hit grids")

	flag.Usage = func() {
		fmt.Printf(`bp-dump decodes and displays binary hit pattern capture files.

Usage: bp-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> bp-dump ./hitpattern.bin
 N: 100, freq: 10.000000
 Step: 1
 Current time: 04/17/23 12:30:45.123456789 UTC

  0000 0000 0000 0000 0000
  [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input capture file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *raw)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, raw bool) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	dec := bpio.NewDecoder(f)
	hdr, err := dec.Header()
	if err != nil {
		return fmt.Errorf("could not decode header: %w", err)
	}

	var opts []bpio.TextOption
	if raw {
		opts = append(opts, bpio.WithRawFrames())
	}
	tw := bpio.NewTextWriter(w, hdr, opts...)

loop:
	for {
		var rec bpio.Record
		err := dec.Decode(&rec)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode record: %w", err)
		}

		t, err := rec.Time()
		if err != nil {
			return fmt.Errorf("could not decode record %d timestamp: %w", rec.Step, err)
		}

		err = tw.WriteSample(bp.Sample{
			Step:    int(rec.Step),
			Time:    t,
			Frames:  rec.Frames,
			Pattern: bp.PatternOf(rec.Frames),
		})
		if err != nil {
			return fmt.Errorf("could not display record %d: %w", rec.Step, err)
		}
	}

	return tw.Err()
}
