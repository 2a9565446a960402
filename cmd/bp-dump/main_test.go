// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmsantander/SCTSC/bp"
	"github.com/jmsantander/SCTSC/bpio"
)

func TestProcess(t *testing.T) {
	tmp, err := os.MkdirTemp("", "bp-dump-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	stamp := time.Date(2023, 4, 17, 12, 30, 45, 123456789, time.UTC)

	zeroGrid := func() string {
		line := " 0000 0000 0000 0000 0000\n"
		blk := strings.Repeat(line, 4)
		return blk + strings.Repeat("\n"+blk, 4)
	}()

	frames := func(cmd uint16) [4]bp.Frame {
		var fs [4]bp.Frame
		for p := range fs {
			fs[p] = bp.Frame{
				0xeb91, cmd + uint16(p)<<8,
				1, 2, 3, 4, 5, 6, 7, 8,
				0xeb0a,
			}
		}
		return fs
	}

	for _, tc := range []struct {
		name string
		raw  bool
		recs []bpio.Record
		want string
	}{
		{
			name: "empty-run",
			recs: nil,
			want: "N: 0, freq: 10.000000\n",
		},
		{
			name: "grid",
			recs: []bpio.Record{
				{Step: 0},
			},
			want: "N: 1, freq: 10.000000\n" +
				"Step: 1\n" +
				"Current time: 04/17/23 12:30:45.123456789 UTC\n" +
				"\n" + zeroGrid,
		},
		{
			name: "raw-frames",
			raw:  true,
			recs: []bpio.Record{
				{Step: 0, Frames: frames(0x0c00)},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(tmp, tc.name+".bin")
			f, err := os.Create(fname)
			if err != nil {
				t.Fatalf("could not create capture file: %+v", err)
			}
			defer f.Close()

			enc := bpio.NewEncoder(f, bpio.Header{
				N:    int32(len(tc.recs)),
				Freq: 10,
			})
			for i := range tc.recs {
				tc.recs[i].SetTime(stamp)
				if err := enc.Encode(&tc.recs[i]); err != nil {
					t.Fatalf("could not encode record %d: %+v", i, err)
				}
			}
			if err := f.Close(); err != nil {
				t.Fatalf("could not close capture file: %+v", err)
			}

			want := tc.want
			if tc.raw {
				want = "N: 1, freq: 10.000000\n" +
					"Step: 1\n" +
					"Current time: 04/17/23 12:30:45.123456789 UTC\n"
				for p := 0; p < 4; p++ {
					want += " SOM  CMD DW 1 DW 2 DW 3 DW 4 DW 5 DW 6 DW 7 DW 8  EOM\n"
					cmds := []string{"0c00", "0d00", "0e00", "0f00"}
					want += "eb91 " + cmds[p] + " 0001 0002 0003 0004 0005 0006 0007 0008 eb0a\n"
				}
			}

			out := new(strings.Builder)
			err = process(out, fname, tc.raw)
			if err != nil {
				t.Fatalf("could not bp-dump: %+v", err)
			}
			if got := out.String(); got != want {
				t.Fatalf("invalid bp-dump output:\ngot:\n%s\nwant:\n%s\n", got, want)
			}
		})
	}
}

func TestProcessTruncated(t *testing.T) {
	tmp, err := os.MkdirTemp("", "bp-dump-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "short.bin")
	err = os.WriteFile(fname, []byte{0x1, 0x0}, 0644)
	if err != nil {
		t.Fatalf("could not create capture file: %+v", err)
	}

	err = process(new(strings.Builder), fname, false)
	if err == nil {
		t.Fatalf("expected an error for a truncated file")
	}
	if !strings.Contains(err.Error(), "could not decode header") {
		t.Fatalf("invalid error: %v", err)
	}
}
