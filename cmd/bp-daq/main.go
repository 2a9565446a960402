// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bp-daq starts a TDAQ server on the backplane RPi node,
// streaming hit pattern records to downstream consumers.
package main // import "github.com/jmsantander/SCTSC/cmd/bp-daq"

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"

	"github.com/jmsantander/SCTSC/bp"
	"github.com/jmsantander/SCTSC/bpio"
	"github.com/jmsantander/SCTSC/spibus"
)

func main() {
	cmd := flags.New()

	daq := backplane{
		name: cmd.Args[0],
		dev:  "/dev/spidev0.0",
		freq: 10,
	}
	if v, ok := os.LookupEnv("BP_SPIDEV"); ok {
		daq.dev = v
	}
	if v, ok := os.LookupEnv("BP_FREQ"); ok {
		freq, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("bp-daq: invalid BP_FREQ %q: %+v", v, err)
		}
		daq.freq = freq
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", daq.OnConfig)
	srv.CmdHandle("/init", daq.OnInit)
	srv.CmdHandle("/reset", daq.OnReset)
	srv.CmdHandle("/start", daq.OnStart)
	srv.CmdHandle("/stop", daq.OnStop)
	srv.CmdHandle("/quit", daq.OnQuit)

	srv.OutputHandle("/hits", daq.hits)

	srv.RunHandle(daq.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type backplane struct {
	name string
	dev  string
	freq float64

	bus *spibus.Bus
	bp  *bp.Device

	n    int
	data chan []byte
}

func (daq *backplane) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	return nil
}

func (daq *backplane) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")

	bus, err := spibus.Open(daq.dev)
	if err != nil {
		return err
	}
	daq.bus = bus
	daq.bp = bp.NewDevice(bus)
	daq.data = make(chan []byte, 1024)
	daq.n = 0

	return daq.bp.ResetCounters()
}

func (daq *backplane) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	daq.data = make(chan []byte, 1024)
	daq.n = 0
	if daq.bp == nil {
		return nil
	}
	return daq.bp.ResetCounters()
}

func (daq *backplane) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (daq *backplane) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d", daq.n)
	return nil
}

func (daq *backplane) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	if daq.bus == nil {
		return nil
	}
	return daq.bus.Close()
}

func (daq *backplane) hits(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-daq.data:
		dst.Body = data
	}
	return nil
}

func (daq *backplane) run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
		}

		err := daq.bp.Capture(ctx.Ctx, 1, daq.freq, sampleChan{daq})
		if err != nil {
			if ctx.Ctx.Err() != nil {
				return nil
			}
			ctx.Msg.Errorf("could not read hit pattern: %+v", err)
		}
	}
}

// sampleChan encodes capture samples to the binary record layout and
// queues them for the /hits output stream.
type sampleChan struct {
	daq *backplane
}

func (s sampleChan) WriteSample(smp bp.Sample) error {
	rec := bpio.Record{
		Frames: smp.Frames,
		Step:   int32(s.daq.n),
	}
	rec.SetTime(smp.Time)

	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}

	select {
	case s.daq.data <- raw:
		s.daq.n++
	default:
		// drop samples when downstream falls behind.
	}
	return nil
}
