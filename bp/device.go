// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

import (
	"fmt"
	"time"
)

// Device drives the backplane command set over one SPI link.
type Device struct {
	lnk *Link

	// sleep pauses between dependent commands.
	sleep func(time.Duration)
}

// NewDevice wraps a word bus.
func NewDevice(bus Wordbus) *Device {
	return &Device{
		lnk:   NewLink(bus),
		sleep: time.Sleep,
	}
}

// do runs one transaction and surfaces a latched bus fault, if the
// underlying bus reports them.
func (dev *Device) do(req Frame) (Frame, error) {
	resp := dev.lnk.Transfer(req)
	if bus, ok := dev.lnk.bus.(interface{ Err() error }); ok {
		if err := bus.Err(); err != nil {
			return resp, fmt.Errorf("bp: transaction 0x%04x failed: %w", req.Cmd(), err)
		}
	}
	return resp, nil
}

// WrapAround sends the echo command to the device and returns the
// response frame. The payload comes back shifted into the data words,
// which checks the link end to end.
func (dev *Device) WrapAround(k Kind) (Frame, error) {
	payload := fillerHK
	if k == Trigger {
		payload = fillerWrapTF
	}
	return dev.do(newFrame(k, cwWrapAround, payload))
}

// FEEsPresent reads which front-end modules the HKFPGA detects and
// which have power.
func (dev *Device) FEEsPresent() (FEEPresence, error) {
	resp, err := dev.do(newFrame(Housekeeping, cwFEEsPresent, fillerHK))
	if err != nil {
		return FEEPresence{}, err
	}
	// presence comes back low slots first, power status high slots
	// first.
	return FEEPresence{
		Present: [2]uint16{resp[2], resp[3]},
		Power:   [2]uint16{resp[5], resp[4]},
	}, nil
}

// ResetFEE pulses the reset line of one front-end module.
func (dev *Device) ResetFEE(slot int) error {
	if slot < 0 || slot > 31 {
		return fmt.Errorf("bp: invalid FEE slot %d (want 0-31)", slot)
	}
	payload := fillerHK
	payload[0] = uint16(slot)
	_, err := dev.do(newFrame(Housekeeping, cwResetFEE, payload))
	return err
}

// PowerCtl switches the 12V rail of each front-end module, one bit
// per slot, 1 for on.
func (dev *Device) PowerCtl(slots uint32) error {
	payload := fillerHK
	payload[0] = uint16(slots >> 16)
	payload[1] = uint16(slots)
	_, err := dev.do(newFrame(Housekeeping, cwFEEPowerCtl, payload))
	return err
}

// adcSettle is the conversion time after a housekeeping ADC scan.
const adcSettle = 100 * time.Millisecond

// TriggerADCs starts a housekeeping ADC scan and waits for it to
// settle. Voltage, current, power board and environment reads return
// stale values without a scan first.
func (dev *Device) TriggerADCs() error {
	_, err := dev.do(newFrame(Housekeeping, cwTrgADCs, fillerADC))
	if err != nil {
		return err
	}
	dev.sleep(adcSettle)
	return nil
}

// readFEE runs the four slot read-out frames for one quantity.
func (dev *Device) readFEE(cmds [4]uint16) ([4]Frame, error) {
	var frames [4]Frame
	for i, cw := range cmds {
		dev.sleep(10 * time.Millisecond)
		resp, err := dev.do(newFrame(Housekeeping, cw, fillerADC))
		if err != nil {
			return frames, err
		}
		frames[i] = resp
	}
	return frames, nil
}

// ReadVoltages reads the 12V rail voltage of all 32 slots.
// Call TriggerADCs first.
func (dev *Device) ReadVoltages() (FEEReadings, error) {
	frames, err := dev.readFEE([4]uint16{cwRdFEE0V, cwRdFEE8V, cwRdFEE16V, cwRdFEE24V})
	if err != nil {
		return FEEReadings{}, err
	}
	return decodeFEE(frames, voltsPerADC), nil
}

// ReadCurrents reads the 12V rail current of all 32 slots.
// Call TriggerADCs first.
func (dev *Device) ReadCurrents() (FEEReadings, error) {
	frames, err := dev.readFEE([4]uint16{cwRdFEE0I, cwRdFEE8I, cwRdFEE16I, cwRdFEE24I})
	if err != nil {
		return FEEReadings{}, err
	}
	return decodeFEE(frames, ampsPerADC), nil
}

// ReadPowerBoard reads the power board rails. Call TriggerADCs first.
func (dev *Device) ReadPowerBoard() (PowerBoard, error) {
	resp, err := dev.do(newFrame(Housekeeping, cwRdHKPwb, fillerADC))
	if err != nil {
		return PowerBoard{}, err
	}
	return decodePowerBoard(resp), nil
}

// ReadEnv reads the environmental channels. Call TriggerADCs first.
func (dev *Device) ReadEnv() (Env, error) {
	resp, err := dev.do(newFrame(Housekeeping, cwRdEnv, fillerADC))
	if err != nil {
		return Env{}, err
	}
	return decodeEnv(resp), nil
}

// CalTrigger pulses the calibration unit trigger line at freq Hz for
// the given duration.
func (dev *Device) CalTrigger(duration, freq int) error {
	if freq <= 0 {
		return fmt.Errorf("bp: invalid calibration trigger frequency %d Hz", freq)
	}
	period := time.Second / time.Duration(freq)
	dev.sleep(1 * time.Second)
	for i := 0; i < duration*freq; i++ {
		_, err := dev.do(newFrame(Housekeeping, cwPeriTrig, fillerHK))
		if err != nil {
			return err
		}
		dev.sleep(period)
	}
	return nil
}

// PowerStatus reads the raw power board status words.
func (dev *Device) PowerStatus() (Frame, error) {
	return dev.do(newFrame(Housekeeping, cwRdPwrStatus, fillerHK))
}

// ResetSi5338 resets the Si5338 clock distributor.
func (dev *Device) ResetSi5338() (Frame, error) {
	return dev.do(newFrame(Housekeeping, cwResetSi5338, fillerHK))
}

// ResetI2C resets the housekeeping I2C bus.
func (dev *Device) ResetI2C() (Frame, error) {
	return dev.do(newFrame(Housekeeping, cwResetI2C, fillerHK))
}

// ResetDACQ1 power-cycles the first data acquisition board.
func (dev *Device) ResetDACQ1() (Frame, error) {
	return dev.do(newFrame(Housekeeping, cwDACQ1PwrRset, fillerHK))
}

// ResetDACQ2 power-cycles the second data acquisition board.
func (dev *Device) ResetDACQ2() (Frame, error) {
	return dev.do(newFrame(Housekeeping, cwDACQ2PwrRset, fillerHK))
}

// split64 splits a 64-bit value into four words, most significant
// first, the order the TFPGA timer commands want.
func split64(v uint64) [4]uint16 {
	return [4]uint16{
		uint16(v >> 48), uint16(v >> 32), uint16(v >> 16), uint16(v),
	}
}

// SetNsTimer loads the free-running nanosecond timer.
func (dev *Device) SetNsTimer(t uint64) error {
	w := split64(t)
	_, err := dev.do(argFrame(Trigger, cwSetNsTimer, w[0], w[1], w[2], w[3]))
	return err
}

// ReadNsTimer reads the nanosecond timer and the trigger counters.
func (dev *Device) ReadNsTimer() (TriggerStats, error) {
	resp, err := dev.do(argFrame(Trigger, cwReadNsTimer))
	if err != nil {
		return TriggerStats{}, err
	}
	return decodeTriggerStats(resp), nil
}

// TriggerTime reads the nanosecond timer value latched by the last
// hardware trigger.
func (dev *Device) TriggerTime() (uint64, error) {
	resp, err := dev.do(argFrame(Trigger, cwReadTrigNsTimer, 0, 0, 0, 0))
	if err != nil {
		return 0, err
	}
	t := uint64(resp[2])<<48 | uint64(resp[3])<<32 |
		uint64(resp[4])<<16 | uint64(resp[5])
	return t, nil
}

// TriggerEnable sets the trigger and TACK enable bits: bits 0-3 the
// four phase logics, bit 4 the external trigger, bits 5-6 TACK
// messages to modules 0-15 and 16-31.
func (dev *Device) TriggerEnable(bits uint16) error {
	_, err := dev.do(argFrame(Trigger, cwL1TriggerEn, bits))
	return err
}

// SetTriggerMask loads the per-group trigger mask, eight module words
// per frame.
func (dev *Device) SetTriggerMask(mask TriggerMask) error {
	cmds := [4]uint16{cwTriggerMask0, cwTriggerMask1, cwTriggerMask2, cwTriggerMask3}
	for i, cw := range cmds {
		var payload [8]uint16
		copy(payload[:], mask[8*i:8*i+8])
		_, err := dev.do(newFrame(Trigger, cw, payload))
		if err != nil {
			return err
		}
	}
	return nil
}

// fillerSoftTrig is the legacy software trigger payload.
var fillerSoftTrig = [8]uint16{
	0x3111, 0x3222, 0x2333, 0x3444,
	0x4555, 0x5666, 0x6777, 0xa888,
}

// SoftTrigger fires one software trigger.
func (dev *Device) SoftTrigger() (Frame, error) {
	return dev.do(newFrame(Trigger, cwTrigger, fillerSoftTrig))
}

// ResetCounters zeroes the nanosecond timer and both trigger
// counters.
func (dev *Device) ResetCounters() error {
	_, err := dev.do(newFrame(Trigger, cwResetCounters, fillerHK))
	return err
}

// SetHoldoff sets the dead time before the next trigger, in units of
// about 4 ns.
func (dev *Device) SetHoldoff(v uint16) error {
	_, err := dev.do(argFrame(Trigger, cwHoldoff, v))
	return err
}

// SerdesConfig configures the array board serial links.
func (dev *Device) SerdesConfig(v uint16) error {
	_, err := dev.do(argFrame(Trigger, cwSerdesConfig, v))
	return err
}

// SetTackTypeMode sets the TACK message type and mode, both 0-3.
func (dev *Device) SetTackTypeMode(typ, mode int) error {
	if typ < 0 || typ > 3 {
		return fmt.Errorf("bp: invalid TACK type %d (want 0-3)", typ)
	}
	if mode < 0 || mode > 3 {
		return fmt.Errorf("bp: invalid TACK mode %d (want 0-3)", mode)
	}
	_, err := dev.do(argFrame(Trigger, cwTackTypeMode, uint16(typ<<2|mode)))
	return err
}

// TrigAtTime arms a trigger for when the nanosecond timer reaches t.
// The three least significant bits must be zero.
func (dev *Device) TrigAtTime(t uint64) error {
	w := split64(t)
	_, err := dev.do(argFrame(Trigger, cwTrigAtTime, w[0], w[1], w[2], w[3]))
	return err
}

// ReadDIAT reads the eight diagnostic words from the DIAT.
func (dev *Device) ReadDIAT() (Frame, error) {
	return dev.do(argFrame(Trigger, cwReadDIATWords))
}

// syncPause separates the steps of a SYNC sequence.
const syncPause = 20 * time.Microsecond

// SendSync runs the SYNC handshake the target modules need before
// TACK messages take effect: arm a SYNC-type message for a time just
// after zero, reset the timer so it fires, then restore TACK type.
// Re-syncing an already synced module has no effect.
func (dev *Device) SendSync() error {
	// TYPE 01, MODE 00
	_, err := dev.do(newFrame(Trigger, cwTackTypeMode, [8]uint16{0x0004}))
	if err != nil {
		return err
	}
	dev.sleep(syncPause)

	// a short time after zero; the timer value in the message runs
	// one tick behind and wants its 3 LSBs clear
	_, err = dev.do(newFrame(Trigger, cwTrigAtTime, [8]uint16{0, 0, 0x0001, 0}))
	if err != nil {
		return err
	}
	dev.sleep(syncPause)

	_, err = dev.do(newFrame(Trigger, cwResetCounters, [8]uint16{}))
	if err != nil {
		return err
	}
	dev.sleep(syncPause)

	// back to TYPE 00, MODE 00 for subsequent TACKs
	_, err = dev.do(newFrame(Trigger, cwTackTypeMode, [8]uint16{}))
	return err
}

// ReadHitPattern reads the four hit pattern pages and returns the
// assembled pattern together with the raw response frames.
func (dev *Device) ReadHitPattern() (HitPattern, [4]Frame, error) {
	cmds := [4]uint16{
		cwReadHitPattern0, cwReadHitPattern1,
		cwReadHitPattern2, cwReadHitPattern3,
	}
	var frames [4]Frame
	for i, cw := range cmds {
		resp, err := dev.do(newFrame(Trigger, cw, fillerHK))
		if err != nil {
			return HitPattern{}, frames, err
		}
		frames[i] = resp
	}
	return PatternOf(frames), frames, nil
}
