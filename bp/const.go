// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bp

// Frame markers.
const (
	somHKFPGA = 0xeb90
	eomHKFPGA = 0xeb09
	somTFPGA  = 0xeb91
	eomTFPGA  = 0xeb0a

	// nullWord pads the receive phase of a transfer while the last
	// payload response word is clocked in.
	nullWord = 0x0000
)

// cwWrapAround echoes the payload back, on either device.
const cwWrapAround = 0x0000

// HKFPGA command words.
const (
	cwResetFEE     = 0x0100
	cwFEEsPresent  = 0x0200
	cwFEEPowerCtl  = 0x0400
	cwRdFEE0I      = 0x0500
	cwRdFEE8I      = 0x0507
	cwRdFEE16I     = 0x050f
	cwRdFEE24I     = 0x0510
	cwRdFEE0V      = 0x0600
	cwRdFEE8V      = 0x0607
	cwRdFEE16V     = 0x060f
	cwRdFEE24V     = 0x0610
	cwRdEnv        = 0x0700
	cwRdHKPwb      = 0x0800
	cwPeriTrig     = 0x0900
	cwTrgADCs      = 0x0a00
	cwRdPwrStatus  = 0x0b00
	cwResetSi5338  = 0x0b0b
	cwResetI2C     = 0x0b0c
	cwDACQ1PwrRset = 0x0c00
	cwDACQ2PwrRset = 0x0d00
)

// TFPGA command words.
const (
	cwSetNsTimer      = 0x0100
	cwReadNsTimer     = 0x0200
	cwTriggerMask0    = 0x0300
	cwTriggerMask1    = 0x0400
	cwTriggerMask2    = 0x0500
	cwTriggerMask3    = 0x0600
	cwReadTrigNsTimer = 0x0700
	cwHoldoff         = 0x0800
	cwTrigger         = 0x0900
	cwL1TriggerEn     = 0x0a00
	cwResetCounters   = 0x0b00
	cwReadHitPattern0 = 0x0c00
	cwReadHitPattern1 = 0x0d00
	cwReadHitPattern2 = 0x0e00
	cwReadHitPattern3 = 0x0f00
	cwSerdesConfig    = 0x1000
	cwTackTypeMode    = 0x1100
	cwTrigAtTime      = 0x1200
	cwReadDIATWords   = 0x1300
)
