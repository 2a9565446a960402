// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spibus

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// spidev is a Conn backed by a Linux /dev/spidevB.C character device.
type spidev struct {
	fd    int
	speed uint32
}

// spi_ioc_transfer, cf. <linux/spi/spidev.h>.
type spiTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	len         uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

const (
	spiIOCMagic = 107 // 'k'

	iocWrite = 1

	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | size<<iocSizeShift | typ<<iocTypeShift | nr<<iocNrShift
}

var (
	spiIOCWrMode        = ioc(iocWrite, spiIOCMagic, 1, 1)
	spiIOCWrLSBFirst    = ioc(iocWrite, spiIOCMagic, 2, 1)
	spiIOCWrBitsPerWord = ioc(iocWrite, spiIOCMagic, 3, 1)
	spiIOCWrMaxSpeedHz  = ioc(iocWrite, spiIOCMagic, 4, 4)
)

func spiIOCMessage(n int) uintptr {
	return ioc(iocWrite, spiIOCMagic, 0, uintptr(n)*unsafe.Sizeof(spiTransfer{}))
}

func openSPIDev(device string, speed uint32) (Conn, error) {
	fd, err := unix.Open(device, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open device: %w", err)
	}

	dev := &spidev{fd: fd, speed: speed}
	err = dev.init()
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return dev, nil
}

func (dev *spidev) init() error {
	var (
		mode uint8 = 0 // CPOL=0, CPHA=0
		lsb  uint8 = 0 // MSB first, the backplane bit order
		bpw  uint8 = 8
	)

	err := dev.ioctl(spiIOCWrMode, unsafe.Pointer(&mode))
	if err != nil {
		return fmt.Errorf("could not set SPI mode 0: %w", err)
	}

	err = dev.ioctl(spiIOCWrLSBFirst, unsafe.Pointer(&lsb))
	if err != nil {
		return fmt.Errorf("could not set MSB-first bit order: %w", err)
	}

	err = dev.ioctl(spiIOCWrBitsPerWord, unsafe.Pointer(&bpw))
	if err != nil {
		return fmt.Errorf("could not set 8 bits per word: %w", err)
	}

	err = dev.ioctl(spiIOCWrMaxSpeedHz, unsafe.Pointer(&dev.speed))
	if err != nil {
		return fmt.Errorf("could not set clock to %d Hz: %w", dev.speed, err)
	}

	return nil
}

func (dev *spidev) Transfer(tx, rx []byte) error {
	if len(tx) != len(rx) {
		return fmt.Errorf("length mismatch: tx=%d rx=%d", len(tx), len(rx))
	}

	xfer := spiTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&rx[0]))),
		len:         uint32(len(tx)),
		speedHz:     dev.speed,
		bitsPerWord: 8,
	}

	err := dev.ioctl(spiIOCMessage(1), unsafe.Pointer(&xfer))
	if err != nil {
		return fmt.Errorf("could not run full-duplex transfer: %w", err)
	}
	return nil
}

func (dev *spidev) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(dev.fd),
		req,
		uintptr(arg),
	)
	if errno != 0 {
		return errno
	}
	return nil
}

func (dev *spidev) Close() error {
	return unix.Close(dev.fd)
}
