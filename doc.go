// Copyright 2023 The SCTSC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sctsc provides tools to control and debug the SCT camera
// backplane FPGAs (HKFPGA and TFPGA) from a Raspberry Pi over SPI.
package sctsc // import "github.com/jmsantander/SCTSC"
