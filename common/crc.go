// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC8 calculation used by Sensirion sensors.
package common

import (
	"fmt"

	"github.com/sigurn/crc8"
)

// ChunkSize is the length of one checksummed group on the wire: a 16-bit
// big-endian word followed by its CRC.
const ChunkSize = 3

// CRC-8 with polynomial x^8 + x^5 + x^4 + 1, initial value 0xff, no
// reflection and no final xor.
var sensirionTable = crc8.MakeTable(crc8.Params{
	Poly:   0x31,
	Init:   0xff,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
	Check:  0xf7,
	Name:   "CRC-8/NRSC-5",
})

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
func CRC8(bytes []byte) byte {
	return crc8.Checksum(bytes, sensirionTable)
}

// VerifyChunked returns true if every 3 byte group of buf ends with the CRC8
// of its first two bytes.
//
// It panics if len(buf) is not a multiple of ChunkSize. Response sizes are
// fixed for every command so this can only be triggered by a driver bug.
func VerifyChunked(buf []byte) bool {
	if len(buf)%ChunkSize != 0 {
		panic(fmt.Sprintf("common: buffer length %d is not a multiple of %d", len(buf), ChunkSize))
	}
	for ix := 0; ix < len(buf); ix += ChunkSize {
		if CRC8(buf[ix:ix+2]) != buf[ix+2] {
			return false
		}
	}
	return true
}
