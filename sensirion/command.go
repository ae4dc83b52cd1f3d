// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensirion

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/GermanBionicSystems/scd/common"
)

// Command describes one sensor operation.
//
// Commands are declared once as package level values by the device packages
// and never modified.
type Command struct {
	// Name is used in log records and error messages.
	Name string
	// Opcode is the 16-bit command word.
	Opcode uint16
	// Exec is the time the sensor needs after the write before it can be
	// read from or sent another command.
	Exec time.Duration
	// WhileMeasuring is true if the sensor accepts this command while
	// periodic measurement is running.
	WhileMeasuring bool
}

// Prepare returns the wire representation of the command without data.
func (c Command) Prepare() [2]byte {
	var w [2]byte
	binary.BigEndian.PutUint16(w[:], c.Opcode)
	return w
}

// PrepareWithData returns the wire representation of the command followed by
// a data word and the CRC of the data word.
func (c Command) PrepareWithData(data uint16) [5]byte {
	var w [5]byte
	binary.BigEndian.PutUint16(w[:2], c.Opcode)
	binary.BigEndian.PutUint16(w[2:4], data)
	w[4] = common.CRC8(w[2:4])
	return w
}

func (c Command) String() string {
	if c.Name == "" {
		return fmt.Sprintf("0x%04x", c.Opcode)
	}
	return fmt.Sprintf("%s(0x%04x)", c.Name, c.Opcode)
}
