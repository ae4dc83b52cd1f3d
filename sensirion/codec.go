// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensirion

import (
	"encoding/binary"
	"fmt"

	"github.com/GermanBionicSystems/scd/common"
	"periph.io/x/conn/v3/physic"
)

// PPM is Parts Per Million, the unit of CO2 concentration.
type PPM uint16

func (ppm PPM) String() string {
	return fmt.Sprintf("%d PPM", ppm)
}

// Measurement is one sensor reading. Pressure is not measured by these
// sensors and is always zero.
type Measurement struct {
	physic.Env
	CO2 PPM
}

func (m *Measurement) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s CO2: %s", m.Temperature, m.Humidity, m.CO2)
}

// Word returns the data word of the given 3 byte group in buf. The CRC is
// not checked.
func Word(buf []byte, group int) uint16 {
	return binary.BigEndian.Uint16(buf[group*common.ChunkSize:])
}

// Words returns the data words of all groups in buf, dropping the CRC bytes.
func Words(buf []byte) []uint16 {
	words := make([]uint16, len(buf)/common.ChunkSize)
	for i := range words {
		words[i] = Word(buf, i)
	}
	return words
}
