// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"fmt"
	"math"
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
	"periph.io/x/conn/v3/physic"
)

const (
	minPressure    = 70000 * physic.Pascal
	maxPressure    = 140000 * physic.Pascal
	minInterval    = 2 * time.Second
	maxInterval    = 1800 * time.Second
	minFRC         = 400
	maxFRC         = 2000
	offsetTick     = 10 * physic.MilliKelvin
	maxOffsetTicks = math.MaxUint16
	maxAltitude    = math.MaxUint16 * physic.Metre
)

// decodeFloat decodes the IEEE 754 value spread over two consecutive words. Non
// finite values are returned as 0.
func decodeFloat(words []uint16) float64 {
	f := float64(math.Float32frombits(uint32(words[0])<<16 | uint32(words[1])))
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func decodeMeasurement(buf [18]byte) Measurement {
	words := sensirion.Words(buf[:])
	co2 := math.Round(decodeFloat(words[0:2]))
	switch {
	case co2 < 0:
		co2 = 0
	case co2 > math.MaxUint16:
		co2 = math.MaxUint16
	}
	m := Measurement{CO2: PPM(co2)}
	m.Temperature = physic.ZeroCelsius + physic.Temperature(decodeFloat(words[2:4])*float64(physic.Celsius))
	m.Humidity = physic.RelativeHumidity(decodeFloat(words[4:6]) * float64(physic.PercentRH))
	return m
}

// encodePressure returns the wire value in hPa. 0 disables compensation.
func encodePressure(p physic.Pressure) (uint16, error) {
	if p == 0 {
		return 0, nil
	}
	if p < minPressure || p > maxPressure {
		return 0, fmt.Errorf("scd30: ambient pressure %s out of range %s..%s: %w", p, minPressure, maxPressure, sensirion.ErrInvalidInput)
	}
	return uint16(p / (100 * physic.Pascal)), nil
}

// encodeInterval returns the wire value in whole seconds.
func encodeInterval(d time.Duration) (uint16, error) {
	d = d.Truncate(time.Second)
	if d < minInterval || d > maxInterval {
		return 0, fmt.Errorf("scd30: measurement interval %s out of range %s..%s: %w", d, minInterval, maxInterval, sensirion.ErrInvalidInput)
	}
	return uint16(d / time.Second), nil
}

func encodeFRC(ppm PPM) (uint16, error) {
	if ppm < minFRC || ppm > maxFRC {
		return 0, fmt.Errorf("scd30: recalibration value %s out of range %d..%d: %w", ppm, minFRC, maxFRC, sensirion.ErrInvalidInput)
	}
	return uint16(ppm), nil
}

// encodeTemperatureOffset returns the offset in 0.01°C ticks.
func encodeTemperatureOffset(t physic.Temperature) (uint16, error) {
	if t < 0 || t/offsetTick > maxOffsetTicks {
		return 0, fmt.Errorf("scd30: temperature offset %s out of range: %w", t, sensirion.ErrInvalidInput)
	}
	return uint16(t / offsetTick), nil
}

func decodeTemperatureOffset(raw uint16) physic.Temperature {
	return physic.Temperature(raw) * offsetTick
}

func encodeAltitude(alt physic.Distance) (uint16, error) {
	if alt < 0 || alt > maxAltitude {
		return 0, fmt.Errorf("scd30: altitude %s out of range: %w", alt, sensirion.ErrInvalidInput)
	}
	return uint16(alt / physic.Metre), nil
}

// decodeFirmwareVersion splits the version word into major and minor.
func decodeFirmwareVersion(raw uint16) (major, minor uint8) {
	return uint8(raw >> 8), uint8(raw)
}
