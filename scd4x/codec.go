// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"fmt"
	"math"
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
	"periph.io/x/conn/v3/physic"
)

const (
	// 2^16-1, the full scale of a data word.
	fullScale = 65535.0
	// Temperature span in °C covered by full scale.
	tempSpan = 175.0

	maxAltitude    = 3000 * physic.Metre
	minPressure    = 70000 * physic.Pascal
	maxPressure    = 120000 * physic.Pascal
	minTargetPPM   = 400
	maxTargetPPM   = 2000
	frcFailed      = 0xffff
	frcZero        = 0x8000
	dataReadyMask  = 0x07ff
	ascPeriodHours = 4
)

// Variant is the model reported by the sensor.
type Variant uint8

const (
	VariantSCD40 Variant = 0
	VariantSCD41 Variant = 1
	VariantSCD43 Variant = 5
)

// Known returns true for the variants this package knows about.
func (v Variant) Known() bool {
	switch v {
	case VariantSCD40, VariantSCD41, VariantSCD43:
		return true
	}
	return false
}

func (v Variant) String() string {
	switch v {
	case VariantSCD40:
		return "SCD40"
	case VariantSCD41:
		return "SCD41"
	case VariantSCD43:
		return "SCD43"
	}
	return fmt.Sprintf("Variant(%d)", uint8(v))
}

// countToTemp converts a device count to Temperature
func countToTemp(count uint16) physic.Temperature {
	frac := float64(count) / fullScale
	result := -45 + tempSpan*frac
	return physic.ZeroCelsius + physic.Temperature(float64(physic.Celsius)*result)
}

func countToHumidity(count uint16) physic.RelativeHumidity {
	frac := float64(count) / fullScale
	return physic.RelativeHumidity(frac * 100.0 * float64(physic.PercentRH))
}

func decodeMeasurement(buf [9]byte) Measurement {
	m := Measurement{CO2: PPM(sensirion.Word(buf[:], 0))}
	m.Temperature = countToTemp(sensirion.Word(buf[:], 1))
	m.Humidity = countToHumidity(sensirion.Word(buf[:], 2))
	return m
}

// encodeTemperatureOffset returns the data word for an offset in °C.
func encodeTemperatureOffset(celsius float64) (uint16, error) {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) || celsius < 0 || celsius > tempSpan {
		return 0, fmt.Errorf("scd4x: temperature offset %g°C: %w", celsius, sensirion.ErrInvalidInput)
	}
	return uint16(celsius * fullScale / tempSpan), nil
}

// decodeTemperatureOffset returns the offset as a temperature difference.
func decodeTemperatureOffset(raw uint16) physic.Temperature {
	return physic.Temperature(math.Round(float64(raw) * tempSpan / fullScale * float64(physic.Kelvin)))
}

// offsetToCelsius converts a temperature difference to °C.
func offsetToCelsius(t physic.Temperature) float64 {
	return float64(t) / float64(physic.Kelvin)
}

// decodeSerialNumber concatenates the 48 bits of payload, dropping the CRCs.
func decodeSerialNumber(buf [9]byte) uint64 {
	var sn uint64
	for _, w := range sensirion.Words(buf[:]) {
		sn = sn<<16 | uint64(w)
	}
	return sn
}

// decodeFRCStatus returns the correction applied by a forced recalibration,
// or false if the recalibration failed.
func decodeFRCStatus(raw uint16) (int16, bool) {
	if raw == frcFailed {
		return 0, false
	}
	return int16(int32(raw) - frcZero), true
}

// decodeSensorVariant extracts the model from bits 15..12.
func decodeSensorVariant(raw uint16) (Variant, bool) {
	v := Variant(raw >> 12)
	return v, v.Known()
}

func encodeAltitude(alt physic.Distance) (uint16, error) {
	if alt < 0 || alt > maxAltitude {
		return 0, fmt.Errorf("scd4x: sensor altitude %s out of range 0..%s: %w", alt, maxAltitude, sensirion.ErrInvalidInput)
	}
	return uint16(alt / physic.Metre), nil
}

// encodePressure returns the wire value in hPa.
func encodePressure(p physic.Pressure) (uint16, error) {
	if p < minPressure || p > maxPressure {
		return 0, fmt.Errorf("scd4x: ambient pressure %s out of range %s..%s: %w", p, minPressure, maxPressure, sensirion.ErrInvalidInput)
	}
	return uint16(p / (100 * physic.Pascal)), nil
}

func decodePressure(raw uint16) physic.Pressure {
	return physic.Pressure(raw) * 100 * physic.Pascal
}

func encodeTarget(what string, ppm PPM) (uint16, error) {
	if ppm < minTargetPPM || ppm > maxTargetPPM {
		return 0, fmt.Errorf("scd4x: %s %s out of range %d..%d: %w", what, ppm, minTargetPPM, maxTargetPPM, sensirion.ErrInvalidInput)
	}
	return uint16(ppm), nil
}

// encodeASCPeriod returns the wire value in hours. The sensor only accepts
// multiples of 4 hours.
func encodeASCPeriod(what string, d time.Duration) (uint16, error) {
	if d <= 0 || d%(ascPeriodHours*time.Hour) != 0 || d/time.Hour > math.MaxUint16 {
		return 0, fmt.Errorf("scd4x: %s %s must be a positive multiple of %dh: %w", what, d, ascPeriodHours, sensirion.ErrInvalidInput)
	}
	return uint16(d / time.Hour), nil
}

func decodeASCPeriod(raw uint16) time.Duration {
	return time.Duration(raw) * time.Hour
}
