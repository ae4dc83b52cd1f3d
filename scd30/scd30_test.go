// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.
//
// Unit tests for the package. Note that this supports running on a live
// sensor, or using playback mode to simulate a live device.
//
// To use a live device, define the environment variable SCD30 and run go test.

package scd30

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/GermanBionicSystems/scd/common"
	"github.com/GermanBionicSystems/scd/sensirion"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var bus i2c.Bus
var liveDevice bool

// delays records the requested delays instead of sleeping.
type delays []time.Duration

func (d *delays) Delay(t time.Duration) {
	*d = append(*d, t)
}

func w(b ...byte) i2ctest.IO {
	return i2ctest.IO{Addr: SensorAddress, W: b}
}

func r(b ...byte) i2ctest.IO {
	return i2ctest.IO{Addr: SensorAddress, R: b}
}

var measurementBytes = []byte{
	0x43, 0xfa, 0x7c, 0x00, 0x00, 0x81, // 500 PPM
	0x41, 0xc8, 0x02, 0x00, 0x00, 0x81, // 25°C
	0x42, 0x14, 0x56, 0x00, 0x00, 0x81, // 37%
}

var sensePlayback = []i2ctest.IO{
	w(0x00, 0x10, 0x00, 0x00, 0x81),
	w(0x46, 0x00), r(0x00, 0x02, 0xe3),
	w(0x02, 0x02), r(0x00, 0x00, 0x81),
	w(0x02, 0x02), r(0x00, 0x01, 0xb0),
	w(0x03, 0x00), r(measurementBytes...),
	w(0x01, 0x04),
}

func init() {
	var err error
	if os.Getenv("SCD30") != "" {
		liveDevice = true
	}
	if _, err = host.Init(); err != nil {
		fmt.Println(err)
	}
	if liveDevice {
		bus, err = i2creg.Open("")
		if err != nil {
			fmt.Println(err)
		}
		bus = &i2ctest.Record{Bus: bus}
	} else {
		bus = &i2ctest.Playback{DontPanic: true}
	}
}

func getDev(playbackOps ...i2ctest.IO) (*Dev, *delays) {
	d := &delays{}
	if liveDevice {
		if recorder, ok := bus.(*i2ctest.Record); ok {
			recorder.Ops = make([]i2ctest.IO, 0, 32)
		}
		return New(bus, nil), d
	}
	pb := bus.(*i2ctest.Playback)
	pb.Ops = playbackOps
	pb.Count = 0
	return New(bus, &Opts{Delay: d}), d
}

func playbackOnly(t *testing.T) {
	if liveDevice {
		t.Skip("exact wire trace, playback only")
	}
}

func shutdown(t *testing.T) {
	switch b := bus.(type) {
	case *i2ctest.Record:
		t.Logf("%#v", b.Ops)
	case *i2ctest.Playback:
		if b.Count != len(b.Ops) {
			t.Errorf("playback: %d of %d operations performed", b.Count, len(b.Ops))
		}
	}
}

func TestDecodeMeasurement(t *testing.T) {
	var buf [18]byte
	copy(buf[:], measurementBytes)
	m := decodeMeasurement(buf)
	want := Measurement{CO2: 500}
	want.Temperature = physic.ZeroCelsius + 25*physic.Celsius
	want.Humidity = 37 * physic.PercentRH
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("decodeMeasurement() mismatch (-want +got):\n%s", diff)
	}

	// 439.6 PPM rounds up, NaN temperature and humidity read as 0.
	copy(buf[:], []byte{
		0x43, 0xdb, 0, 0xcc, 0xcd, 0,
		0x7f, 0xc0, 0, 0x00, 0x00, 0,
		0x7f, 0x80, 0, 0x00, 0x00, 0,
	})
	m = decodeMeasurement(buf)
	if m.CO2 != 440 || m.Temperature != physic.ZeroCelsius || m.Humidity != 0 {
		t.Errorf("decodeMeasurement()=%#v", m)
	}

	// Negative and huge CO2 values are clamped.
	copy(buf[:], []byte{0xc1, 0x20, 0, 0, 0, 0})
	if m = decodeMeasurement(buf); m.CO2 != 0 {
		t.Errorf("CO2=%d", m.CO2)
	}
	copy(buf[:], []byte{0x4f, 0x00, 0, 0, 0, 0})
	if m = decodeMeasurement(buf); m.CO2 != math.MaxUint16 {
		t.Errorf("CO2=%d", m.CO2)
	}
}

func TestSense(t *testing.T) {
	dev, _ := getDev(sensePlayback...)
	defer shutdown(t)
	var m Measurement
	if err := dev.Sense(&m); err != nil {
		t.Fatal(err)
	}
	t.Log(m.String())
	if !dev.Measuring() {
		t.Error("Sense() should leave measurement running")
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if !liveDevice && m.CO2 != 500 {
		t.Errorf("CO2=%s", m.CO2)
	}
}

func TestSettings(t *testing.T) {
	playbackOnly(t)
	dev, d := getDev(
		w(0x00, 0x10, 0x03, 0xf5, 0xdb),
		w(0x46, 0x00, 0x00, 0x02, 0xe3),
		w(0x46, 0x00), r(0x00, 0x02, 0xe3),
		w(0x54, 0x03, 0x01, 0xf4, 0x33),
		w(0x54, 0x03), r(0x01, 0xf4, 0x33),
		w(0x52, 0x04, 0x01, 0x90, 0x4c),
		w(0x52, 0x04), r(0x01, 0x90, 0x4c),
		w(0x51, 0x02, 0x00, 0x64, 0xfe),
		w(0x51, 0x02), r(0x00, 0x64, 0xfe),
		w(0x53, 0x06, 0x00, 0x01, 0xb0),
		w(0x53, 0x06), r(0x00, 0x01, 0xb0),
		w(0xd1, 0x00), r(0x03, 0x42, 0xf3),
		w(0xd3, 0x04),
		w(0x01, 0x04),
	)
	defer shutdown(t)

	// Every command is accepted while measuring.
	if err := dev.StartContinuousMeasurement(101300 * physic.Pascal); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetMeasurementInterval(2500 * time.Millisecond); err != nil {
		t.Error(err)
	}
	if i, err := dev.MeasurementInterval(); err != nil || i != 2*time.Second {
		t.Errorf("MeasurementInterval()=%s, %v", i, err)
	}
	if err := dev.SetTemperatureOffset(5 * physic.Kelvin); err != nil {
		t.Error(err)
	}
	if o, err := dev.TemperatureOffset(); err != nil || o != 5*physic.Kelvin {
		t.Errorf("TemperatureOffset()=%s, %v", o, err)
	}
	if err := dev.SetForcedRecalibrationValue(400); err != nil {
		t.Error(err)
	}
	if v, err := dev.ForcedRecalibrationValue(); err != nil || v != 400 {
		t.Errorf("ForcedRecalibrationValue()=%s, %v", v, err)
	}
	if err := dev.SetAltitudeCompensation(100 * physic.Metre); err != nil {
		t.Error(err)
	}
	if a, err := dev.AltitudeCompensation(); err != nil || a != 100*physic.Metre {
		t.Errorf("AltitudeCompensation()=%s, %v", a, err)
	}
	if err := dev.SetAutomaticSelfCalibration(true); err != nil {
		t.Error(err)
	}
	if on, err := dev.AutomaticSelfCalibration(); err != nil || !on {
		t.Errorf("AutomaticSelfCalibration()=%t, %v", on, err)
	}
	if major, minor, err := dev.FirmwareVersion(); err != nil || major != 3 || minor != 66 {
		t.Errorf("FirmwareVersion()=%d.%d, %v", major, minor, err)
	}
	if err := dev.SoftReset(); err != nil {
		t.Error(err)
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if dev.Measuring() {
		t.Error("Halt() left measurement running")
	}
	// 5ms after each of the 14 writes, plus the boot time.
	if len(*d) != 15 || (*d)[13] != bootDelay {
		t.Errorf("delays=%v", *d)
	}
}

func TestInvalidInput(t *testing.T) {
	playbackOnly(t)
	dev, _ := getDev()
	defer shutdown(t)
	checks := []error{
		dev.StartContinuousMeasurement(69 * physic.KiloPascal),
		dev.StartContinuousMeasurement(141 * physic.KiloPascal),
		dev.SetMeasurementInterval(time.Second),
		dev.SetMeasurementInterval(31 * time.Minute),
		dev.SetForcedRecalibrationValue(399),
		dev.SetForcedRecalibrationValue(2001),
		dev.SetTemperatureOffset(-physic.Kelvin),
		dev.SetTemperatureOffset(700 * physic.Kelvin),
		dev.SetAltitudeCompensation(-physic.Metre),
	}
	for i, err := range checks {
		if !errors.Is(err, sensirion.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if dev.Measuring() {
		t.Error("rejected start changed the state")
	}
}

func TestChecksumError(t *testing.T) {
	playbackOnly(t)
	dev, _ := getDev(w(0x02, 0x02), r(0x00, 0x01, 0xb1))
	defer shutdown(t)
	if _, err := dev.DataReady(); !errors.Is(err, sensirion.ErrCRC) {
		t.Errorf("DataReady() returned %v", err)
	}
}

func TestRelease(t *testing.T) {
	playbackOnly(t)
	dev, _ := getDev()
	defer shutdown(t)
	if s := dev.String(); s == "" {
		t.Error("String() returned empty value.")
	}
	if b := dev.Release(); b != bus {
		t.Errorf("Release()=%v", b)
	}
	if _, err := dev.DataReady(); !errors.Is(err, sensirion.ErrReleased) {
		t.Errorf("DataReady() after Release returned %v", err)
	}
}

// slowSensor has data ready once per measurement interval. Time only advances
// through the Delayer.
type slowSensor struct {
	interval uint16 // seconds
	now      time.Duration
	last     uint16
	// intervalReads counts measurement interval reads.
	intervalReads int
}

func (s *slowSensor) Delay(d time.Duration)           { s.now += d }
func (s *slowSensor) String() string                  { return "slow" }
func (s *slowSensor) SetSpeed(physic.Frequency) error { return nil }

func (s *slowSensor) Tx(addr uint16, w, r []byte) error {
	if len(w) >= 2 {
		s.last = binary.BigEndian.Uint16(w)
	}
	if len(r) == 0 {
		return nil
	}
	word := func(v uint16) {
		r[0], r[1] = byte(v>>8), byte(v)
		r[2] = common.CRC8(r[:2])
	}
	switch s.last {
	case cmdMeasurementInterval.Opcode:
		s.intervalReads++
		word(s.interval)
	case cmdGetDataReady.Opcode:
		if s.now >= time.Duration(s.interval)*time.Second {
			word(1)
		} else {
			word(0)
		}
	case cmdReadMeasurement.Opcode:
		copy(r, measurementBytes)
		s.now = 0
	default:
		return errors.New("slow: unexpected read")
	}
	return nil
}

func TestSenseLongInterval(t *testing.T) {
	s := &slowSensor{interval: 60}
	dev := New(s, &Opts{Delay: s})
	for range 2 {
		var m Measurement
		if err := dev.Sense(&m); err != nil {
			t.Fatal(err)
		}
		if m.CO2 != 500 {
			t.Errorf("CO2=%s", m.CO2)
		}
	}
	// The interval is read once then remembered.
	if s.intervalReads != 1 {
		t.Errorf("interval read %d times", s.intervalReads)
	}

	// An interval set through the driver is used without reading it back.
	s = &slowSensor{interval: 120}
	dev = New(s, &Opts{Delay: s})
	if err := dev.SetMeasurementInterval(120 * time.Second); err != nil {
		t.Fatal(err)
	}
	var m Measurement
	if err := dev.Sense(&m); err != nil {
		t.Fatal(err)
	}
	if s.intervalReads != 0 {
		t.Errorf("interval read %d times", s.intervalReads)
	}
}

func TestSenseTimeout(t *testing.T) {
	// The sensor reports a 2s interval but never has data.
	s := &slowSensor{interval: 2}
	s.now = -time.Hour
	dev := New(s, &Opts{Delay: s})
	var m Measurement
	if err := dev.Sense(&m); err == nil {
		t.Fatal("expected timeout")
	}
	// Start delay, interval read delay, data ready poll delays and one
	// second per poll.
	if want := -time.Hour + 2*writeDelay + (2+readySlack)*(time.Second+writeDelay); s.now != want {
		t.Errorf("waited %s, expected %s", s.now+time.Hour, want+time.Hour)
	}
}
