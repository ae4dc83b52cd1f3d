// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"sync"
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM = sensirion.PPM

// Measurement is a sensor reading: CO2 PPM, Temperature, and Humidity.
type Measurement = sensirion.Measurement

// Opts holds the delay and logging options. nil means sensirion.DefaultOpts.
type Opts = sensirion.Opts

// SensorAddress is the only address of the SCD30.
const SensorAddress uint16 = 0x61

// readySlack is the number of data ready polls done by Sense on top of one
// measurement interval.
const readySlack = 5

// Dev represents an SCD30 sensor.
type Dev struct {
	c *sensirion.Conn

	mu sync.Mutex
	// interval is the last measurement interval written to or read from the
	// sensor, 0 when unknown. The sensor keeps it across power cycles.
	interval time.Duration
}

// New returns a driver for the SCD30 on bus. No I/O is performed.
func New(bus i2c.Bus, opts *Opts) *Dev {
	return &Dev{c: sensirion.NewConn("scd30", bus, SensorAddress, opts)}
}

// StartContinuousMeasurement starts measuring. pressure is used to
// compensate the CO2 reading, valid values are 70kPa to 140kPa. 0 disables
// pressure compensation and falls back to the altitude. The measurement state
// is kept across power cycles by the sensor.
//
// It can be sent again during measurement to update the pressure.
func (d *Dev) StartContinuousMeasurement(pressure physic.Pressure) error {
	w, err := encodePressure(pressure)
	if err != nil {
		return err
	}
	return d.c.StartData(cmdStartContinuous, w)
}

// StopContinuousMeasurement stops measuring.
func (d *Dev) StopContinuousMeasurement() error {
	return d.c.Stop(cmdStopContinuous)
}

// Measuring returns true if StartContinuousMeasurement was called on this
// driver and not stopped since.
func (d *Dev) Measuring() bool {
	return d.c.Measuring()
}

// SetMeasurementInterval sets the interval between measurements, 2s to 30min
// truncated to whole seconds.
func (d *Dev) SetMeasurementInterval(interval time.Duration) error {
	w, err := encodeInterval(interval)
	if err != nil {
		return err
	}
	if err := d.c.WriteData(cmdMeasurementInterval, w); err != nil {
		return err
	}
	d.setInterval(time.Duration(w) * time.Second)
	return nil
}

// MeasurementInterval returns the interval between measurements.
func (d *Dev) MeasurementInterval() (time.Duration, error) {
	w, err := d.c.ReadWord(cmdMeasurementInterval)
	if err != nil {
		return 0, err
	}
	i := time.Duration(w) * time.Second
	d.setInterval(i)
	return i, nil
}

func (d *Dev) setInterval(i time.Duration) {
	d.mu.Lock()
	d.interval = i
	d.mu.Unlock()
}

// readyPolls returns how many 1s data ready polls cover one measurement
// interval. The interval is read from the sensor the first time.
func (d *Dev) readyPolls() (int, error) {
	d.mu.Lock()
	i := d.interval
	d.mu.Unlock()
	if i == 0 {
		var err error
		if i, err = d.MeasurementInterval(); err != nil {
			return 0, err
		}
	}
	return int((i+time.Second-1)/time.Second) + readySlack, nil
}

// DataReady returns true if a measurement can be read.
func (d *Dev) DataReady() (bool, error) {
	w, err := d.c.ReadWord(cmdGetDataReady)
	if err != nil {
		return false, err
	}
	return w == 1, nil
}

// ReadMeasurement reads the last measurement. Check DataReady first.
func (d *Dev) ReadMeasurement() (Measurement, error) {
	var buf [18]byte
	if err := d.c.Query(cmdReadMeasurement, buf[:]); err != nil {
		return Measurement{}, err
	}
	return decodeMeasurement(buf), nil
}

// SetAutomaticSelfCalibration enables or disables automatic self
// calibration. It needs 7 days of continuous operation with daily exposure
// to fresh air to find its initial parameters.
func (d *Dev) SetAutomaticSelfCalibration(enabled bool) error {
	var w uint16
	if enabled {
		w = 1
	}
	return d.c.WriteData(cmdAutomaticSelfCalibration, w)
}

// AutomaticSelfCalibration returns true if automatic self calibration is
// enabled.
func (d *Dev) AutomaticSelfCalibration() (bool, error) {
	w, err := d.c.ReadWord(cmdAutomaticSelfCalibration)
	if err != nil {
		return false, err
	}
	return w == 1, nil
}

// SetForcedRecalibrationValue recalibrates the sensor to the given CO2
// concentration, 400 to 2000 PPM. The sensor should have been measuring in a
// stable environment at a 2s interval for 2 minutes.
func (d *Dev) SetForcedRecalibrationValue(ppm PPM) error {
	w, err := encodeFRC(ppm)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdForcedRecalibration, w)
}

// ForcedRecalibrationValue returns the last reference value used. It is 400
// PPM after power up.
func (d *Dev) ForcedRecalibrationValue() (PPM, error) {
	w, err := d.c.ReadWord(cmdForcedRecalibration)
	if err != nil {
		return 0, err
	}
	return PPM(w), nil
}

// SetTemperatureOffset sets the offset compensating for self heating. It is
// truncated to 0.01°C.
//
// offset is a temperature difference, e.g. 2 * physic.Kelvin, not an absolute
// temperature.
func (d *Dev) SetTemperatureOffset(offset physic.Temperature) error {
	w, err := encodeTemperatureOffset(offset)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdTemperatureOffset, w)
}

// TemperatureOffset returns the temperature offset.
func (d *Dev) TemperatureOffset() (physic.Temperature, error) {
	w, err := d.c.ReadWord(cmdTemperatureOffset)
	if err != nil {
		return 0, err
	}
	return decodeTemperatureOffset(w), nil
}

// SetAltitudeCompensation sets the altitude above sea level. It is ignored
// by the sensor while an ambient pressure is set.
func (d *Dev) SetAltitudeCompensation(alt physic.Distance) error {
	w, err := encodeAltitude(alt)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdAltitudeCompensation, w)
}

// AltitudeCompensation returns the altitude above sea level.
func (d *Dev) AltitudeCompensation() (physic.Distance, error) {
	w, err := d.c.ReadWord(cmdAltitudeCompensation)
	if err != nil {
		return 0, err
	}
	return physic.Distance(w) * physic.Metre, nil
}

// FirmwareVersion returns the firmware major and minor version.
func (d *Dev) FirmwareVersion() (major, minor uint8, err error) {
	w, err := d.c.ReadWord(cmdReadFirmwareVersion)
	if err != nil {
		return 0, 0, err
	}
	major, minor = decodeFirmwareVersion(w)
	return major, minor, nil
}

// SoftReset restarts the sensor and waits for it to boot. Calibration data
// is reloaded. The measurement state stored in the sensor is unchanged.
func (d *Dev) SoftReset() error {
	if err := d.c.Write(cmdSoftReset); err != nil {
		return err
	}
	d.c.Wait(bootDelay)
	return nil
}

// Sense starts continuous measurement without pressure compensation if it
// isn't running, waits for data and reads it. It waits up to one measurement
// interval plus a few seconds.
func (d *Dev) Sense(m *Measurement) error {
	*m = Measurement{}
	if !d.c.Measuring() {
		if err := d.StartContinuousMeasurement(0); err != nil {
			return err
		}
	}
	polls, err := d.readyPolls()
	if err != nil {
		return err
	}
	for range polls {
		ready, err := d.DataReady()
		if err != nil {
			return err
		}
		if ready {
			r, err := d.ReadMeasurement()
			if err != nil {
				return err
			}
			*m = r
			return nil
		}
		d.c.Wait(time.Second)
	}
	return errors.New("scd30: timeout waiting for data ready status")
}

// Halt stops continuous measurement if this driver started it.
func (d *Dev) Halt() error {
	if !d.c.Measuring() {
		return nil
	}
	return d.StopContinuousMeasurement()
}

// Release returns the bus. The driver must not be used afterwards.
func (d *Dev) Release() i2c.Bus {
	return d.c.Release()
}

func (d *Dev) String() string {
	return d.c.String()
}

var _ conn.Resource = &Dev{}
