// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"fmt"
	"sync"

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

// Type of reset to perform.
type ResetMode int

const (
	ResetFactory ResetMode = iota
	// Reset to last values stored in EEPROM
	ResetEEPROM
)

const (
	// These devices only support this i2c address.
	SensorAddress uint16 = 0x62
)

// dev implements the operations shared by all models of the family.
type dev struct {
	c *sensirion.Conn

	mu sync.Mutex
	// channel to halt SenseContinuous
	chHalt chan struct{}
	wg     sync.WaitGroup
}

// SCD40 is the base model. It implements the commands common to the family.
type SCD40 struct {
	dev
}

// SCD41 adds single shot measurements, power down and the automatic self
// calibration periods to the SCD40 commands.
type SCD41 struct {
	dev
}

// NewSCD40 returns a driver for an SCD40 on bus. No I/O is performed; the
// sensor is assumed idle.
func NewSCD40(bus i2c.Bus, opts *Opts) *SCD40 {
	d := &SCD40{}
	d.c = newConn(bus, opts)
	return d
}

// NewSCD41 returns a driver for an SCD41 on bus. No I/O is performed; the
// sensor is assumed idle.
func NewSCD41(bus i2c.Bus, opts *Opts) *SCD41 {
	d := &SCD41{}
	d.c = newConn(bus, opts)
	return d
}

func newConn(bus i2c.Bus, opts *Opts) *sensirion.Conn {
	return sensirion.NewConn("scd4x", bus, SensorAddress, opts)
}

// StartPeriodicMeasurement starts measuring with a signal update interval of
// 5 seconds. Most configuration commands are refused until
// StopPeriodicMeasurement is called.
func (d *dev) StartPeriodicMeasurement() error {
	return d.c.Start(cmdStartPeriodic)
}

// StartLowPowerPeriodicMeasurement starts measuring with a signal update
// interval of about 30 seconds. The same restrictions as for
// StartPeriodicMeasurement apply.
func (d *dev) StartLowPowerPeriodicMeasurement() error {
	return d.c.Start(cmdStartLowPower)
}

// StopPeriodicMeasurement returns the sensor to idle. It waits the 500ms the
// sensor needs before it accepts other commands.
func (d *dev) StopPeriodicMeasurement() error {
	return d.c.Stop(cmdStopPeriodic)
}

// Measuring returns true while periodic measurement runs.
func (d *dev) Measuring() bool {
	return d.c.Measuring()
}

// DataReady returns true if a measurement can be read.
func (d *dev) DataReady() (bool, error) {
	w, err := d.c.ReadWord(cmdGetDataReadyStatus)
	if err != nil {
		return false, err
	}
	return w&dataReadyMask != 0, nil
}

// ReadMeasurement reads the last measurement. The sensor buffer is emptied by
// the read; call DataReady first to avoid a NACK.
func (d *dev) ReadMeasurement() (Measurement, error) {
	var buf [9]byte
	if err := d.c.Query(cmdReadMeasurement, buf[:]); err != nil {
		return Measurement{}, err
	}
	return decodeMeasurement(buf), nil
}

// SetTemperatureOffset sets the offset subtracted from the temperature
// reading to account for self heating.
//
// offset is a temperature difference, e.g. 4 * physic.Kelvin for 4°C, not an
// absolute temperature: physic.ZeroCelsius + 4*physic.Celsius is rejected.
// It must be between 0 and 175 K.
func (d *dev) SetTemperatureOffset(offset physic.Temperature) error {
	w, err := encodeTemperatureOffset(offsetToCelsius(offset))
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdSetTemperatureOffset, w)
}

// TemperatureOffset returns the configured temperature offset.
func (d *dev) TemperatureOffset() (physic.Temperature, error) {
	w, err := d.c.ReadWord(cmdGetTemperatureOffset)
	if err != nil {
		return 0, err
	}
	return decodeTemperatureOffset(w), nil
}

// SetSensorAltitude sets the altitude used for pressure compensation, 0 to
// 3000m. Truncated to whole metres.
func (d *dev) SetSensorAltitude(alt physic.Distance) error {
	w, err := encodeAltitude(alt)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdSetSensorAltitude, w)
}

// SensorAltitude returns the configured altitude.
func (d *dev) SensorAltitude() (physic.Distance, error) {
	w, err := d.c.ReadWord(cmdGetSensorAltitude)
	if err != nil {
		return 0, err
	}
	return physic.Distance(w) * physic.Metre, nil
}

// SetAmbientPressure sets the pressure used for compensation, overriding the
// sensor altitude. Valid values are 70kPa to 120kPa, truncated to hPa. It can
// be sent during periodic measurement.
func (d *dev) SetAmbientPressure(p physic.Pressure) error {
	w, err := encodePressure(p)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdSetAmbientPressure, w)
}

// AmbientPressure returns the pressure used for compensation.
func (d *dev) AmbientPressure() (physic.Pressure, error) {
	w, err := d.c.ReadWord(cmdGetAmbientPressure)
	if err != nil {
		return 0, err
	}
	return decodePressure(w), nil
}

// SetAutomaticSelfCalibration enables or disables automatic self
// calibration (ASC).
func (d *dev) SetAutomaticSelfCalibration(enabled bool) error {
	var w uint16
	if enabled {
		w = 1
	}
	return d.c.WriteData(cmdSetASCEnabled, w)
}

// AutomaticSelfCalibration returns true if ASC is enabled.
func (d *dev) AutomaticSelfCalibration() (bool, error) {
	w, err := d.c.ReadWord(cmdGetASCEnabled)
	if err != nil {
		return false, err
	}
	return w != 0, nil
}

// SetAutomaticSelfCalibrationTarget sets the background CO2 concentration
// the sensor is regularly exposed to, 400 to 2000 PPM. To obtain the current
// value, visit:
//
// https://www.co2.earth/daily-co2
func (d *dev) SetAutomaticSelfCalibrationTarget(target PPM) error {
	w, err := encodeTarget("asc target", target)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmdSetASCTarget, w)
}

// AutomaticSelfCalibrationTarget returns the ASC baseline target.
func (d *dev) AutomaticSelfCalibrationTarget() (PPM, error) {
	w, err := d.c.ReadWord(cmdGetASCTarget)
	if err != nil {
		return 0, err
	}
	return PPM(w), nil
}

// PerformForcedRecalibration tells the sensor the CO2 concentration it is
// currently exposed to. The sensor must have been measuring for at least 3
// minutes in a stable environment, then stopped.
//
// ok is false if the sensor rejected the recalibration. Otherwise correction
// is the change applied, in PPM.
func (d *dev) PerformForcedRecalibration(target PPM) (correction int16, ok bool, err error) {
	w, err := encodeTarget("recalibration target", target)
	if err != nil {
		return 0, false, err
	}
	var buf [3]byte
	if err := d.c.QueryData(cmdPerformForcedRecalibration, w, buf[:]); err != nil {
		return 0, false, err
	}
	correction, ok = decodeFRCStatus(sensirion.Word(buf[:], 0))
	return correction, ok, nil
}

// PersistSettings writes the current running configuration to the sensor
// EEPROM for use on the next power-up. The EEPROM supports a limited number of
// write cycles.
func (d *dev) PersistSettings() error {
	return d.c.Write(cmdPersistSettings)
}

// SerialNumber returns the 48 bit unique serial number of the sensor.
func (d *dev) SerialNumber() (uint64, error) {
	var buf [9]byte
	if err := d.c.Query(cmdGetSerialNumber, buf[:]); err != nil {
		return 0, err
	}
	return decodeSerialNumber(buf), nil
}

// SensorVariant returns the model reported by the sensor. Use Variant.Known
// to check that it is one of the listed variants.
func (d *dev) SensorVariant() (Variant, error) {
	w, err := d.c.ReadWord(cmdGetSensorVariant)
	if err != nil {
		return 0, err
	}
	v, _ := decodeSensorVariant(w)
	return v, nil
}

// PerformSelfTest runs the built-in self test. It takes 10 seconds. ok is
// true if no malfunction was detected.
func (d *dev) PerformSelfTest() (ok bool, err error) {
	w, err := d.c.ReadWord(cmdPerformSelfTest)
	if err != nil {
		return false, err
	}
	return w == 0, nil
}

// PerformFactoryReset resets all settings stored in the EEPROM and erases the
// FRC and ASC history.
func (d *dev) PerformFactoryReset() error {
	return d.c.Write(cmdPerformFactoryReset)
}

// Reinit reloads the user settings from EEPROM.
func (d *dev) Reinit() error {
	return d.c.Write(cmdReinit)
}

// Reset performs either a factory reset, or a re-load of settings from EEPROM
// depending on the value of mode. During development, it was noticed that
// ResetFactory DOES NOT reset AmbientPressure to 0.
func (d *dev) Reset(mode ResetMode) error {
	switch mode {
	case ResetFactory:
		return d.PerformFactoryReset()
	case ResetEEPROM:
		return d.Reinit()
	}
	return fmt.Errorf("scd4x: invalid reset mode 0x%x: %w", int(mode), sensirion.ErrInvalidInput)
}

// Release stops SenseContinuous if running and returns the bus. The driver
// must not be used afterwards. No command is sent to the sensor.
func (d *dev) Release() i2c.Bus {
	d.haltContinuous()
	return d.c.Release()
}

func (d *dev) String() string {
	return d.c.String()
}

var _ conn.Resource = &SCD40{}
var _ conn.Resource = &SCD41{}
