// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
)

// MeasureSingleShot starts an on-demand measurement of CO2, temperature and
// humidity and waits the 5 seconds it takes. Read the result with
// ReadMeasurement.
func (d *SCD41) MeasureSingleShot() error {
	return d.c.Write(cmdMeasureSingleShot)
}

// MeasureSingleShotRHTOnly starts an on-demand measurement of temperature and
// humidity only. ReadMeasurement then returns 0 PPM for CO2.
func (d *SCD41) MeasureSingleShotRHTOnly() error {
	return d.c.Write(cmdMeasureSingleShotRHTOnly)
}

// PowerDown puts the idle sensor to sleep.
func (d *SCD41) PowerDown() error {
	return d.c.Write(cmdPowerDown)
}

// WakeUp wakes the sensor from sleep. The sensor does not acknowledge this
// command, so buses reporting NACKs return an error even when the sensor woke
// up. Reading the serial number verifies the sensor is idle.
func (d *SCD41) WakeUp() error {
	return d.c.Write(cmdWakeUp)
}

// SetAutomaticSelfCalibrationInitialPeriod sets the time after power up at
// which the first ASC correction is applied. It must be a multiple of 4
// hours.
func (d *SCD41) SetAutomaticSelfCalibrationInitialPeriod(p time.Duration) error {
	return d.setASCPeriod(cmdSetASCInitialPeriod, "initial period", p)
}

// AutomaticSelfCalibrationInitialPeriod returns the ASC initial period.
func (d *SCD41) AutomaticSelfCalibrationInitialPeriod() (time.Duration, error) {
	return d.ascPeriod(cmdGetASCInitialPeriod)
}

// SetAutomaticSelfCalibrationStandardPeriod sets the interval between ASC
// corrections after the initial period. It must be a multiple of 4 hours.
func (d *SCD41) SetAutomaticSelfCalibrationStandardPeriod(p time.Duration) error {
	return d.setASCPeriod(cmdSetASCStandardPeriod, "standard period", p)
}

// AutomaticSelfCalibrationStandardPeriod returns the ASC standard period.
func (d *SCD41) AutomaticSelfCalibrationStandardPeriod() (time.Duration, error) {
	return d.ascPeriod(cmdGetASCStandardPeriod)
}

func (d *dev) setASCPeriod(cmd sensirion.Command, what string, p time.Duration) error {
	w, err := encodeASCPeriod(what, p)
	if err != nil {
		return err
	}
	return d.c.WriteData(cmd, w)
}

func (d *dev) ascPeriod(cmd sensirion.Command) (time.Duration, error) {
	w, err := d.c.ReadWord(cmd)
	if err != nil {
		return 0, err
	}
	return decodeASCPeriod(w), nil
}
