// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// DevConfig is the current running configuration of the device. Values prefixed
// with ASC refer to Auto-Self-Calibration. Use Configuration() to read
// the value, and SetConfiguration() to apply changes.
//
// Refer to the datasheet for more information on settings.
type DevConfig struct {
	// Ambient pressure value. Used to adjust operation of sensor.
	AmbientPressure physic.Pressure
	// Automatic-Self-Calibration enabled. True or false.
	ASCEnabled bool
	// Refer to datasheet for usage. SCD41 only.
	ASCInitialPeriod time.Duration
	// Refer to datasheet for usage. SCD41 only.
	ASCStandardPeriod time.Duration
	// Target CO2 concentration for automatic self calibration.
	ASCTarget PPM
	// Sensor altitude in metres. Alternative method to adjust ambient pressure
	// for sensor correction.
	SensorAltitude physic.Distance
	// The 48 bit unique serial number of the device. Read-Only
	SerialNumber uint64
	// Offset temperature subtracted from the reading. Refer to the datasheet
	// for usage.
	TemperatureOffset physic.Temperature
	// The Type of sensor. Read-Only
	SensorType Variant
}

// Configuration returns a structure containing all of the scd4x configuration
// variables. You can then alter settings and call SetConfiguration with it.
// The sensor must be idle.
//
// To examine the device use:
//
//	cfg, _ := dev.Configuration()
//	fmt.Printf("Configuration=%#v\n", cfg)
func (d *SCD40) Configuration() (*DevConfig, error) {
	return d.configuration(false)
}

// SetConfiguration alters the configuration of the sensor. Only settings that
// differ from the running configuration are written. Note that this call
// does not persist the settings to EEPROM. You need to call PersistSettings()
// to commit the writes to EEPROM. If you do not persist changes, then those
// settings will be lost when the unit is power-cycled.
func (d *SCD40) SetConfiguration(cfg *DevConfig) error {
	return d.setConfiguration(cfg, false)
}

// Configuration returns all of the scd4x configuration variables, including
// the ASC periods.
func (d *SCD41) Configuration() (*DevConfig, error) {
	return d.configuration(true)
}

// SetConfiguration alters the configuration of the sensor, including the ASC
// periods. See SCD40.SetConfiguration.
func (d *SCD41) SetConfiguration(cfg *DevConfig) error {
	return d.setConfiguration(cfg, true)
}

func (d *dev) configuration(extended bool) (*DevConfig, error) {
	cfg := &DevConfig{}
	var err error

	if cfg.AmbientPressure, err = d.AmbientPressure(); err != nil {
		return nil, err
	}
	if cfg.ASCEnabled, err = d.AutomaticSelfCalibration(); err != nil {
		return nil, err
	}
	if extended {
		if cfg.ASCInitialPeriod, err = d.ascPeriod(cmdGetASCInitialPeriod); err != nil {
			return nil, err
		}
		if cfg.ASCStandardPeriod, err = d.ascPeriod(cmdGetASCStandardPeriod); err != nil {
			return nil, err
		}
	}
	if cfg.ASCTarget, err = d.AutomaticSelfCalibrationTarget(); err != nil {
		return nil, err
	}
	if cfg.SerialNumber, err = d.SerialNumber(); err != nil {
		return nil, err
	}
	if cfg.SensorType, err = d.SensorVariant(); err != nil {
		return nil, err
	}
	if cfg.SensorAltitude, err = d.SensorAltitude(); err != nil {
		return nil, err
	}
	if cfg.TemperatureOffset, err = d.TemperatureOffset(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (d *dev) setConfiguration(newCfg *DevConfig, extended bool) error {
	current, err := d.configuration(extended)
	if err != nil {
		return err
	}

	if current.AmbientPressure != newCfg.AmbientPressure {
		if err := d.SetAmbientPressure(newCfg.AmbientPressure); err != nil {
			return err
		}
	}
	if current.ASCEnabled != newCfg.ASCEnabled {
		if err := d.SetAutomaticSelfCalibration(newCfg.ASCEnabled); err != nil {
			return err
		}
	}
	if extended {
		if current.ASCInitialPeriod != newCfg.ASCInitialPeriod {
			if err := d.setASCPeriod(cmdSetASCInitialPeriod, "initial period", newCfg.ASCInitialPeriod); err != nil {
				return err
			}
		}
		if current.ASCStandardPeriod != newCfg.ASCStandardPeriod {
			if err := d.setASCPeriod(cmdSetASCStandardPeriod, "standard period", newCfg.ASCStandardPeriod); err != nil {
				return err
			}
		}
	}
	if current.ASCTarget != newCfg.ASCTarget {
		if err := d.SetAutomaticSelfCalibrationTarget(newCfg.ASCTarget); err != nil {
			return err
		}
	}
	if current.SensorAltitude != newCfg.SensorAltitude {
		if err := d.SetSensorAltitude(newCfg.SensorAltitude); err != nil {
			return err
		}
	}
	if current.TemperatureOffset != newCfg.TemperatureOffset {
		if err := d.SetTemperatureOffset(newCfg.TemperatureOffset); err != nil {
			return err
		}
	}
	return nil
}
