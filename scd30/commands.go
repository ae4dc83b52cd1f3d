// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
)

const (
	// Wait after every write. The interface description only requires 3ms
	// before some reads; it is applied to all commands.
	writeDelay = 5 * time.Millisecond
	// Time the sensor takes to boot after a soft reset.
	bootDelay = 2 * time.Second
)

// The SCD30 accepts every command during continuous measurement. Get and set
// variants share an opcode; the set variant carries a data word.
var (
	cmdStartContinuous = command("trigger_continuous_measurement", 0x0010)
	cmdStopContinuous  = command("stop_continuous_measurement", 0x0104)

	cmdMeasurementInterval = command("measurement_interval", 0x4600)
	cmdGetDataReady        = command("get_data_ready", 0x0202)
	cmdReadMeasurement     = command("read_measurement", 0x0300)

	cmdAutomaticSelfCalibration = command("automatic_self_calibration", 0x5306)
	cmdForcedRecalibration      = command("forced_recalibration_value", 0x5204)
	cmdTemperatureOffset        = command("temperature_offset", 0x5403)
	cmdAltitudeCompensation     = command("altitude_compensation", 0x5102)

	cmdReadFirmwareVersion = command("read_firmware_version", 0xd100)
	cmdSoftReset           = command("soft_reset", 0xd304)
)

func command(name string, opcode uint16) sensirion.Command {
	return sensirion.Command{Name: name, Opcode: opcode, Exec: writeDelay, WhileMeasuring: true}
}
