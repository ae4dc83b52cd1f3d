// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
)

// Commands understood by every model of the family. Execution times are the
// datasheet maximums.
var (
	cmdStartPeriodic = sensirion.Command{Name: "start_periodic_measurement", Opcode: 0x21b1}
	cmdStartLowPower = sensirion.Command{Name: "start_low_power_periodic_measurement", Opcode: 0x21ac}
	cmdStopPeriodic  = sensirion.Command{Name: "stop_periodic_measurement", Opcode: 0x3f86, Exec: 500 * time.Millisecond, WhileMeasuring: true}

	cmdGetDataReadyStatus = sensirion.Command{Name: "get_data_ready_status", Opcode: 0xe4b8, Exec: time.Millisecond, WhileMeasuring: true}
	cmdReadMeasurement    = sensirion.Command{Name: "read_measurement", Opcode: 0xec05, Exec: time.Millisecond, WhileMeasuring: true}

	cmdSetTemperatureOffset = sensirion.Command{Name: "set_temperature_offset", Opcode: 0x241d, Exec: time.Millisecond}
	cmdGetTemperatureOffset = sensirion.Command{Name: "get_temperature_offset", Opcode: 0x2318, Exec: time.Millisecond}
	cmdSetSensorAltitude    = sensirion.Command{Name: "set_sensor_altitude", Opcode: 0x2427, Exec: time.Millisecond}
	cmdGetSensorAltitude    = sensirion.Command{Name: "get_sensor_altitude", Opcode: 0x2322, Exec: time.Millisecond}
	// Set and get share the opcode; set carries a data word.
	cmdSetAmbientPressure = sensirion.Command{Name: "set_ambient_pressure", Opcode: 0xe000, Exec: time.Millisecond, WhileMeasuring: true}
	cmdGetAmbientPressure = sensirion.Command{Name: "get_ambient_pressure", Opcode: 0xe000, Exec: time.Millisecond, WhileMeasuring: true}

	cmdSetASCEnabled = sensirion.Command{Name: "set_automatic_self_calibration_enabled", Opcode: 0x2416, Exec: time.Millisecond}
	cmdGetASCEnabled = sensirion.Command{Name: "get_automatic_self_calibration_enabled", Opcode: 0x2313, Exec: time.Millisecond}
	cmdSetASCTarget  = sensirion.Command{Name: "set_automatic_self_calibration_target", Opcode: 0x243a, Exec: time.Millisecond}
	cmdGetASCTarget  = sensirion.Command{Name: "get_automatic_self_calibration_target", Opcode: 0x233f, Exec: time.Millisecond}

	cmdPerformForcedRecalibration = sensirion.Command{Name: "perform_forced_recalibration", Opcode: 0x362f, Exec: 400 * time.Millisecond}
	cmdPersistSettings            = sensirion.Command{Name: "persist_settings", Opcode: 0x3615, Exec: 800 * time.Millisecond}
	cmdGetSerialNumber            = sensirion.Command{Name: "get_serial_number", Opcode: 0x3682, Exec: time.Millisecond}
	cmdPerformSelfTest            = sensirion.Command{Name: "perform_self_test", Opcode: 0x3639, Exec: 10 * time.Second}
	cmdPerformFactoryReset        = sensirion.Command{Name: "perform_factory_reset", Opcode: 0x3632, Exec: 1200 * time.Millisecond}
	cmdReinit                     = sensirion.Command{Name: "reinit", Opcode: 0x3646, Exec: 30 * time.Millisecond}
	cmdGetSensorVariant           = sensirion.Command{Name: "get_sensor_variant", Opcode: 0x202f, Exec: time.Millisecond}
)

// Commands only implemented by the SCD41. None of them is accepted during
// periodic measurement.
var (
	cmdMeasureSingleShot        = sensirion.Command{Name: "measure_single_shot", Opcode: 0x219d, Exec: 5 * time.Second}
	cmdMeasureSingleShotRHTOnly = sensirion.Command{Name: "measure_single_shot_rht_only", Opcode: 0x2196, Exec: 50 * time.Millisecond}
	cmdPowerDown                = sensirion.Command{Name: "power_down", Opcode: 0x36e0, Exec: time.Millisecond}
	cmdWakeUp                   = sensirion.Command{Name: "wake_up", Opcode: 0x36f6, Exec: 30 * time.Millisecond}

	cmdSetASCInitialPeriod  = sensirion.Command{Name: "set_automatic_self_calibration_initial_period", Opcode: 0x2445, Exec: time.Millisecond}
	cmdGetASCInitialPeriod  = sensirion.Command{Name: "get_automatic_self_calibration_initial_period", Opcode: 0x2340, Exec: time.Millisecond}
	cmdSetASCStandardPeriod = sensirion.Command{Name: "set_automatic_self_calibration_standard_period", Opcode: 0x244e, Exec: time.Millisecond}
	cmdGetASCStandardPeriod = sensirion.Command{Name: "get_automatic_self_calibration_standard_period", Opcode: 0x234b, Exec: time.Millisecond}
)
