// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scd30 provides a driver for the Sensirion SCD30 NDIR CO2 sensor
// module.
//
// The SCD30 reports CO2 concentration, temperature and humidity as IEEE 754
// floats. Unlike the SCD4x family it accepts every command while measuring.
// Settings such as the measurement interval, the temperature offset and the
// altitude are kept in the sensor's non-volatile memory.
//
// Datasheet
//
// https://sensirion.com/media/documents/D7CEEF4A/6165372F/Sensirion_CO2_Sensors_SCD30_Interface_Description.pdf
package scd30
