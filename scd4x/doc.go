// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scd4x provides a driver for the Sensiron SCD4x CO2 sensors.
// The scd4x family provide a compact sensor that can be used to measure
// Temperature, Humidity, and CO2 concentration.
//
// Use NewSCD40 for the base model and NewSCD41 for the SCD41, which adds
// single shot measurements and power down. Configuration commands are refused
// with sensirion.ErrNotAllowed while periodic measurement is running; call
// StopPeriodicMeasurement or Halt first.
//
// Refer to the datasheet for more information.
//
// https://sensirion.com/media/documents/48C4B7FB/66E05452/CD_DS_SCD4x_Datasheet_D1.pdf
package scd4x
