// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scd is a container for the Sensirion CO2 sensor drivers.
//
// scd4x drives the SCD40 and SCD41, scd30 drives the SCD30. Both are built on
// the shared I²C command layer in sensirion. cmd/scdmon is a small monitor
// using either family.
package scd
