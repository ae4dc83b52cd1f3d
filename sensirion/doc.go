// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensirion implements the I²C command protocol shared by the
// Sensirion SCD30 and SCD4x CO2 sensors.
//
// Every transaction is a 16-bit big-endian command word, optionally followed
// by one data word and its CRC. Responses are a sequence of 3 byte groups, a
// big-endian word followed by the CRC8 of that word. After each write the
// sensor needs some execution time before it accepts the next transaction;
// Conn waits that time out using an injected Delayer.
//
// Conn also tracks whether the sensor is running periodic measurements and
// refuses commands the sensor does not accept in that state, before any byte
// is sent on the bus.
//
// This package is used by the scd30 and scd4x packages. Applications
// normally do not use it directly except for its error values and the
// Measurement type.
package sensirion
