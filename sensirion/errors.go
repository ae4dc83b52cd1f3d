// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensirion

import (
	"errors"
	"fmt"
)

var (
	// ErrCRC is matched by errors.Is when a response failed checksum
	// verification. The response is discarded.
	ErrCRC = errors.New("invalid crc")
	// ErrNotAllowed is matched by errors.Is when a command was refused
	// because periodic measurement is running.
	ErrNotAllowed = errors.New("command not allowed during periodic measurement")
	// ErrInvalidInput is wrapped by errors for parameters outside the range
	// the sensor accepts. Nothing was sent to the sensor.
	ErrInvalidInput = errors.New("invalid input")
	// ErrReleased is returned by a Conn after Release was called.
	ErrReleased = errors.New("bus released")
)

// BusError is returned when the I²C bus reported a failure. Err is the error
// returned by the bus, unchanged.
type BusError struct {
	Device string
	// Op is "write" or "read".
	Op  string
	Cmd Command
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Device, e.Op, e.Cmd, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// ChecksumError is returned when a response to Cmd failed CRC verification.
type ChecksumError struct {
	Device string
	Cmd    Command
	// Data is a copy of the bytes received.
	Data []byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: %s: %s % x", e.Device, e.Cmd, ErrCRC, e.Data)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrCRC
}

// NotAllowedError is returned when Cmd can't be sent while the sensor runs
// periodic measurements.
type NotAllowedError struct {
	Device string
	Cmd    Command
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Device, e.Cmd, ErrNotAllowed)
}

func (e *NotAllowedError) Is(target error) bool {
	return target == ErrNotAllowed
}
