// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensirion

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GermanBionicSystems/scd/common"
	"periph.io/x/conn/v3/i2c"
)

// Opts holds the options shared by the device packages.
type Opts struct {
	// Delay waits out command execution times. Use Sleep for a blocking
	// wait or Cooperative to yield to a scheduler.
	Delay Delayer
	// Logger receives a Debug record for every bus transaction.
	Logger *slog.Logger
}

// DefaultOpts is used when nil is passed as Opts.
var DefaultOpts = Opts{Delay: Sleep}

// Conn is the command level connection to one sensor.
//
// It tracks the measuring state of the sensor. The state is only changed
// after the corresponding command was written successfully.
type Conn struct {
	mu    sync.Mutex
	d     *i2c.Dev
	name  string
	delay Delayer
	log   *slog.Logger
	// measuring is true while the sensor runs periodic measurements.
	measuring bool
	// last command written, used in read errors.
	last Command
}

// NewConn returns a Conn talking to the device at addr on bus. name prefixes
// error messages. No bus I/O is performed.
func NewConn(name string, bus i2c.Bus, addr uint16, opts *Opts) *Conn {
	if opts == nil {
		opts = &DefaultOpts
	}
	c := &Conn{
		d:     &i2c.Dev{Bus: bus, Addr: addr},
		name:  name,
		delay: opts.Delay,
		log:   opts.Logger,
	}
	if c.delay == nil {
		c.delay = Sleep
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c
}

func (c *Conn) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.d == nil {
		return c.name
	}
	return fmt.Sprintf("%s: %s", c.name, c.d)
}

// Logger returns the logger the Conn traces transactions to.
func (c *Conn) Logger() *slog.Logger {
	return c.log
}

// Measuring reports whether the sensor is in periodic measurement mode as far
// as this Conn knows.
func (c *Conn) Measuring() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measuring
}

// Write sends cmd and waits its execution time.
func (c *Conn) Write(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.Prepare()
	return c.write(cmd, w[:])
}

// WriteData sends cmd with one data word and waits its execution time.
func (c *Conn) WriteData(cmd Command, data uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.PrepareWithData(data)
	return c.write(cmd, w[:])
}

// Read receives len(buf) bytes and verifies the CRC of every group.
//
// It panics if len(buf) is not a multiple of 3.
func (c *Conn) Read(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(buf)
}

// Query sends cmd, waits its execution time then reads the response into buf.
func (c *Conn) Query(cmd Command, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.Prepare()
	if err := c.write(cmd, w[:]); err != nil {
		return err
	}
	return c.read(buf)
}

// QueryData is Query with one data word. The SCD4x forced recalibration
// command answers this way.
func (c *Conn) QueryData(cmd Command, data uint16, buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.PrepareWithData(data)
	if err := c.write(cmd, w[:]); err != nil {
		return err
	}
	return c.read(buf)
}

// ReadWord sends cmd and returns the single word the sensor answered.
func (c *Conn) ReadWord(cmd Command) (uint16, error) {
	var buf [common.ChunkSize]byte
	if err := c.Query(cmd, buf[:]); err != nil {
		return 0, err
	}
	return Word(buf[:], 0), nil
}

// Start sends cmd and marks the sensor as measuring.
func (c *Conn) Start(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.Prepare()
	if err := c.write(cmd, w[:]); err != nil {
		return err
	}
	c.measuring = true
	return nil
}

// StartData sends cmd with one data word and marks the sensor as measuring.
func (c *Conn) StartData(cmd Command, data uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.PrepareWithData(data)
	if err := c.write(cmd, w[:]); err != nil {
		return err
	}
	c.measuring = true
	return nil
}

// Stop sends cmd and marks the sensor as idle.
func (c *Conn) Stop(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := cmd.Prepare()
	if err := c.write(cmd, w[:]); err != nil {
		return err
	}
	c.measuring = false
	return nil
}

// Wait blocks for d using the configured Delayer.
func (c *Conn) Wait(d time.Duration) {
	c.delay.Delay(d)
}

// Release returns the bus. The Conn returns ErrReleased afterwards. It
// returns nil if the bus was already released.
func (c *Conn) Release() i2c.Bus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.d == nil {
		return nil
	}
	b := c.d.Bus
	c.d = nil
	return b
}

func (c *Conn) write(cmd Command, w []byte) error {
	if c.d == nil {
		return fmt.Errorf("%s: %s: %w", c.name, cmd, ErrReleased)
	}
	if c.measuring && !cmd.WhileMeasuring {
		return &NotAllowedError{Device: c.name, Cmd: cmd}
	}
	c.log.Debug("write", "dev", c.name, "cmd", cmd.String(), "bytes", fmt.Sprintf("% x", w))
	c.last = cmd
	if err := c.d.Tx(w, nil); err != nil {
		return &BusError{Device: c.name, Op: "write", Cmd: cmd, Err: err}
	}
	if cmd.Exec > 0 {
		c.delay.Delay(cmd.Exec)
	}
	return nil
}

func (c *Conn) read(buf []byte) error {
	if len(buf)%common.ChunkSize != 0 {
		panic(fmt.Sprintf("%s: read buffer length %d is not a multiple of %d", c.name, len(buf), common.ChunkSize))
	}
	if c.d == nil {
		return fmt.Errorf("%s: read: %w", c.name, ErrReleased)
	}
	if err := c.d.Tx(nil, buf); err != nil {
		return &BusError{Device: c.name, Op: "read", Cmd: c.last, Err: err}
	}
	c.log.Debug("read", "dev", c.name, "cmd", c.last.String(), "bytes", fmt.Sprintf("% x", buf))
	if !common.VerifyChunked(buf) {
		return &ChecksumError{Device: c.name, Cmd: c.last, Data: append([]byte(nil), buf...)}
	}
	return nil
}
