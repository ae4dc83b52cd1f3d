// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd4x

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"
)

// maxReadyPolls bounds the 1 second data ready polls done by Sense. It
// covers one low power measurement interval.
const maxReadyPolls = 35

// haltSlice is the granularity at which a halted SenseContinuous notices it
// while waiting for data.
const haltSlice = 100 * time.Millisecond

var errHalted = errors.New("scd4x: halted")

// Sense returns readings (Temperature, Humidity, and CO2 concentration in PPM)
// from the device. If periodic measurement isn't running it is started. Note
// that in normal acquisition mode, the minimum reading period is 5 seconds. If
// you call this function more frequently than this, it will block until data
// is ready.
func (d *dev) Sense(m *Measurement) error {
	return d.sense(m, nil)
}

// sense is Sense that gives up with errHalted as soon as halt is closed. A nil
// halt never closes.
func (d *dev) sense(m *Measurement, halt <-chan struct{}) error {
	*m = Measurement{}
	if !d.c.Measuring() {
		if err := d.StartPeriodicMeasurement(); err != nil {
			return err
		}
	}
	for range maxReadyPolls {
		ready, err := d.DataReady()
		if err != nil {
			return err
		}
		if ready {
			r, err := d.ReadMeasurement()
			if err != nil {
				return err
			}
			*m = r
			return nil
		}
		if err := d.wait(time.Second, halt); err != nil {
			return err
		}
	}
	return errors.New("scd4x: timeout waiting for data ready status")
}

// wait waits t in slices of haltSlice, checking halt between slices.
func (d *dev) wait(t time.Duration, halt <-chan struct{}) error {
	if halt == nil {
		d.c.Wait(t)
		return nil
	}
	for t > 0 {
		select {
		case <-halt:
			return errHalted
		default:
		}
		s := min(t, haltSlice)
		d.c.Wait(s)
		t -= s
	}
	return nil
}

// SenseContinuous continuously reads the sensor on the specified duration, and
// writes readings to the returned channel. The sense time for the scd4x device
// is 5 seconds in normal acquisition mode. If you specify a shorter period than
// that, the routine will spin until the device indicates a reading is ready.
// Readings are dropped when the channel is full. To terminate a continuous
// sense, call Halt().
func (d *dev) SenseContinuous(interval time.Duration) (<-chan Measurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chHalt != nil {
		return nil, errors.New("scd4x: SenseContinuous() running already")
	}
	if !d.c.Measuring() {
		if err := d.StartPeriodicMeasurement(); err != nil {
			return nil, err
		}
	}
	const channelSize = 16
	channel := make(chan Measurement, channelSize)
	halt := make(chan struct{})
	d.chHalt = halt
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		defer close(channel)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-halt:
				return
			case <-ticker.C:
				// Both channels may be ready; halting wins.
				select {
				case <-halt:
					return
				default:
				}
				var m Measurement
				if err := d.sense(&m, halt); errors.Is(err, errHalted) {
					return
				} else if err != nil {
					d.c.Logger().Warn("continuous read failed", "dev", d.c.String(), "err", err)
					continue
				}
				select {
				case channel <- m:
				default:
				}
			}
		}
	}()
	return channel, nil
}

// Halt stops a SenseContinuous operation if one is in progress, then stops
// periodic measurement if it is running.
func (d *dev) Halt() error {
	d.haltContinuous()
	if !d.c.Measuring() {
		return nil
	}
	return d.StopPeriodicMeasurement()
}

// haltContinuous stops the SenseContinuous goroutine and waits for it to exit.
func (d *dev) haltContinuous() {
	d.mu.Lock()
	halt := d.chHalt
	d.chHalt = nil
	d.mu.Unlock()
	if halt != nil {
		close(halt)
		d.wg.Wait()
	}
}

// Precision returns the sensor's resolution, or minimum value between steps the
// device can make. The specified precision is 1 PPM for CO2, 1/65535 for temperature
// and humidity.
func (d *dev) Precision(m *Measurement) {
	countIncrement := float64(1.0) / fullScale
	m.Temperature = physic.Temperature(countIncrement * tempSpan * float64(physic.Kelvin))
	m.Pressure = 0
	m.Humidity = physic.RelativeHumidity(100 * countIncrement * float64(physic.PercentRH))
	m.CO2 = 1
}
