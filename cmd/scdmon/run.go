// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GermanBionicSystems/scd/scd30"
	"github.com/GermanBionicSystems/scd/scd4x"
	"github.com/GermanBionicSystems/scd/sensirion"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// sensor is what the monitor loop needs from either family.
type sensor interface {
	conn.Resource
	DataReady() (bool, error)
	ReadMeasurement() (sensirion.Measurement, error)
}

// scd4xSensor is implemented by both scd4x.SCD40 and scd4x.SCD41.
type scd4xSensor interface {
	sensor
	StopPeriodicMeasurement() error
	StartPeriodicMeasurement() error
	SetSensorAltitude(physic.Distance) error
	SetTemperatureOffset(physic.Temperature) error
	SetAmbientPressure(physic.Pressure) error
}

type publisher interface {
	Publish(Telemetry) error
}

// Run measures until ctx is canceled.
func Run(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}
	defer bus.Close()

	opts := &sensirion.Opts{Delay: sensirion.Sleep, Logger: logger.With("sensor", cfg.Sensor)}
	dev, err := openSensor(bus, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			logger.Warn("halt failed", "sensor", dev.String(), "error", err)
		}
	}()
	logger.Info("measuring", "sensor", dev.String(), "bus", bus.String(), "interval", cfg.Interval)

	mon := &monitor{sensor: dev, name: cfg.Sensor, log: logger, now: time.Now}
	if cfg.Display.Width > 0 {
		bar := NewBar(cfg.Display.Width)
		defer bar.Halt()
		mon.bar = bar
	}
	if cfg.Snapshot.Path != "" {
		mon.snap = NewSnapshot(cfg.Snapshot)
	}
	if cfg.MQTT.Broker != "" {
		pub := NewPublisher(cfg.MQTT, logger)
		defer pub.Disconnect()
		if err := pub.Connect(ctx); err != nil {
			return err
		}
		mon.pub = pub
	}
	return mon.run(ctx, cfg.Interval)
}

// openSensor configures the sensor while idle and starts periodic
// measurement.
func openSensor(bus i2c.Bus, cfg *Config, opts *sensirion.Opts) (sensor, error) {
	alt := physic.Distance(cfg.Altitude) * physic.Metre
	offset := physic.Temperature(cfg.TemperatureOffset * float64(physic.Kelvin))
	pressure := physic.Pressure(cfg.Pressure) * physic.Pascal

	switch cfg.Sensor {
	case "scd30":
		d := scd30.New(bus, opts)
		if err := configureSCD30(d, cfg.Interval, alt, offset, pressure); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Sensor, err)
		}
		return d, nil
	case "scd40", "scd41":
		var d scd4xSensor
		if cfg.Sensor == "scd40" {
			d = scd4x.NewSCD40(bus, opts)
		} else {
			d = scd4x.NewSCD41(bus, opts)
		}
		if err := configureSCD4x(d, alt, offset, pressure); err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Sensor, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown sensor %q", cfg.Sensor)
	}
}

func configureSCD4x(d scd4xSensor, alt physic.Distance, offset physic.Temperature, pressure physic.Pressure) error {
	// A previous run may have left the sensor measuring.
	if err := d.StopPeriodicMeasurement(); err != nil {
		return err
	}
	if err := d.SetSensorAltitude(alt); err != nil {
		return err
	}
	if err := d.SetTemperatureOffset(offset); err != nil {
		return err
	}
	if pressure != 0 {
		if err := d.SetAmbientPressure(pressure); err != nil {
			return err
		}
	}
	return d.StartPeriodicMeasurement()
}

func configureSCD30(d *scd30.Dev, interval time.Duration, alt physic.Distance, offset physic.Temperature, pressure physic.Pressure) error {
	if err := d.StopContinuousMeasurement(); err != nil {
		return err
	}
	// The sensor measures at most every 2s and at least every 30min.
	interval = min(max(interval, 2*time.Second), 30*time.Minute)
	if err := d.SetMeasurementInterval(interval); err != nil {
		return err
	}
	if err := d.SetAltitudeCompensation(alt); err != nil {
		return err
	}
	if err := d.SetTemperatureOffset(offset); err != nil {
		return err
	}
	return d.StartContinuousMeasurement(pressure)
}

// monitor polls the sensor and fans readings out to the enabled outputs.
type monitor struct {
	sensor sensor
	name   string
	log    *slog.Logger
	now    func() time.Time

	bar  *Bar
	snap *Snapshot
	pub  publisher
}

func (m *monitor) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.tick(); err != nil {
				m.log.Warn("reading failed", "sensor", m.sensor.String(), "error", err)
			}
		}
	}
}

// tick reads one measurement if one is ready. Output failures are logged
// and don't stop the loop.
func (m *monitor) tick() error {
	ready, err := m.sensor.DataReady()
	if err != nil {
		return err
	}
	if !ready {
		m.log.Debug("no data ready")
		return nil
	}
	r, err := m.sensor.ReadMeasurement()
	if err != nil {
		return err
	}
	now := m.now()
	m.log.Info("measurement",
		"co2_ppm", int(r.CO2),
		"temperature_c", r.Temperature.Celsius(),
		"humidity", r.Humidity.String(),
	)
	if m.bar != nil {
		if err := m.bar.Show(&r); err != nil {
			m.log.Warn("display failed", "error", err)
		}
	}
	if m.snap != nil {
		if err := m.snap.Save(&r, now); err != nil {
			m.log.Warn("snapshot failed", "error", err)
		}
	}
	if m.pub != nil {
		if err := m.pub.Publish(newTelemetry(m.name, &r, now)); err != nil {
			m.log.Warn("publish failed", "error", err)
		}
	}
	return nil
}
