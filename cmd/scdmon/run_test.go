// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GermanBionicSystems/scd/scd30"
	"github.com/GermanBionicSystems/scd/scd4x"
	"github.com/GermanBionicSystems/scd/sensirion"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"
)

// recordBus accepts every write and records the opcodes sent.
type recordBus struct {
	addr []uint16
	ops  []uint16
}

func (r *recordBus) String() string                  { return "record" }
func (r *recordBus) SetSpeed(physic.Frequency) error { return nil }
func (r *recordBus) Tx(addr uint16, w, _ []byte) error {
	if len(w) >= 2 {
		r.addr = append(r.addr, addr)
		r.ops = append(r.ops, binary.BigEndian.Uint16(w))
	}
	return nil
}

var noDelay = &sensirion.Opts{Delay: sensirion.DelayFunc(func(time.Duration) {})}

func TestOpenSensor(t *testing.T) {
	tests := []struct {
		sensor   string
		pressure int
		addr     uint16
		ops      []uint16
	}{
		{"scd41", 0, scd4x.SensorAddress, []uint16{0x3f86, 0x2427, 0x241d, 0x21b1}},
		{"scd40", 98000, scd4x.SensorAddress, []uint16{0x3f86, 0x2427, 0x241d, 0xe000, 0x21b1}},
		{"scd30", 98000, scd30.SensorAddress, []uint16{0x0104, 0x4600, 0x5102, 0x5403, 0x0010}},
	}
	for _, test := range tests {
		cfg := DefaultConfig()
		cfg.Sensor = test.sensor
		cfg.Altitude = 500
		cfg.Pressure = test.pressure
		bus := &recordBus{}
		dev, err := openSensor(bus, cfg, noDelay)
		if err != nil {
			t.Fatalf("%s: %v", test.sensor, err)
		}
		if diff := cmp.Diff(test.ops, bus.ops); diff != "" {
			t.Errorf("%s: commands mismatch (-want +got):\n%s", test.sensor, diff)
		}
		for _, a := range bus.addr {
			if a != test.addr {
				t.Errorf("%s: wrote to 0x%02x", test.sensor, a)
			}
		}
		if err := dev.Halt(); err != nil {
			t.Errorf("%s: %v", test.sensor, err)
		}
	}
}

func TestOpenSensorInvalid(t *testing.T) {
	cfg := DefaultConfig()
	// Valid YAML but beyond what the SCD4x accepts.
	cfg.Pressure = 50000
	bus := &recordBus{}
	if _, err := openSensor(bus, cfg, noDelay); !errors.Is(err, sensirion.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	// Stopped and configured but never started.
	if n := len(bus.ops); n == 0 || bus.ops[n-1] == 0x21b1 {
		t.Errorf("unexpected commands %x", bus.ops)
	}
}

// fakeSensor returns canned readings.
type fakeSensor struct {
	ready bool
	m     sensirion.Measurement
	err   error
	reads int
}

func (f *fakeSensor) String() string { return "fake" }
func (f *fakeSensor) Halt() error    { return nil }
func (f *fakeSensor) DataReady() (bool, error) {
	return f.ready, f.err
}
func (f *fakeSensor) ReadMeasurement() (sensirion.Measurement, error) {
	f.reads++
	return f.m, nil
}

type fakePublisher []Telemetry

func (f *fakePublisher) Publish(tl Telemetry) error {
	*f = append(*f, tl)
	return nil
}

func newTestMonitor(t *testing.T, s sensor) (*monitor, *bytes.Buffer, *fakePublisher, string) {
	var out bytes.Buffer
	pub := &fakePublisher{}
	png := filepath.Join(t.TempDir(), "co2.png")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &monitor{
		sensor: s,
		name:   "scd41",
		log:    slog.New(slog.DiscardHandler),
		now:    func() time.Time { return now },
		bar:    newBar(&out, 8),
		snap:   NewSnapshot(SnapshotConfig{Path: png, Width: 64, Height: 48}),
		pub:    pub,
	}
	return m, &out, pub, png
}

func TestMonitorTick(t *testing.T) {
	s := &fakeSensor{ready: true, m: sensirion.Measurement{CO2: 500}}
	s.m.Temperature = physic.ZeroCelsius + 25*physic.Celsius
	s.m.Humidity = 50 * physic.PercentRH
	m, out, pub, png := newTestMonitor(t, s)
	if err := m.tick(); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Error("nothing displayed")
	}
	if _, err := os.Stat(png); err != nil {
		t.Error(err)
	}
	if len(*pub) != 1 {
		t.Fatalf("published %d", len(*pub))
	}
	tl := (*pub)[0]
	if tl.Sensor != "scd41" || tl.CO2 == nil || *tl.CO2 != 500 || *tl.Temperature != 25 || *tl.Humidity != 50 {
		t.Errorf("unexpected telemetry %+v", tl)
	}
}

func TestMonitorTickNotReady(t *testing.T) {
	s := &fakeSensor{}
	m, out, pub, _ := newTestMonitor(t, s)
	if err := m.tick(); err != nil {
		t.Fatal(err)
	}
	if s.reads != 0 || out.Len() != 0 || len(*pub) != 0 {
		t.Error("nothing should happen without data")
	}
	s.err = errors.New("bus")
	if err := m.tick(); err == nil {
		t.Error("expected error")
	}
}

func TestMonitorRunCanceled(t *testing.T) {
	m, _, _, _ := newTestMonitor(t, &fakeSensor{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.run(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("run()=%v", err)
	}
}

func TestTelemetryRHTOnly(t *testing.T) {
	tl := newTelemetry("scd41", &sensirion.Measurement{}, time.Time{})
	if tl.CO2 != nil {
		t.Error("CO2 should be omitted")
	}
}
