// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/physic"
)

var errStopped = errors.New("mqtt: publisher stopped")

// Telemetry is the JSON document published for each reading.
type Telemetry struct {
	Sensor      string    `json:"sensor"`
	Timestamp   time.Time `json:"timestamp"`
	CO2         *int      `json:"co2_ppm,omitempty"`
	Temperature *float64  `json:"temperature_c,omitempty"`
	Humidity    *float64  `json:"humidity_pct,omitempty"`
}

func newTelemetry(sensor string, m *sensirion.Measurement, t time.Time) Telemetry {
	temp := m.Temperature.Celsius()
	hum := float64(m.Humidity) / float64(physic.PercentRH)
	tl := Telemetry{
		Sensor:      sensor,
		Timestamp:   t,
		Temperature: &temp,
		Humidity:    &hum,
	}
	// RHT only single shots report no CO2.
	if m.CO2 != 0 {
		co2 := int(m.CO2)
		tl.CO2 = &co2
	}
	return tl
}

// Publisher sends telemetry to an MQTT broker.
type Publisher struct {
	client mqtt.Client
	topic  string
	log    *slog.Logger

	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewPublisher(cfg MQTTConfig, logger *slog.Logger) *Publisher {
	p := &Publisher{
		topic:  cfg.Topic,
		log:    logger,
		stopCh: make(chan struct{}),
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		p.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})
	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the first connection to the broker.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return errStopped
	default:
	}
	if p.IsConnected() {
		return nil
	}
	token := p.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return errStopped
		default:
		}
	}
}

// Publish sends tl with QoS 1.
func (p *Publisher) Publish(tl Telemetry) error {
	if !p.IsConnected() {
		return errors.New("mqtt: not connected")
	}
	data, err := json.Marshal(tl)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt: publish timeout for topic %s", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	p.log.Debug("published telemetry", "topic", p.topic)
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect closes the connection. It is safe to call more than once.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.client.Disconnect(250)
	p.setConnected(false)
	p.log.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
