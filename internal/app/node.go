// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/posture_node/internal/config"
	"github.com/relabs-tech/posture_node/internal/mqtt"
	"github.com/relabs-tech/posture_node/internal/node"
	"github.com/relabs-tech/posture_node/internal/sensors"
	"github.com/relabs-tech/posture_node/internal/serialport"
)

const mqttConnectTimeout = 10 * time.Second

// RunNode wires the sensors to the polling loop and runs it until ctx is
// cancelled.
func RunNode(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
	}
	defer bus.Close()

	mpu := sensors.NewMPU6050(bus, cfg.MPUI2CAddr)
	if err := mpu.Wake(); err != nil {
		// The loop keeps running and reports zeros until the sensor answers.
		logger.Warn("mpu6050 wake failed", "addr", fmt.Sprintf("0x%02X", cfg.MPUI2CAddr), "err", err)
	}
	if id, err := mpu.WhoAmI(); err != nil {
		logger.Warn("mpu6050 not responding", "err", err)
	} else {
		logger.Info("mpu6050 ready", "addr", fmt.Sprintf("0x%02X", cfg.MPUI2CAddr), "who_am_i", fmt.Sprintf("0x%02X", id))
	}

	buttonPin, err := pinByName(cfg.ButtonPin)
	if err != nil {
		return err
	}
	button, err := sensors.NewButton(buttonPin)
	if err != nil {
		return err
	}

	trig, err := pinByName(cfg.TriggerPin)
	if err != nil {
		return err
	}
	echo, err := pinByName(cfg.EchoPin)
	if err != nil {
		return err
	}
	ranger, err := sensors.NewUltrasonic(trig, echo, time.Duration(cfg.EchoTimeoutMS)*time.Millisecond)
	if err != nil {
		return err
	}

	out, err := serialport.Open(cfg.SerialPort, cfg.SerialBaud)
	if err != nil {
		return err
	}
	defer out.Close()

	n := node.New(button, mpu, ranger, out, logger)

	if cfg.DisplayEnabled {
		disp, err := NewDisplay(bus)
		if err != nil {
			logger.Warn("display unavailable", "err", err)
		} else {
			if err := disp.ShowSplash(); err != nil {
				logger.Warn("display splash failed", "err", err)
			}
			n.AddPublisher(disp)
		}
	}

	if cfg.MQTTBroker != "" {
		client := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientIDNode, mqtt.Topics{
			Reading: cfg.TopicReading,
			Mode:    cfg.TopicMode,
		}, logger)
		if err := connectMQTT(ctx, client, logger); err != nil {
			return err
		}
		defer client.Disconnect()
		n.AddPublisher(client)
	}

	logger.Info("node started",
		"button", cfg.ButtonPin,
		"trigger", cfg.TriggerPin,
		"echo", cfg.EchoPin,
		"serial", serialName(cfg.SerialPort),
		"interval", node.Interval,
	)
	return n.Run(ctx)
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return p, nil
}

func serialName(port string) string {
	if port == "" {
		return "stdout"
	}
	return port
}

// connectMQTT bounds the initial connection attempt. The client keeps
// reconnecting in the background afterwards.
func connectMQTT(ctx context.Context, client *mqtt.Client, logger *slog.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("mqtt broker not reachable yet, continuing", "err", err)
	}
	return nil
}
