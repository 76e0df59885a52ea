// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
//
// Only deployment wiring lives here. The press window, loop cadence and the
// sensor conversion constants are fixed in their packages.
type Config struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	// Node hardware
	ButtonPin     string
	TriggerPin    string
	EchoPin       string
	I2CBus        string // "" selects the first bus
	MPUI2CAddr    uint16
	EchoTimeoutMS int

	// Node serial output
	SerialPort string // "" writes the report to stdout
	SerialBaud int

	// Display
	DisplayEnabled bool // SSD1306 at 0x3C on the node's I2C bus

	// MQTT
	MQTTBroker          string // "" disables publishing
	MQTTClientIDNode    string
	MQTTClientIDMonitor string
	MQTTClientIDConsole string

	// Topics
	TopicReading string
	TopicMode    string

	// Monitor
	MonitorSerialPort string
	MonitorDBPath     string
	WebServerPort     int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration matching the reference wiring: button on
// GPIO17, HC-SR04 on GPIO23/24, MPU-6050 at 0x68 on the first I2C bus.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",

		ButtonPin:     "GPIO17",
		TriggerPin:    "GPIO23",
		EchoPin:       "GPIO24",
		I2CBus:        "",
		MPUI2CAddr:    0x68,
		EchoTimeoutMS: 1000,

		SerialPort: "",
		SerialBaud: 9600,

		MQTTClientIDNode:    "posture-node",
		MQTTClientIDMonitor: "posture-monitor",
		MQTTClientIDConsole: "posture-console",

		TopicReading: "posture/reading",
		TopicMode:    "posture/mode",

		MonitorSerialPort: "/dev/ttyUSB0",
		MonitorDBPath:     "posture.db",
		WebServerPort:     8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// LoadOrDefault behaves like Load but falls back to Default when the file
// does not exist.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse reads KEY=VALUE lines on top of the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Logging
	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)
	case "LOG_FORMAT":
		c.LogFormat = strings.ToLower(value)

	// Node hardware
	case "BUTTON_PIN":
		c.ButtonPin = value
	case "TRIGGER_PIN":
		c.TriggerPin = value
	case "ECHO_PIN":
		c.EchoPin = value
	case "I2C_BUS":
		c.I2CBus = value
	case "MPU_I2C_ADDR":
		addr, err := parseAddr(key, value)
		if err != nil {
			return err
		}
		c.MPUI2CAddr = addr
	case "ECHO_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ECHO_TIMEOUT_MS %q: %w", value, err)
		}
		c.EchoTimeoutMS = ms

	// Node serial output
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = baud

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_NODE":
		c.MQTTClientIDNode = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_READING":
		c.TopicReading = value
	case "TOPIC_MODE":
		c.TopicMode = value

	// Monitor
	case "MONITOR_SERIAL_PORT":
		c.MonitorSerialPort = value
	case "MONITOR_DB_PATH":
		c.MonitorDBPath = value
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit address, got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.ButtonPin == "" {
		return fmt.Errorf("BUTTON_PIN is required")
	}
	if c.TriggerPin == "" || c.EchoPin == "" {
		return fmt.Errorf("TRIGGER_PIN and ECHO_PIN are required")
	}
	if c.MPUI2CAddr == 0 {
		return fmt.Errorf("MPU_I2C_ADDR is required")
	}
	if c.EchoTimeoutMS <= 0 {
		return fmt.Errorf("ECHO_TIMEOUT_MS must be positive, got %d", c.EchoTimeoutMS)
	}
	if c.SerialBaud <= 0 {
		return fmt.Errorf("SERIAL_BAUD must be positive, got %d", c.SerialBaud)
	}
	if c.MQTTBroker != "" && (c.TopicReading == "" || c.TopicMode == "") {
		return fmt.Errorf("TOPIC_READING and TOPIC_MODE are required when MQTT_BROKER is set")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has an effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = LoadOrDefault(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
