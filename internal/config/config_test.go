package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if cfg.MPUI2CAddr != 0x68 {
		t.Errorf("MPUI2CAddr = 0x%X, want 0x68", cfg.MPUI2CAddr)
	}
	if cfg.SerialBaud != 9600 {
		t.Errorf("SerialBaud = %d, want 9600", cfg.SerialBaud)
	}
	if cfg.EchoTimeoutMS != 1000 {
		t.Errorf("EchoTimeoutMS = %d, want 1000", cfg.EchoTimeoutMS)
	}
	if cfg.MQTTBroker != "" {
		t.Errorf("MQTTBroker = %q, want empty", cfg.MQTTBroker)
	}
}

func TestParse_Overrides(t *testing.T) {
	in := `
# node wiring
BUTTON_PIN = GPIO27
MPU_I2C_ADDR=0x69
DISPLAY_ENABLED=true
SERIAL_PORT=/dev/serial0
MQTT_BROKER=tcp://localhost:1883
LOG_LEVEL=DEBUG
WEB_SERVER_PORT=9090
`
	cfg, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if cfg.ButtonPin != "GPIO27" {
		t.Errorf("ButtonPin = %q, want %q", cfg.ButtonPin, "GPIO27")
	}
	if cfg.MPUI2CAddr != 0x69 {
		t.Errorf("MPUI2CAddr = 0x%X, want 0x69", cfg.MPUI2CAddr)
	}
	if !cfg.DisplayEnabled {
		t.Error("DisplayEnabled = false, want true")
	}
	if cfg.SerialPort != "/dev/serial0" {
		t.Errorf("SerialPort = %q", cfg.SerialPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.WebServerPort != 9090 {
		t.Errorf("WebServerPort = %d, want 9090", cfg.WebServerPort)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "no equals", in: "BUTTON_PIN"},
		{name: "unknown key", in: "FOO=bar"},
		{name: "bad address", in: "MPU_I2C_ADDR=zz"},
		{name: "address too wide", in: "MPU_I2C_ADDR=0x80"},
		{name: "bad baud", in: "SERIAL_BAUD=fast"},
		{name: "bad display flag", in: "DISPLAY_ENABLED=maybe"},
		{name: "zero timeout", in: "ECHO_TIMEOUT_MS=0"},
		{name: "bad log level", in: "LOG_LEVEL=verbose"},
		{name: "bad log format", in: "LOG_FORMAT=xml"},
		{name: "port out of range", in: "WEB_SERVER_PORT=70000"},
		{name: "broker without topic", in: "MQTT_BROKER=tcp://x:1883\nTOPIC_READING="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.in)); err == nil {
				t.Fatalf("Parse(%q) error = nil, want non-nil", tt.in)
			}
		})
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v, want nil", err)
	}
	if cfg.ButtonPin != Default().ButtonPin {
		t.Errorf("ButtonPin = %q, want default", cfg.ButtonPin)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posture_config.txt")
	if err := os.WriteFile(path, []byte("ECHO_PIN=GPIO25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.EchoPin != "GPIO25" {
		t.Errorf("EchoPin = %q, want GPIO25", cfg.EchoPin)
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "posture_config.txt"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.SerialPort != "/dev/serial0" {
		t.Errorf("SerialPort = %q, want /dev/serial0", cfg.SerialPort)
	}
	if cfg.I2CBus != "" {
		t.Errorf("I2CBus = %q, want empty", cfg.I2CBus)
	}
}
