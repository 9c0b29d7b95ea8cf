package main

import (
	"gopocket/encoder"
	"gopocket/indicator"
	"gopocket/mqtt"
	"gopocket/port"
	"gopocket/printpipe"
)

// Config is the main configuration structure for the pocket bridge.
type Config struct {
	// Expansion UART settings
	Serial port.Config `yaml:"serial"`

	// MQTT connection settings for the telemetry uplink
	MQTT mqtt.Config `yaml:"mqtt"`

	// Status LED configuration
	Indicator indicator.Config `yaml:"indicator"`

	// Navigation encoder configuration
	Encoder encoder.Config `yaml:"encoder"`

	// Named pipe print feed
	PrintPipe printpipe.Config `yaml:"print_pipe"`

	// PMIC battery polling for the level screen
	Battery BatteryConfig `yaml:"battery"`

	// General settings
	ClientID string `yaml:"client_id"`
	Debug    bool   `yaml:"debug"`
}
