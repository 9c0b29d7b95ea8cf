//go:build !linux

package encoder

import "errors"

// Encoder is unavailable off-Linux.
type Encoder struct{}

// Config holds configuration for the navigation encoder.
type Config struct {
	Chip      string `yaml:"chip"`
	CLKPin    int    `yaml:"clk_pin"`
	DTPin     int    `yaml:"dt_pin"`
	ButtonPin int    `yaml:"button_pin"`
}

// Handlers holds callback functions for encoder events.
type Handlers struct {
	OnTurn  func(delta int)
	OnPress func()
}

// New returns nil when no pins are configured, an error otherwise.
func New(cfg Config, _ Handlers) (*Encoder, error) {
	if cfg.CLKPin == 0 && cfg.DTPin == 0 {
		return nil, nil
	}
	return nil, errors.New("encoder requires linux")
}

// Release releases nothing.
func (*Encoder) Release() {}
