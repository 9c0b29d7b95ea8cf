//go:build linux

package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIO implements Indicator using discrete LED lines.
type GPIO struct {
	activity *gpiocdev.Line
	errLine  *gpiocdev.Line
}

// NewGPIO creates a GPIO-based indicator.
func NewGPIO(cfg Config) (*GPIO, error) {
	chip := cfg.Chip
	if chip == "" {
		chip = "gpiochip0"
	}

	g := &GPIO{}
	var err error

	if cfg.ActivityPin != nil {
		g.activity, err = gpiocdev.RequestLine(chip, *cfg.ActivityPin,
			gpiocdev.AsOutput(0))
		if err != nil {
			return nil, fmt.Errorf("request activity line: %w", err)
		}
	}
	if cfg.ErrorPin != nil {
		g.errLine, err = gpiocdev.RequestLine(chip, *cfg.ErrorPin,
			gpiocdev.AsOutput(0))
		if err != nil {
			if g.activity != nil {
				g.activity.Close()
			}
			return nil, fmt.Errorf("request error line: %w", err)
		}
	}

	return g, nil
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.set(g.activity, 0)
	g.set(g.errLine, 0)
}

// Scanning implements Indicator.Scanning.
func (g *GPIO) Scanning() {
	g.set(g.activity, 1)
	g.set(g.errLine, 0)
}

// Printing implements Indicator.Printing.
func (g *GPIO) Printing() {
	g.set(g.activity, 1)
	g.set(g.errLine, 0)
}

// Error implements Indicator.Error.
func (g *GPIO) Error() {
	g.set(g.errLine, 1)
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.Idle()
	if g.activity != nil {
		g.activity.Close()
	}
	if g.errLine != nil {
		g.errLine.Close()
	}
	return nil
}

func (*GPIO) set(line *gpiocdev.Line, v int) {
	if line != nil {
		line.SetValue(v)
	}
}
