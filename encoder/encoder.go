//go:build linux

// Package encoder reads the pocket bridge's navigation knob (a quadrature
// encoder with a push button) and turns edges into screen-navigation
// events.
package encoder

import (
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Encoder handles a quadrature encoder input device.
type Encoder struct {
	dtLine  *gpiocdev.Line
	clkLine *gpiocdev.Line
	btnLine *gpiocdev.Line
	lastDT  int
	onTurn  func(delta int)
	onPress func()
}

// Config holds configuration for the navigation encoder.
type Config struct {
	Chip      string `yaml:"chip"`
	CLKPin    int    `yaml:"clk_pin"`
	DTPin     int    `yaml:"dt_pin"`
	ButtonPin int    `yaml:"button_pin"`
}

// Handlers holds callback functions for encoder events.
type Handlers struct {
	OnTurn  func(delta int) // called with +1 (CW) or -1 (CCW)
	OnPress func()          // called when the knob is pressed
}

// New creates an encoder handler. Returns nil if no pins are configured.
func New(cfg Config, handlers Handlers) (*Encoder, error) {
	if cfg.CLKPin == 0 && cfg.DTPin == 0 {
		return nil, nil
	}
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}

	debounceTurn := 250 * time.Microsecond
	debounceButton := 2 * time.Millisecond

	e := &Encoder{
		onTurn:  handlers.OnTurn,
		onPress: handlers.OnPress,
	}

	var err error
	e.dtLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.DTPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceTurn),
		gpiocdev.WithEventHandler(e.handleEdge))
	if err != nil {
		return nil, err
	}

	e.clkLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.CLKPin,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceTurn),
		gpiocdev.WithEventHandler(e.handleEdge))
	if err != nil {
		e.dtLine.Close()
		return nil, err
	}

	if cfg.ButtonPin > 0 {
		e.btnLine, err = gpiocdev.RequestLine(cfg.Chip, cfg.ButtonPin,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(debounceButton),
			gpiocdev.WithEventHandler(e.handleButton))
		if err != nil {
			e.dtLine.Close()
			e.clkLine.Close()
			return nil, err
		}
	}

	return e, nil
}

func (e *Encoder) handleEdge(evt gpiocdev.LineEvent) {
	var newState int
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		newState = 1
	case gpiocdev.LineEventFallingEdge:
		newState = 0
	default:
		return
	}

	if evt.Offset == e.dtLine.Offset() {
		e.lastDT = newState
		return
	}

	// Direction decodes from DT state on the CLK rising edge.
	if evt.Offset == e.clkLine.Offset() && newState == 1 && e.onTurn != nil {
		if e.lastDT == 0 {
			e.onTurn(1)
		} else {
			e.onTurn(-1)
		}
	}
}

func (e *Encoder) handleButton(gpiocdev.LineEvent) {
	if e.onPress != nil {
		e.onPress()
	}
}

// Release releases the GPIO lines.
func (e *Encoder) Release() {
	if e.btnLine != nil {
		e.btnLine.Close()
	}
	e.clkLine.Close()
	e.dtLine.Close()
}
