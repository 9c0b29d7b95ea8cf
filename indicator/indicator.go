// Package indicator drives the pocket bridge's status LEDs.
package indicator

// Indicator is the interface for status indicator implementations.
type Indicator interface {
	// Idle sets the indicator to the ready state.
	Idle()

	// Scanning signals a tag was just read.
	Scanning()

	// Printing signals the printer owns the UART.
	Printing()

	// Error signals a degraded state (mode-switch timeout, reinit
	// failure).
	Error()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	Chip string `yaml:"chip"` // e.g. "gpiochip0"

	// LED pins (nil = not configured)
	ActivityPin *int `yaml:"activity_pin"`
	ErrorPin    *int `yaml:"error_pin"`
}

// New creates an Indicator from cfg. With no pins configured it returns
// a no-op implementation.
func New(cfg Config) (Indicator, error) {
	if cfg.ActivityPin == nil && cfg.ErrorPin == nil {
		return Noop{}, nil
	}
	return NewGPIO(cfg)
}
