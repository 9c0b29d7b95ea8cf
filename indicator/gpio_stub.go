//go:build !linux

package indicator

import "errors"

// GPIO is unavailable off-Linux; only the no-op indicator works there.
type GPIO struct{}

func NewGPIO(Config) (*GPIO, error) {
	return nil, errors.New("gpio indicator requires linux")
}

func (*GPIO) Idle()          {}
func (*GPIO) Scanning()      {}
func (*GPIO) Printing()      {}
func (*GPIO) Error()         {}
func (*GPIO) Release() error { return nil }
