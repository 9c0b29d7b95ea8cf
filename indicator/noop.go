package indicator

// Noop implements Indicator with no hardware.
type Noop struct{}

// Idle implements Indicator.Idle.
func (Noop) Idle() {}

// Scanning implements Indicator.Scanning.
func (Noop) Scanning() {}

// Printing implements Indicator.Printing.
func (Noop) Printing() {}

// Error implements Indicator.Error.
func (Noop) Error() {}

// Release implements Indicator.Release.
func (Noop) Release() error { return nil }
