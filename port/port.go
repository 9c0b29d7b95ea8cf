package port

// Port is the interface for the shared expansion UART. Exactly one physical
// port exists on the device; callers coordinate ownership themselves.
type Port interface {
	// Reinit tears the port down and brings it back up at the given baud
	// rate. Any bytes in flight at the old rate are lost.
	Reinit(baud int) error

	// Read copies pending receive bytes into p and returns immediately.
	// A return of (0, nil) means no data is available right now; Read must
	// never block the caller waiting for bytes to arrive.
	Read(p []byte) (int, error)

	// Write transmits raw bytes at the current baud rate.
	Write(p []byte) (int, error)

	// Close releases the underlying device.
	Close() error
}

// Config holds settings for opening the expansion UART.
type Config struct {
	Device string `yaml:"device"` // e.g. "/dev/ttyUSB0"
	Baud   int    `yaml:"baud"`   // initial baud rate
}
