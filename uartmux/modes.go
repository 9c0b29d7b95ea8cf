package uartmux

import "time"

// Mode is the logical purpose currently assigned to the shared UART.
// Printing is not a Mode: the print loop borrows the port for the length
// of one job and then hands it back to whichever mode owned it.
type Mode int

const (
	// ModeRFIDScan listens for tag frames from the RFID module. This is
	// the default mode; tags are scanned at human pace, so polling is
	// relaxed.
	ModeRFIDScan Mode = iota

	// ModeAILog streams log records from the AI engine. Higher baud,
	// tighter polling.
	ModeAILog

	modeCount
)

// Baud rates fixed by the attached hardware.
const (
	RFIDScanBaud = 115200
	AILogBaud    = 460800
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRFIDScan:
		return "rfid-scan"
	case ModeAILog:
		return "ai-log"
	default:
		return "invalid"
	}
}

func (m Mode) valid() bool {
	return m >= 0 && m < modeCount
}

// DataFunc receives raw receive bytes for a mode. The buffer is reused
// between reads; implementations must copy anything they keep.
type DataFunc func(mode Mode, data []byte)

// modeConfig is one row of the mode registry.
type modeConfig struct {
	baud     int
	poll     time.Duration
	callback DataFunc
}
