package port

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// Settle delay around close/reopen. The transceiver needs a moment after a
// baud change before bytes on the wire are sane.
const reinitSettle = 5 * time.Millisecond

// readTimeout bounds a single Read so the caller never parks inside the
// driver. The worker loop depends on this: a Read blocked in the kernel
// while another goroutine closes and reopens the device would never wake.
const readTimeout = 10 * time.Millisecond

var errClosed = errors.New("port is closed")

// Serial implements Port over a tarm/serial device.
type Serial struct {
	mu     sync.Mutex
	device string
	baud   int
	port   *serial.Port
}

// OpenSerial opens the expansion UART at the configured baud rate.
func OpenSerial(cfg Config) (*Serial, error) {
	s := &Serial{device: cfg.Device}
	if err := s.Reinit(cfg.Baud); err != nil {
		return nil, err
	}
	return s, nil
}

// Reinit implements Port.Reinit: close, settle, reopen at the new rate.
func (s *Serial) Reinit(baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		s.port.Close()
		s.port = nil
		time.Sleep(reinitSettle)
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        s.device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return fmt.Errorf("open serial %s at %d: %w", s.device, baud, err)
	}
	time.Sleep(reinitSettle)

	s.port = p
	s.baud = baud
	return nil
}

// Read implements Port.Read. A read timeout surfaces as (0, nil).
func (s *Serial) Read(p []byte) (int, error) {
	s.mu.Lock()
	sp := s.port
	s.mu.Unlock()
	if sp == nil {
		return 0, errClosed
	}

	n, err := sp.Read(p)
	if err != nil {
		// tarm returns io.EOF on a zero-byte timeout read.
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

// Write implements Port.Write.
func (s *Serial) Write(p []byte) (int, error) {
	s.mu.Lock()
	sp := s.port
	s.mu.Unlock()
	if sp == nil {
		return 0, errClosed
	}
	return sp.Write(p)
}

// Baud returns the rate from the most recent successful Reinit.
func (s *Serial) Baud() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

// Close implements Port.Close.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
