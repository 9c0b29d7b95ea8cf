// Package uartmux arbitrates the pocket device's single expansion UART
// between three logical clients: the RFID scan module, the AI engine's
// log stream, and the thermal receipt printer. Each needs the port at a
// different baud rate, so ownership is time-shared: a worker goroutine
// drives the port for the two switchable modes, and a print goroutine
// seizes it whenever print bytes are queued, restoring the previous mode
// when the job drains.
//
// The central correctness rule is that nothing in this package ever
// blocks inside the port. Reads are non-blocking and absence of data is
// an explicit sleep, because the port is destroyed and recreated on
// every baud change: a goroutine parked in a blocking read at that
// moment would never wake. Mode-switch waiters poll a flag on the same
// principle rather than waiting on a primitive whose lifetime would be
// tied to the port's.
package uartmux

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"gopocket/port"
	"gopocket/rfid"
)

var (
	// ErrInvalidMode is returned for a mode outside the registry.
	ErrInvalidMode = errors.New("uartmux: invalid mode")

	// ErrSwitchTimeout is returned when the worker loop does not
	// acknowledge a mode switch within the configured bound. It usually
	// means the worker is not running; the caller should log and carry
	// on degraded rather than retry.
	ErrSwitchTimeout = errors.New("uartmux: mode switch timeout")

	// ErrNotStarted is returned by Stop when Start was never called.
	ErrNotStarted = errors.New("uartmux: not started")
)

// Config holds tuning knobs for the mux. The zero value gets the
// hardware defaults; tests shrink the intervals.
type Config struct {
	SwitchTimeout time.Duration // bound on SwitchMode waiting, default 200ms
	SwitchPoll    time.Duration // SwitchMode flag poll step, default 10ms
	RFIDPoll      time.Duration // worker sleep in RFID mode, default 100ms
	AILogPoll     time.Duration // worker sleep in AI-log mode, default 50ms
	PrintIdlePoll time.Duration // print loop sleep when queue empty, default 100ms
	PrintCharGap  time.Duration // pause between printed chars, default 5ms
	CharRetryGap  time.Duration // wait step for UTF-8 continuation bytes, default 10ms
	CharRetries   int           // continuation wait steps before placeholder, default 200
	PrintBufSize  int           // print queue capacity in bytes, default 1024
	ReadBufSize   int           // UART read buffer size, default 1024
}

func (c *Config) applyDefaults() {
	if c.SwitchTimeout == 0 {
		c.SwitchTimeout = 200 * time.Millisecond
	}
	if c.SwitchPoll == 0 {
		c.SwitchPoll = 10 * time.Millisecond
	}
	if c.RFIDPoll == 0 {
		c.RFIDPoll = 100 * time.Millisecond
	}
	if c.AILogPoll == 0 {
		c.AILogPoll = 50 * time.Millisecond
	}
	if c.PrintIdlePoll == 0 {
		c.PrintIdlePoll = 100 * time.Millisecond
	}
	if c.PrintCharGap == 0 {
		c.PrintCharGap = 5 * time.Millisecond
	}
	if c.CharRetryGap == 0 {
		c.CharRetryGap = 10 * time.Millisecond
	}
	if c.CharRetries == 0 {
		c.CharRetries = 200
	}
	if c.PrintBufSize == 0 {
		c.PrintBufSize = 1024
	}
	if c.ReadBufSize == 0 {
		c.ReadBufSize = 1024
	}
}

// Mux owns the shared UART. Create with New, wire callbacks, then Start.
// One Mux per process: the port is a hardware singleton.
type Mux struct {
	port port.Port
	cfg  Config

	// mu guards the arbitration state below and every port.Reinit call.
	// Holding it across reinits is what makes the two reconfiguration
	// actors (worker and print loop) mutually exclusive.
	mu        sync.Mutex
	current   Mode
	target    Mode
	switchReq bool
	printing  bool
	modes     [modeCount]modeConfig
	tagFn     rfid.TagFunc

	printBuf  *ringBuffer
	streaming atomic.Bool

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New creates a Mux over p. The port is not touched until Start.
func New(p port.Port, cfg Config) *Mux {
	cfg.applyDefaults()
	m := &Mux{
		port:     p,
		cfg:      cfg,
		current:  ModeRFIDScan,
		target:   ModeRFIDScan,
		printBuf: newRingBuffer(cfg.PrintBufSize),
		stop:     make(chan struct{}),
	}
	m.modes[ModeRFIDScan] = modeConfig{baud: RFIDScanBaud, poll: cfg.RFIDPoll}
	m.modes[ModeAILog] = modeConfig{baud: AILogBaud, poll: cfg.AILogPoll}
	return m
}

// Start brings the port up in RFID-scan mode and launches the worker and
// print loops.
func (m *Mux) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	if err := m.port.Reinit(m.modes[ModeRFIDScan].baud); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = ModeRFIDScan
	m.started = true
	m.mu.Unlock()

	m.wg.Add(2)
	go m.worker()
	go m.printLoop()

	log.Info().Msg("uart mux started")
	return nil
}

// Stop terminates both loops and waits for them to exit. The port itself
// is left open; the caller closes it.
func (m *Mux) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrNotStarted
	}
	m.started = false
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()
	return nil
}

// SwitchMode asks the worker loop to reconfigure the port for mode and
// blocks until it does. Requesting the current mode is a no-op. The wait
// is a bounded poll; ErrSwitchTimeout after the bound means the worker
// is stalled (or a print job is hogging the port — the switch still
// lands once the job drains).
func (m *Mux) SwitchMode(mode Mode) error {
	if !mode.valid() {
		return ErrInvalidMode
	}

	m.mu.Lock()
	if m.current == mode {
		m.mu.Unlock()
		return nil
	}
	log.Debug().Stringer("from", m.current).Stringer("to", mode).Msg("uart mode switch requested")
	m.target = mode
	m.switchReq = true
	m.mu.Unlock()

	deadline := time.Now().Add(m.cfg.SwitchTimeout)
	for {
		m.mu.Lock()
		done := !m.switchReq
		m.mu.Unlock()
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			log.Error().Stringer("to", mode).Msg("uart mode switch timeout")
			return ErrSwitchTimeout
		}
		time.Sleep(m.cfg.SwitchPoll)
	}
}

// Mode returns the mode currently owning the port.
func (m *Mux) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// RegisterCallback sets (or clears, with nil) the receive callback for a
// mode. Set the AI-log callback before switching into that mode or early
// records are dropped.
func (m *Mux) RegisterCallback(mode Mode, fn DataFunc) error {
	if !mode.valid() {
		return ErrInvalidMode
	}
	m.mu.Lock()
	m.modes[mode].callback = fn
	m.mu.Unlock()
	return nil
}

// SetTagHandler sets the callback invoked with each decoded RFID tag.
func (m *Mux) SetTagHandler(fn rfid.TagFunc) {
	m.mu.Lock()
	m.tagFn = fn
	m.mu.Unlock()
}

// PrintWrite queues UTF-8 text for the receipt printer and returns the
// number of bytes accepted. A full queue accepts fewer bytes than
// requested; the remainder is the producer's problem.
func (m *Mux) PrintWrite(p []byte) int {
	return m.printBuf.Write(p)
}

// PrintPending returns the number of queued print bytes not yet written
// to the port.
func (m *Mux) PrintPending() int {
	return m.printBuf.Used()
}

// SetStreamActive marks whether a text stream is still producing print
// bytes. While active, an empty queue ends the print session without the
// trailing line feed and paper feed, so the next chunk continues the
// same receipt.
func (m *Mux) SetStreamActive(active bool) {
	m.streaming.Store(active)
}

// StreamActive reports the current text-stream flag.
func (m *Mux) StreamActive() bool {
	return m.streaming.Load()
}

// AILogLifecycle returns a lifecycle handler for the AI-log screen: on
// activation it registers cb for AI-log data and switches the port over;
// on deactivation it clears the callback and falls back to RFID scan.
// The screen only knows it must report show/hide — it has no dependency
// on this package's types beyond the returned func.
func (m *Mux) AILogLifecycle(cb DataFunc) func(active bool) {
	return func(active bool) {
		if active {
			if err := m.RegisterCallback(ModeAILog, cb); err != nil {
				log.Error().Err(err).Msg("register ai-log callback")
				return
			}
			if err := m.SwitchMode(ModeAILog); err != nil {
				log.Error().Err(err).Msg("switch to ai-log mode")
			}
			return
		}
		m.RegisterCallback(ModeAILog, nil)
		if err := m.SwitchMode(ModeRFIDScan); err != nil {
			log.Error().Err(err).Msg("switch back to rfid-scan mode")
		}
	}
}

// sleep pauses for d unless the mux is stopping first. Returns false on
// stop.
func (m *Mux) sleep(d time.Duration) bool {
	select {
	case <-m.stop:
		return false
	case <-time.After(d):
		return true
	}
}

func (m *Mux) stopping() bool {
	select {
	case <-m.stop:
		return true
	default:
		return false
	}
}
