package uartmux

import (
	"github.com/rs/zerolog/log"

	"gopocket/ailog"
	"gopocket/rfid"
)

// worker drives the port for the two switchable modes. Two effective
// states: idle-in-mode (non-blocking read, dispatch, sleep) and switching
// (reinit at the target baud). Switches requested while a print job holds
// the port are deferred, not dropped; the print loop re-arms the request
// flag when it hands the port back.
func (m *Mux) worker() {
	defer m.wg.Done()

	buf := make([]byte, m.cfg.ReadBufSize)
	for !m.stopping() {
		m.mu.Lock()
		if m.switchReq && !m.printing {
			mode := m.target
			// Reinit under mu: the print loop's seize/restore reinits
			// hold the same lock, so port reconfiguration is serialized.
			if err := m.port.Reinit(m.modes[mode].baud); err != nil {
				// Best effort: the hardware gives no failure feedback
				// path, and wedging here would strand the system worse
				// than a stale baud rate does.
				log.Error().Err(err).Stringer("mode", mode).Msg("uart reinit failed")
			}
			m.current = mode
			m.switchReq = false
		}
		cur := m.current
		m.mu.Unlock()

		n, err := m.port.Read(buf)
		if err != nil {
			// Expected while the print loop is mid-reinit.
			log.Debug().Err(err).Msg("uart read error")
			m.sleep(m.cfg.RFIDPoll)
			continue
		}
		if n == 0 {
			m.sleep(m.cfg.RFIDPoll)
			continue
		}

		switch cur {
		case ModeRFIDScan:
			m.dispatchRFID(buf[:n])
		case ModeAILog:
			m.dispatchAILog(buf[:n])
		}
		m.sleep(m.modes[cur].poll)
	}

	log.Info().Msg("uart worker stopped")
}

// dispatchRFID feeds a read into the frame decoder. Short reads are
// noise; CRC failures are dropped silently — the module rescans the tag
// and the next frame usually survives.
func (m *Mux) dispatchRFID(data []byte) {
	if len(data) < rfid.MinLen {
		return
	}
	m.mu.Lock()
	fn := m.tagFn
	m.mu.Unlock()
	if fn == nil {
		return
	}
	rfid.Process(data, fn)
}

// dispatchAILog forwards reads containing the log marker to the AI-log
// callback. Reads without the marker (mid-record fragments, baud-change
// garbage) are skipped; the stream re-synchronizes on the next marker.
func (m *Mux) dispatchAILog(data []byte) {
	if !ailog.Contains(data) {
		return
	}
	m.mu.Lock()
	fn := m.modes[ModeAILog].callback
	m.mu.Unlock()
	if fn != nil {
		fn(ModeAILog, data)
	}
}
