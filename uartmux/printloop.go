package uartmux

import (
	"github.com/rs/zerolog/log"

	"gopocket/gbk"
	"gopocket/printer"
)

// printLoop opportunistically seizes the port whenever print bytes are
// queued: it snapshots the mode to restore, drops the port to the print
// baud, drains the queue one character at a time, and on completion hands
// the port back by re-arming the switch-request flag — the worker must
// treat the handback as a fresh switch because it was not the one that
// changed the baud rate.
func (m *Mux) printLoop() {
	defer m.wg.Done()

	pr := printer.New(m.port)
	printing := false
	saved := ModeRFIDScan

	for !m.stopping() {
		if m.printBuf.Used() == 0 {
			if printing {
				m.finishPrint(pr, saved)
				printing = false
			}
			m.sleep(m.cfg.PrintIdlePoll)
			continue
		}

		if !printing {
			m.mu.Lock()
			saved = m.current
			m.printing = true
			if err := m.port.Reinit(printer.Baud); err != nil {
				log.Error().Err(err).Msg("uart reinit for print failed")
			}
			m.mu.Unlock()

			pr.Init()
			pr.SetAlign(printer.AlignLeft)
			printing = true
			log.Debug().Stringer("saved", saved).Msg("print job started")
		}

		m.printChar(pr)
	}

	log.Info().Msg("print loop stopped")
}

// finishPrint flushes the receipt and returns the port. If a mode switch
// was requested mid-print it takes precedence over the saved mode, so a
// deferred request is honored rather than clobbered by the restore.
func (m *Mux) finishPrint(pr *printer.Printer, saved Mode) {
	if !m.streaming.Load() {
		pr.Enter()
		pr.FeedLines(2)
		m.sleep(m.cfg.RFIDPoll)
	}

	m.mu.Lock()
	restore := saved
	if m.switchReq {
		restore = m.target
	}
	if err := m.port.Reinit(m.modes[restore].baud); err != nil {
		log.Error().Err(err).Msg("uart restore reinit failed")
	}
	m.target = restore
	m.switchReq = true
	m.printing = false
	m.mu.Unlock()

	log.Debug().Stringer("mode", restore).Msg("print job done, port returned")
}

// printChar prints one UTF-8 character from the queue. Continuation
// bytes of a multi-byte character get a bounded wait; if they never
// arrive, a placeholder goes out instead — blocking here indefinitely
// would starve the worker of the port forever.
func (m *Mux) printChar(pr *printer.Printer) {
	var lead [1]byte
	if m.printBuf.Read(lead[:]) != 1 {
		m.sleep(m.cfg.CharRetryGap)
		return
	}

	charLen := gbk.FullCharLen(lead[0])
	if charLen == 0 {
		log.Warn().Uint8("byte", lead[0]).Msg("invalid utf-8 lead byte dropped")
		return
	}

	seq := make([]byte, 1, 4)
	seq[0] = lead[0]

	if charLen > 1 {
		for retry := 0; m.printBuf.Used() < charLen-1 && retry < m.cfg.CharRetries; retry++ {
			if !m.sleep(m.cfg.CharRetryGap) {
				return
			}
		}

		rest := make([]byte, charLen-1)
		if m.printBuf.Used() < charLen-1 || m.printBuf.Read(rest) != charLen-1 {
			pr.WriteRaw([]byte{gbk.Placeholder})
			m.sleep(m.cfg.PrintCharGap)
			return
		}
		seq = append(seq, rest...)
	}

	out, err := gbk.Encode(seq)
	if err != nil || len(out) == 0 {
		out = []byte{gbk.Placeholder}
	}
	if err := pr.WriteRaw(out); err != nil {
		log.Error().Err(err).Msg("print write failed")
	}
	m.sleep(m.cfg.PrintCharGap)
}
