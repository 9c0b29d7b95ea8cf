package screens

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Manager owns the display message queue and the notion of a current
// screen. Senders never block: a full queue drops the message, which for
// display traffic beats stalling the producer (the producer may be the
// UART worker).
type Manager struct {
	mu      sync.Mutex
	order   []Screen
	current int

	msgs chan Msg
	stop chan struct{}
	done chan struct{}
}

// NewManager creates a manager over the given screens, in navigation
// order. The first screen starts current; its Show fires on Run.
func NewManager(scrs ...Screen) *Manager {
	return &Manager{
		order: scrs,
		msgs:  make(chan Msg, 32),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run dispatches queued messages to the current screen until Close.
// Call as a goroutine.
func (m *Manager) Run() {
	defer close(m.done)

	m.mu.Lock()
	if len(m.order) > 0 {
		m.order[m.current].Show()
	}
	m.mu.Unlock()

	for {
		select {
		case <-m.stop:
			return
		case msg := <-m.msgs:
			m.mu.Lock()
			cur := m.currentScreen()
			m.mu.Unlock()
			if cur != nil {
				cur.HandleMsg(msg)
			}
		}
	}
}

// Send queues a display message. Returns false if the queue was full and
// the message was dropped.
func (m *Manager) Send(tp MsgType, data []byte) bool {
	select {
	case m.msgs <- Msg{Type: tp, Data: data}:
		return true
	default:
		log.Warn().Int("type", int(tp)).Msg("display queue full, message dropped")
		return false
	}
}

// Next moves to the following screen in navigation order.
func (m *Manager) Next() { m.step(1) }

// Prev moves to the preceding screen in navigation order.
func (m *Manager) Prev() { m.step(-1) }

func (m *Manager) step(delta int) {
	m.mu.Lock()
	if len(m.order) < 2 {
		m.mu.Unlock()
		return
	}
	old := m.order[m.current]
	m.current = (m.current + delta + len(m.order)) % len(m.order)
	next := m.order[m.current]
	m.mu.Unlock()

	// Hide before Show, outside the lock: lifecycle callbacks can take
	// their time (a hide triggers a UART mode switch that blocks until
	// the worker acknowledges).
	old.Hide()
	next.Show()
	log.Debug().Str("screen", next.Name()).Msg("screen switched")
}

// Current returns the current screen, or nil when none are registered.
func (m *Manager) Current() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentScreen()
}

func (m *Manager) currentScreen() Screen {
	if len(m.order) == 0 {
		return nil
	}
	return m.order[m.current]
}

// Close stops the dispatch loop and hides the current screen.
func (m *Manager) Close() {
	close(m.stop)
	<-m.done
	m.mu.Lock()
	cur := m.currentScreen()
	m.mu.Unlock()
	if cur != nil {
		cur.Hide()
	}
}
