package screens

import (
	"bytes"
	"sync"
)

// maxLogLines bounds the scrollback kept for display.
const maxLogLines = 64

// AILog is the AI engine log screen. Showing it flips the shared UART
// into log-streaming mode via the lifecycle callback; hiding it flips
// the UART back. The screen itself knows nothing about the UART — it
// only reports its own visibility.
type AILog struct {
	mu        sync.Mutex
	lifecycle LifecycleFunc
	lines     []string
	partial   []byte
}

// NewAILog creates the AI log screen.
func NewAILog() *AILog {
	return &AILog{}
}

// RegisterLifecycle stores the show/hide callback. Set once at startup,
// before the screen can be shown; never reassigned per-session.
func (s *AILog) RegisterLifecycle(cb LifecycleFunc) {
	s.mu.Lock()
	s.lifecycle = cb
	s.mu.Unlock()
}

// Name implements Screen.
func (*AILog) Name() string { return "ai-log" }

// Show implements Screen; it fires the lifecycle callback with true.
func (s *AILog) Show() {
	s.mu.Lock()
	cb := s.lifecycle
	s.mu.Unlock()
	if cb != nil {
		cb(true)
	}
}

// Hide implements Screen; it fires the lifecycle callback with false.
func (s *AILog) Hide() {
	s.mu.Lock()
	cb := s.lifecycle
	s.mu.Unlock()
	if cb != nil {
		cb(false)
	}
}

// HandleMsg implements Screen, appending MsgAILog payloads to the
// scrollback.
func (s *AILog) HandleMsg(msg Msg) {
	if msg.Type != MsgAILog {
		return
	}
	s.append(msg.Data)
}

func (s *AILog) append(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.partial = append(s.partial, data...)
	for {
		i := bytes.IndexByte(s.partial, '\n')
		if i < 0 {
			break
		}
		line := string(s.partial[:i])
		s.partial = s.partial[i+1:]
		s.lines = append(s.lines, line)
		if len(s.lines) > maxLogLines {
			s.lines = s.lines[len(s.lines)-maxLogLines:]
		}
	}
}

// Lines returns a copy of the buffered log lines.
func (s *AILog) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
