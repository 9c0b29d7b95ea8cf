package screens

import "sync"

// LevelIndicator is the battery/level screen. It consumes battery status
// messages from the PMIC poller and holds the latest reading.
type LevelIndicator struct {
	mu       sync.Mutex
	percent  int
	charging bool
}

// NewLevelIndicator creates the level screen.
func NewLevelIndicator() *LevelIndicator {
	return &LevelIndicator{}
}

// Name implements Screen.
func (*LevelIndicator) Name() string { return "level" }

// Show implements Screen.
func (*LevelIndicator) Show() {}

// Hide implements Screen.
func (*LevelIndicator) Hide() {}

// HandleMsg implements Screen.
func (s *LevelIndicator) HandleMsg(msg Msg) {
	switch msg.Type {
	case MsgBatteryStatus:
		if len(msg.Data) < 1 {
			return
		}
		s.mu.Lock()
		s.percent = int(msg.Data[0])
		s.mu.Unlock()
	case MsgBatteryCharging:
		s.mu.Lock()
		s.charging = len(msg.Data) >= 1 && msg.Data[0] != 0
		s.mu.Unlock()
	}
}

// Level returns the latest battery percentage and charging state.
func (s *LevelIndicator) Level() (percent int, charging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent, s.charging
}
