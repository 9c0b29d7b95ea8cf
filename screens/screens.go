// Package screens holds the pocket UI's screen state. There is no
// rendering here — screens consume the display message queue and expose
// their state to whatever draws them. What matters to the rest of the
// system is the lifecycle contract: a screen reports its own show/hide
// through a callback registered once at startup, and has no other
// dependency on the subsystems that react to it.
package screens

// MsgType identifies a display queue message.
type MsgType int

const (
	MsgMenuUp MsgType = iota
	MsgMenuDown
	MsgMenuEnter
	MsgMenuEsc
	MsgBatteryStatus
	MsgBatteryCharging
	MsgRFIDScanSuccess
	MsgAILog
)

// Msg is one display queue entry. Data is owned by the receiver.
type Msg struct {
	Type MsgType
	Data []byte
}

// LifecycleFunc is invoked with true when a screen is shown and false
// when it is hidden.
type LifecycleFunc func(active bool)

// Screen is implemented by every screen the manager can show.
type Screen interface {
	// Name identifies the screen in logs and navigation.
	Name() string

	// Show is called when the screen becomes current.
	Show()

	// Hide is called when the screen stops being current.
	Hide()

	// HandleMsg consumes one display message while current.
	HandleMsg(msg Msg)
}
