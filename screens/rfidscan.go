package screens

import (
	"sync"
	"time"

	"gopocket/rfid"
)

// RFIDScan is the tag scan screen: it displays the most recent tag and
// counts scans. It is the default screen — the UART idles in scan mode,
// so showing or hiding it has no lifecycle side effects.
type RFIDScan struct {
	mu       sync.Mutex
	devID    uint8
	tagType  rfid.TagType
	uid      []byte
	scanned  int
	lastScan time.Time
}

// NewRFIDScan creates the scan screen.
func NewRFIDScan() *RFIDScan {
	return &RFIDScan{}
}

// Name implements Screen.
func (*RFIDScan) Name() string { return "rfid-scan" }

// Show implements Screen.
func (*RFIDScan) Show() {}

// Hide implements Screen.
func (*RFIDScan) Hide() {}

// HandleMsg implements Screen. MsgRFIDScanSuccess bumps the scan counter;
// the tag details arrive separately through UpdateTag.
func (s *RFIDScan) HandleMsg(msg Msg) {
	if msg.Type != MsgRFIDScanSuccess {
		return
	}
	s.mu.Lock()
	s.scanned++
	s.lastScan = time.Now()
	s.mu.Unlock()
}

// UpdateTag records the most recently decoded tag.
func (s *RFIDScan) UpdateTag(devID uint8, tagType rfid.TagType, uid []byte) {
	s.mu.Lock()
	s.devID = devID
	s.tagType = tagType
	s.uid = append(s.uid[:0], uid...)
	s.mu.Unlock()
}

// LastTag returns the most recently recorded tag and the scan count.
func (s *RFIDScan) LastTag() (devID uint8, tagType rfid.TagType, uid []byte, scans int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid = make([]byte, len(s.uid))
	copy(uid, s.uid)
	return s.devID, s.tagType, uid, s.scanned
}
