package uartmux

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gopocket/rfid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testConfig shrinks all intervals so tests run in milliseconds.
func testConfig() Config {
	return Config{
		SwitchTimeout: 500 * time.Millisecond,
		SwitchPoll:    time.Millisecond,
		RFIDPoll:      time.Millisecond,
		AILogPoll:     time.Millisecond,
		PrintIdlePoll: time.Millisecond,
		PrintCharGap:  time.Millisecond,
		CharRetryGap:  time.Millisecond,
		CharRetries:   5,
		PrintBufSize:  64,
		ReadBufSize:   256,
	}
}

func startMux(t *testing.T, mock *mockPort, cfg Config) *Mux {
	t.Helper()
	m := New(mock, cfg)
	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Stop() })
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// crc16MB mirrors the scan module's Modbus/RTU checksum for building
// valid frames.
func crc16MB(buf []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range buf {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// tagFrame builds a minimal valid 29-byte scan frame.
func tagFrame(devID uint8, tagType uint16, uid []byte) []byte {
	frame := make([]byte, 29)
	frame[0] = devID
	frame[1] = 0x17
	frame[2] = 24
	binary.BigEndian.PutUint16(frame[3:5], 0x0000) // data type: UID
	binary.BigEndian.PutUint16(frame[5:7], tagType)
	binary.BigEndian.PutUint16(frame[9:11], uint16(len(uid)))
	copy(frame[11:27], uid)
	binary.LittleEndian.PutUint16(frame[27:29], crc16MB(frame[:27]))
	return frame
}

func TestSwitchModeToAILog(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	require.NoError(t, m.SwitchMode(ModeAILog))
	assert.Equal(t, ModeAILog, m.Mode())
	assert.Equal(t, AILogBaud, mock.lastBaud())
}

func TestSwitchModeNoop(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	before := mock.reinitCount()
	require.NoError(t, m.SwitchMode(ModeRFIDScan))
	assert.Equal(t, ModeRFIDScan, m.Mode())
	assert.Equal(t, before, mock.reinitCount(), "no-op switch must not touch the port")
}

func TestSwitchModeInvalid(t *testing.T) {
	m := New(newMockPort(), testConfig())
	assert.ErrorIs(t, m.SwitchMode(Mode(7)), ErrInvalidMode)
}

func TestSwitchModeTimeoutWithoutWorker(t *testing.T) {
	cfg := testConfig()
	cfg.SwitchTimeout = 30 * time.Millisecond
	m := New(newMockPort(), cfg) // never started: worker is "stalled"

	start := time.Now()
	err := m.SwitchMode(ModeAILog)
	assert.ErrorIs(t, err, ErrSwitchTimeout)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestReinitFailureDoesNotWedge(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	mock.mu.Lock()
	mock.failReinit = true
	mock.mu.Unlock()

	// Best-effort recovery: the switch completes (flag cleared, mode
	// updated) even though the baud change may not have taken effect.
	require.NoError(t, m.SwitchMode(ModeAILog))
	assert.Equal(t, ModeAILog, m.Mode())
}

func TestPrintRestoresSavedMode(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	n := m.PrintWrite([]byte("A"))
	require.Equal(t, 1, n)

	waitFor(t, "print job to drain and restore", func() bool {
		hist := mock.baudHistory()
		for i, b := range hist {
			if b == 9600 {
				rest := hist[i+1:]
				return len(rest) > 0 && rest[len(rest)-1] == RFIDScanBaud
			}
		}
		return false
	})
	waitFor(t, "mode restored", func() bool { return m.Mode() == ModeRFIDScan })

	out := mock.written()
	assert.True(t, bytes.Contains(out, []byte{0x1B, 0x40}), "printer init")
	assert.True(t, bytes.Contains(out, []byte{0x1B, 0x61, 0x00}), "align left")
	assert.True(t, bytes.Contains(out, []byte("A")), "payload")
	assert.True(t, bytes.Contains(out, []byte{0x1B, 0x64, 0x02}), "trailing feed")
}

func TestPrintRestoresAILogMode(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())
	require.NoError(t, m.SwitchMode(ModeAILog))

	m.PrintWrite([]byte("hi"))

	waitFor(t, "restore to ai-log", func() bool {
		return m.Mode() == ModeAILog && mock.lastBaud() == AILogBaud
	})
}

func TestPrintStreamActiveSkipsTrailingFeed(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	m.SetStreamActive(true)
	m.PrintWrite([]byte("A"))

	waitFor(t, "print done and port restored", func() bool {
		hist := mock.baudHistory()
		seized := false
		for _, b := range hist {
			if b == 9600 {
				seized = true
			}
		}
		return seized && hist[len(hist)-1] == RFIDScanBaud &&
			bytes.Contains(mock.written(), []byte("A"))
	})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, bytes.Contains(mock.written(), []byte{0x1B, 0x64, 0x02}),
		"no paper feed while the stream is still active")
}

func TestPrintQueueOverflowStops(t *testing.T) {
	cfg := testConfig()
	cfg.PrintBufSize = 64
	m := New(newMockPort(), cfg) // not started: nothing drains

	n := m.PrintWrite(bytes.Repeat([]byte("x"), 100))
	assert.Equal(t, 64, n, "accepted count stops at capacity")
	assert.Equal(t, 0, m.PrintWrite([]byte("y")), "full queue rejects new bytes")
}

func TestTruncatedUTF8PrintsOnePlaceholder(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	// Lone 3-byte lead with no continuation bytes ever arriving.
	m.PrintWrite([]byte{0xE2})

	waitFor(t, "print session to finish", func() bool {
		return bytes.Contains(mock.written(), []byte{0x1B, 0x64, 0x02})
	})

	placeholders := bytes.Count(mock.written(), []byte{0x3F})
	assert.Equal(t, 1, placeholders, "exactly one '?' for the dead sequence")
}

func TestMultiBytePrintTranscodesToGBK(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	m.PrintWrite([]byte("你好"))

	waitFor(t, "print session to finish", func() bool {
		return bytes.Contains(mock.written(), []byte{0x1B, 0x64, 0x02})
	})
	out := mock.written()
	assert.True(t, bytes.Contains(out, []byte{0xC4, 0xE3}), "GBK for 你")
	assert.True(t, bytes.Contains(out, []byte{0xBA, 0xC3}), "GBK for 好")
}

func TestSwitchRequestedMidPrintIsDeferred(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	// Long enough job that the switch lands mid-print.
	m.PrintWrite(bytes.Repeat([]byte("z"), 40))
	waitFor(t, "print to seize the port", func() bool {
		return mock.lastBaud() == 9600
	})

	require.NoError(t, m.SwitchMode(ModeAILog))
	assert.Equal(t, ModeAILog, m.Mode(), "deferred switch honored over saved mode")

	waitFor(t, "port at ai-log baud", func() bool {
		return mock.lastBaud() == AILogBaud
	})
}

func TestNoConcurrentReinits(t *testing.T) {
	mock := newMockPort()
	mock.reinitDelay = 2 * time.Millisecond
	m := startMux(t, mock, testConfig())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 15; i++ {
			m.SwitchMode(ModeAILog)
			m.SwitchMode(ModeRFIDScan)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			m.PrintWrite([]byte("hi"))
			time.Sleep(5 * time.Millisecond)
		}
	}()
	wg.Wait()

	waitFor(t, "queue to drain", func() bool { return m.printBuf.Used() == 0 })
	assert.Equal(t, 1, mock.maxConcurrentReinits(),
		"port reconfiguration must be serialized")
}

func TestAILogDispatch(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	var mu sync.Mutex
	var got []byte
	require.NoError(t, m.RegisterCallback(ModeAILog, func(_ Mode, data []byte) {
		mu.Lock()
		got = append([]byte(nil), data...)
		mu.Unlock()
	}))
	require.NoError(t, m.SwitchMode(ModeAILog))

	record := []byte("boot ty E engine ready\n")
	mock.pushRX(record)

	waitFor(t, "ai-log callback", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return bytes.Equal(got, record)
	})
}

func TestAILogIgnoresUnmarkedReads(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	fired := make(chan struct{}, 1)
	m.RegisterCallback(ModeAILog, func(Mode, []byte) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, m.SwitchMode(ModeAILog))

	mock.pushRX([]byte("mid-record fragment without marker"))
	time.Sleep(50 * time.Millisecond)

	select {
	case <-fired:
		t.Fatal("callback fired for a read without the marker")
	default:
	}
}

func TestTagDispatch(t *testing.T) {
	mock := newMockPort()
	cfg := testConfig()
	m := New(mock, cfg)

	var mu sync.Mutex
	var gotUID []byte
	var gotType rfid.TagType
	m.SetTagHandler(func(devID uint8, tagType rfid.TagType, uid []byte) {
		mu.Lock()
		gotType = tagType
		gotUID = append([]byte(nil), uid...)
		mu.Unlock()
	})
	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Stop() })

	mock.pushRX(tagFrame(1, 0x0004, []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	waitFor(t, "tag callback", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return bytes.Equal(gotUID, []byte{0xDE, 0xAD, 0xBE, 0xEF}) &&
			gotType == rfid.TagMifareClassic1K
	})
}

func TestCorruptFrameNeverDispatches(t *testing.T) {
	mock := newMockPort()
	m := New(mock, testConfig())

	fired := make(chan struct{}, 1)
	m.SetTagHandler(func(uint8, rfid.TagType, []byte) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Stop() })

	frame := tagFrame(1, 0x0004, []byte{1, 2, 3, 4})
	frame[27] ^= 0xFF // corrupt the CRC
	mock.pushRX(frame)

	time.Sleep(50 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("tag callback fired for a corrupt frame")
	default:
	}
}

func TestLifecycleBridge(t *testing.T) {
	mock := newMockPort()
	m := startMux(t, mock, testConfig())

	handler := m.AILogLifecycle(func(Mode, []byte) {})

	handler(true)
	assert.Equal(t, ModeAILog, m.Mode())
	assert.Equal(t, AILogBaud, mock.lastBaud())

	handler(false)
	assert.Equal(t, ModeRFIDScan, m.Mode())
	assert.Equal(t, RFIDScanBaud, mock.lastBaud())
}

func TestStopTerminatesLoops(t *testing.T) {
	mock := newMockPort()
	m := New(mock, testConfig())
	require.NoError(t, m.Start())
	require.NoError(t, m.Stop())
	assert.ErrorIs(t, m.Stop(), ErrNotStarted)
}
