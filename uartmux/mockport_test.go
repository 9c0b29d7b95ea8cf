package uartmux

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// mockPort instruments every Port operation: reinit baud history, a
// concurrent-reinit high-water mark, scripted receive chunks, and
// captured transmit bytes.
type mockPort struct {
	mu          sync.Mutex
	bauds       []int
	rx          [][]byte
	tx          []byte
	failReinit  bool
	reinitDelay time.Duration

	inFlight    int32
	maxInFlight int32
}

func newMockPort() *mockPort {
	return &mockPort{}
}

func (p *mockPort) Reinit(baud int) error {
	n := atomic.AddInt32(&p.inFlight, 1)
	for {
		cur := atomic.LoadInt32(&p.maxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&p.maxInFlight, cur, n) {
			break
		}
	}
	if p.reinitDelay > 0 {
		time.Sleep(p.reinitDelay)
	}

	p.mu.Lock()
	p.bauds = append(p.bauds, baud)
	fail := p.failReinit
	p.mu.Unlock()

	atomic.AddInt32(&p.inFlight, -1)
	if fail {
		return errors.New("mock reinit failure")
	}
	return nil
}

func (p *mockPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.rx) == 0 {
		return 0, nil
	}
	chunk := p.rx[0]
	p.rx = p.rx[1:]
	return copy(b, chunk), nil
}

func (p *mockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tx = append(p.tx, b...)
	return len(b), nil
}

func (p *mockPort) Close() error { return nil }

// pushRX queues one receive chunk for a future Read.
func (p *mockPort) pushRX(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = append(p.rx, chunk)
}

func (p *mockPort) baudHistory() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.bauds))
	copy(out, p.bauds)
	return out
}

func (p *mockPort) lastBaud() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.bauds) == 0 {
		return 0
	}
	return p.bauds[len(p.bauds)-1]
}

func (p *mockPort) reinitCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bauds)
}

func (p *mockPort) written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.tx))
	copy(out, p.tx)
	return out
}

func (p *mockPort) maxConcurrentReinits() int {
	return int(atomic.LoadInt32(&p.maxInFlight))
}
