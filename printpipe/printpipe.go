// Package printpipe feeds the receipt printer from a named pipe: any
// process on the box can `echo hello > /tmp/pocket-print` and get a
// receipt. Lines are pushed into the print queue as-is, one line feed
// per line.
package printpipe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds configuration for the print pipe.
type Config struct {
	Path string `yaml:"path"` // path to the named pipe (e.g. "/tmp/pocket-print")
}

// WriteFunc queues bytes for printing and returns the count accepted.
type WriteFunc func(p []byte) int

// Pipe listens for print text on a named pipe.
type Pipe struct {
	path   string
	write  WriteFunc
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Pipe. Returns nil if path is empty.
func New(cfg Config, write WriteFunc) (*Pipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	// Recreate the pipe so stale ones from a previous run don't linger.
	os.Remove(cfg.Path)
	if err := syscall.Mkfifo(cfg.Path, 0o666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pipe{
		path:   cfg.Path,
		write:  write,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// Start reads print text from the pipe until Close. Call as a goroutine.
func (p *Pipe) Start() {
	defer close(p.done)
	log.Info().Str("path", p.path).Msg("print pipe listening")

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		// Blocks until a writer connects; each writer closing the pipe
		// ends one scan pass and we loop back for the next.
		file, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("print pipe open error")
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			select {
			case <-p.ctx.Done():
				file.Close()
				return
			default:
			}

			line := append(scanner.Bytes(), '\n')
			if n := p.write(line); n < len(line) {
				log.Warn().Int("queued", n).Int("line", len(line)).
					Msg("print queue full, line truncated")
			}
		}

		file.Close()
	}
}

// Close stops the listener, waits for Start to return and removes the
// pipe. Opening a FIFO read-only blocks until a writer connects, so the
// listener only wakes when we connect as one.
func (p *Pipe) Close() error {
	p.cancel()
	for {
		if f, err := os.OpenFile(p.path, os.O_WRONLY|syscall.O_NONBLOCK, 0); err == nil {
			f.Close()
		}
		select {
		case <-p.done:
			return os.Remove(p.path)
		case <-time.After(time.Millisecond):
		}
	}
}
