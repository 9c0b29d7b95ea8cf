//go:build linux

package printpipe

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyPathDisabled(t *testing.T) {
	p, err := New(Config{}, func([]byte) int { return 0 })
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPipeDeliversLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "print")

	var mu sync.Mutex
	var lines []string
	p, err := New(Config{Path: path}, func(b []byte) int {
		mu.Lock()
		lines = append(lines, string(b))
		mu.Unlock()
		return len(b)
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	go p.Start()

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = w.WriteString("hello\n你好\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(lines)
		mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, p.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello\n", "你好\n"}, lines)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "pipe removed on close")
}

func TestCloseUnblocksIdleListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "print")
	p, err := New(Config{Path: path}, func(b []byte) int { return len(b) })
	require.NoError(t, err)
	go p.Start()

	// No writer ever connects; Close must still return promptly.
	done := make(chan error, 1)
	go func() { done <- p.Close() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close blocked on an idle listener")
	}
}
