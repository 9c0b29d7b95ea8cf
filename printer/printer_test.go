package printer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFraming(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	require.NoError(t, p.Init())
	require.NoError(t, p.SetAlign(AlignCenter))
	require.NoError(t, p.FeedLines(3))
	require.NoError(t, p.Enter())
	require.NoError(t, p.TestPage())

	assert.Equal(t, []byte{
		0x1B, 0x40, // ESC @
		0x1B, 0x61, 0x01, // ESC a 1
		0x1B, 0x64, 0x03, // ESC d 3
		0x0D, 0x0A, // CR LF
		0x12, 0x54, // DC2 T
	}, buf.Bytes())
}

func TestPrintTextTranscodes(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	require.NoError(t, p.PrintText("你好"))
	assert.Equal(t, []byte{0xC4, 0xE3, 0xBA, 0xC3}, buf.Bytes())
}

func TestPrintTextPlaceholderOnUnmappable(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	require.NoError(t, p.PrintText("🙂"))
	assert.Equal(t, []byte{'?'}, buf.Bytes())
}

func TestPrintLine(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	require.NoError(t, p.PrintLine("ok"))
	assert.Equal(t, []byte{'o', 'k', 0x0D, 0x0A}, buf.Bytes())
}

type failWriter struct{ err error }

func (w failWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriteErrorsPropagate(t *testing.T) {
	wantErr := errors.New("port gone")
	p := New(failWriter{err: wantErr})

	assert.ErrorIs(t, p.Init(), wantErr)
	assert.ErrorIs(t, p.WriteRaw([]byte{0x00}), wantErr)
	assert.ErrorIs(t, p.PrintLine("x"), wantErr)
}
