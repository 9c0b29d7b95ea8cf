// Package printer drives the pocket's DP-48A-style thermal receipt
// printer. The command set is a fixed hardware contract (ESC/POS
// compatible); this package just frames it. The printer shares the
// expansion UART, so it writes through whatever port the mux hands it
// while a print session holds the bus.
package printer

import (
	"io"

	"gopocket/gbk"
)

// Baud is the only rate the print head accepts.
const Baud = 9600

// Align selects horizontal text alignment.
type Align byte

const (
	AlignLeft   Align = 0
	AlignCenter Align = 1
	AlignRight  Align = 2
)

// Printer frames commands for the thermal print head.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing commands to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Init resets the print head to its power-on defaults (ESC @).
func (p *Printer) Init() error {
	return p.send(0x1B, 0x40)
}

// TestPage asks the head to print its self-test page (DC2 T).
func (p *Printer) TestPage() error {
	return p.send(0x12, 0x54)
}

// SetAlign sets horizontal alignment for following text (ESC a n).
func (p *Printer) SetAlign(a Align) error {
	return p.send(0x1B, 0x61, byte(a))
}

// FeedLines advances the paper n lines (ESC d n).
func (p *Printer) FeedLines(n uint8) error {
	return p.send(0x1B, 0x64, n)
}

// Enter terminates the current line (CR LF).
func (p *Printer) Enter() error {
	return p.send(0x0D, 0x0A)
}

// WriteRaw sends pre-encoded (GBK) bytes straight to the head.
func (p *Printer) WriteRaw(data []byte) error {
	_, err := p.w.Write(data)
	return err
}

// PrintText transcodes UTF-8 text to GBK and prints it. Characters with
// no GBK mapping come out as the placeholder glyph.
func (p *Printer) PrintText(text string) error {
	out, err := gbk.Encode([]byte(text))
	if err != nil {
		return p.WriteRaw([]byte{gbk.Placeholder})
	}
	return p.WriteRaw(out)
}

// PrintLine prints text followed by a line terminator.
func (p *Printer) PrintLine(text string) error {
	if err := p.PrintText(text); err != nil {
		return err
	}
	return p.Enter()
}

func (p *Printer) send(cmd ...byte) error {
	_, err := p.w.Write(cmd)
	return err
}
