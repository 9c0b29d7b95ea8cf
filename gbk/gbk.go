// Package gbk converts UTF-8 text to GBK for the receipt printer, whose
// firmware only understands GBK-encoded Chinese.
package gbk

import (
	"errors"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Placeholder is printed in place of any character that cannot be decoded
// or has no GBK equivalent.
const Placeholder = byte('?')

var ErrNoMapping = errors.New("gbk: no mapping for input")

// FullCharLen returns the total byte count of the UTF-8 character whose
// first byte is b, or 0 if b is not a valid lead byte.
func FullCharLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

// Encode transcodes UTF-8 input to GBK. Inputs containing characters with
// no GBK mapping return ErrNoMapping so the caller can substitute
// Placeholder instead of emitting mojibake.
func Encode(p []byte) ([]byte, error) {
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes(p)
	if err != nil {
		return nil, ErrNoMapping
	}
	return out, nil
}
