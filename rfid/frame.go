// Package rfid decodes scan frames from the pocket device's RFID module.
// The module pushes a fixed-layout frame over the shared UART whenever a
// tag enters the field; decoding is stateless and a bad frame is simply
// dropped (the next scan produces a fresh one).
package rfid

import (
	"encoding/binary"
	"errors"
)

// TagType identifies the tag technology reported by the reader.
type TagType uint16

const (
	TagUnknown          TagType = 0x0000
	TagMifareClassic4K  TagType = 0x0002
	TagMifareClassic1K  TagType = 0x0004
	TagMifareUltralight TagType = 0x0044
	TagTypeB            TagType = 0x0900
	TagISO15693         TagType = 0x3D4D
)

// String returns a human-readable tag technology name.
func (t TagType) String() string {
	switch t {
	case TagMifareClassic4K:
		return "MIFARE Classic 4K"
	case TagMifareClassic1K:
		return "MIFARE Classic 1K"
	case TagMifareUltralight:
		return "MIFARE Ultralight"
	case TagTypeB:
		return "Type B"
	case TagISO15693:
		return "ISO 15693"
	default:
		return "unknown"
	}
}

// DataType distinguishes UID reports from block reads.
type DataType uint16

const (
	DataUID   DataType = 0x0000
	DataBlock DataType = 0x0001
)

// Frame layout, fixed offsets:
//
//	[0]     device id
//	[1]     command (0x17 = read)
//	[2]     payload length
//	[3:5]   data type
//	[5:7]   tag type
//	[7:9]   block address (block reads only)
//	[9:11]  data length (4/7/8/16)
//	[11:27] data, zero padded
//	[27:29] CRC16, low byte first
const (
	// MinLen is the shortest buffer worth decoding. Anything at or below
	// this is noise from a mid-switch baud change.
	MinLen = 29

	dataSize = 16
	crcOff   = 27
)

// CmdRead is the only command the scan module emits.
const CmdRead = 0x17

var (
	ErrShortFrame = errors.New("rfid: frame too short")
	ErrBadCRC     = errors.New("rfid: crc mismatch")
)

// TagFunc receives a decoded tag. uid is truncated to the length the
// frame advertises and is only valid for the duration of the call.
type TagFunc func(devID uint8, tagType TagType, uid []byte)

// Process decodes one scan frame and invokes cb on success. A CRC failure
// discards the frame without error side effects beyond the return value;
// callers polling a live UART are expected to ignore it.
func Process(buf []byte, cb TagFunc) error {
	if len(buf) < MinLen {
		return ErrShortFrame
	}

	want := binary.LittleEndian.Uint16(buf[crcOff : crcOff+2])
	if crc16(buf[:len(buf)-2]) != want {
		return ErrBadCRC
	}

	devID := buf[0]
	tagType := TagType(binary.BigEndian.Uint16(buf[5:7]))
	uidLen := int(binary.BigEndian.Uint16(buf[9:11]))
	if uidLen > dataSize {
		uidLen = dataSize
	}
	uid := buf[11 : 11+uidLen]

	if cb != nil {
		cb(devID, tagType, uid)
	}
	return nil
}

// crc16 is the Modbus/RTU variant: init 0xFFFF, reflected poly 0xA001.
func crc16(buf []byte) uint16 {
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
