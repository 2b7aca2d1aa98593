package protocol

import (
	"encoding/binary"
	"fmt"
)

// Frame is one decoded wire frame.
//
// Wire layout (16-byte header, all multi-byte fields little-endian):
//
//	[MAGIC(4)][VERSION(1)][TYPE(1)][PAYLOAD_LEN(2)][SEQ(4)][CRC32C(4)][PAYLOAD...]
//
// The CRC is computed over the header with the CRC field zeroed, followed
// by the payload.
type Frame struct {
	// Type is the message type: MsgRequest, MsgResponse or MsgError
	Type byte

	// Seq is the sequence number assigned by the sender. It is
	// diagnostic only; the transport never has more than one request
	// in flight.
	Seq uint32

	// Payload is the frame body
	Payload []byte
}

// EncodeFrame builds the wire bytes for one frame.
// Returns an error if the payload exceeds MaxPayloadSize.
func EncodeFrame(msgType byte, seq uint32, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", len(payload), MaxPayloadSize)
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], FrameMagic)
	buf[4] = ProtocolVersion
	buf[5] = msgType
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(payload)))
	binary.LittleEndian.PutUint32(buf[8:12], seq)
	// CRC field stays zero while the checksum is computed
	copy(buf[HeaderSize:], payload)

	crc := FrameChecksum(buf)
	binary.LittleEndian.PutUint32(buf[12:16], crc)

	return buf, nil
}

// TryDecodeFrame attempts to decode one frame from the front of buf.
//
// It returns (nil, 0, nil) while buf holds fewer bytes than the frame
// declares, so callers can keep accumulating stream data and retry.
// Once enough bytes are buffered it returns the frame and the number of
// bytes consumed.
//
// A magic, version or CRC mismatch returns a *FramingError. The stream
// has no resync marker, so such a failure means the byte stream is
// permanently desynchronized; callers must drop the connection rather
// than retry.
func TryDecodeFrame(buf []byte) (*Frame, int, error) {
	if len(buf) < HeaderSize {
		return nil, 0, nil
	}

	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != FrameMagic {
		return nil, 0, &FramingError{
			Reason: fmt.Sprintf("bad magic 0x%08X, expected 0x%08X", magic, uint32(FrameMagic)),
		}
	}
	if buf[4] != ProtocolVersion {
		return nil, 0, &FramingError{
			Reason: fmt.Sprintf("unsupported protocol version 0x%02X, expected 0x%02X", buf[4], ProtocolVersion),
		}
	}

	payloadLen := int(binary.LittleEndian.Uint16(buf[6:8]))
	total := HeaderSize + payloadLen
	if len(buf) < total {
		return nil, 0, nil
	}

	stored := binary.LittleEndian.Uint32(buf[12:16])

	// Recompute over the header with the CRC field zeroed.
	var zeroed [HeaderSize]byte
	copy(zeroed[:], buf[:HeaderSize])
	zeroed[12], zeroed[13], zeroed[14], zeroed[15] = 0, 0, 0, 0
	computed := FrameChecksum(zeroed[:], buf[HeaderSize:total])

	if stored != computed {
		return nil, 0, &FramingError{
			Reason: fmt.Sprintf("corrupt frame: CRC 0x%08X, computed 0x%08X", stored, computed),
		}
	}

	frame := &Frame{
		Type:    buf[5],
		Seq:     binary.LittleEndian.Uint32(buf[8:12]),
		Payload: append([]byte(nil), buf[HeaderSize:total]...),
	}
	return frame, total, nil
}
