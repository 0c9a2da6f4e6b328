package msg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// ReadMessage reads one framed message. Bad magic, an oversized
// length or a checksum mismatch yield a ProtocolError; I/O failures
// are returned as-is (wrapped).
func ReadMessage(reader *bufio.Reader) (cmd string, payload []byte, err error) {
	// Read the message header
	buf := [HeaderSize]byte{}
	n, err := io.ReadFull(reader, buf[:])
	if err != nil {
		return "", nil, fmt.Errorf("short header: received %d bytes: %w", n, err)
	}
	// Decode the header
	hdr := DecodeHeader(buf)
	if hdr.Magic != MagicBytes {
		return "", nil, protoErr(ErrBadEncoding, "so sad, invalid magic bytes: %08x", hdr.Magic)
	}
	if hdr.Length > MaxPayloadSize {
		return "", nil, withCommand(protoErr(ErrTooLarge, "message too large: %d bytes", hdr.Length), hdr.Command)
	}
	// Read the message payload
	payload = make([]byte, hdr.Length)
	n, err = io.ReadFull(reader, payload)
	if err != nil {
		return "", nil, fmt.Errorf("short payload: [%s] received %d of %d bytes: %w", hdr.Command, n, hdr.Length, err)
	}
	// Verify checksum
	hash := DoubleSHA256(payload)
	if !bytes.Equal(hdr.Checksum[:], hash[:4]) {
		return "", nil, withCommand(protoErr(ErrBadEncoding, "so sad, checksum mismatch: %v vs %v", hdr.Checksum, hash[:4]), hdr.Command)
	}
	return hdr.Command, payload, nil
}
