package msg

import (
	"encoding/binary"
)

// Compact-size markers.
const (
	varIntMarker16 = 0xFD // followed by uint16le
	varIntMarker32 = 0xFE // followed by uint32le
	varIntMarker64 = 0xFF // followed by uint64le
)

// MaxVarIntSize is the largest encoded size of a VarInt.
const MaxVarIntSize = 9

// VarInt is the protocol's variable-length unsigned integer,
// known in Core as "compact size".
type VarInt struct {
	Value uint64
	size  int // bytes consumed when decoded; 0 if constructed from a value
}

func NewVarInt(v uint64) VarInt {
	return VarInt{Value: v}
}

// DecodeVarInt decodes a VarInt at buf[offset].
// Non-minimal encodings are accepted; the result reports the
// number of bytes actually consumed.
func DecodeVarInt(buf []byte, offset int) (VarInt, error) {
	if offset < 0 || offset >= len(buf) {
		return VarInt{}, protoErr(ErrShortBuffer, "varint: no marker byte at offset %d (len %d)", offset, len(buf))
	}
	first := buf[offset]
	var need int
	switch first {
	case varIntMarker16:
		need = 3
	case varIntMarker32:
		need = 5
	case varIntMarker64:
		need = 9
	default:
		return VarInt{Value: uint64(first), size: 1}, nil
	}
	if len(buf)-offset < need {
		return VarInt{}, protoErr(ErrShortBuffer, "varint: marker %#x needs %d bytes at offset %d, have %d", first, need, offset, len(buf)-offset)
	}
	data := buf[offset+1 : offset+need]
	var val uint64
	switch first {
	case varIntMarker16:
		val = uint64(binary.LittleEndian.Uint16(data))
	case varIntMarker32:
		val = uint64(binary.LittleEndian.Uint32(data))
	default:
		// low 32 bits | high 32 bits << 32
		val = uint64(binary.LittleEndian.Uint32(data[0:4])) | uint64(binary.LittleEndian.Uint32(data[4:8]))<<32
	}
	return VarInt{Value: val, size: need}, nil
}

// Consumed is the number of bytes read by DecodeVarInt, which can
// exceed SizeInBytes for a non-minimal encoding. For a VarInt built
// with NewVarInt it equals SizeInBytes.
func (v VarInt) Consumed() int {
	if v.size == 0 {
		return v.SizeInBytes()
	}
	return v.size
}

// SizeInBytes is the size of the minimal encoding of the value.
func (v VarInt) SizeInBytes() int {
	return VarIntSize(v.Value)
}

// Encode returns the minimal encoding of the value.
func (v VarInt) Encode() []byte {
	return AppendVarInt(make([]byte, 0, v.SizeInBytes()), v.Value)
}

// VarIntSize returns the minimal encoded size of val:
// 1 below 253, 3 below 2^16, 5 below 2^32, otherwise 9.
func VarIntSize(val uint64) int {
	switch {
	case val < varIntMarker16:
		return 1
	case val <= 0xFFFF:
		return 3
	case val <= 0xFFFFFFFF:
		return 5
	}
	return 9
}

// AppendVarInt appends the minimal encoding of val to dst.
// It uses the same thresholds as VarIntSize.
func AppendVarInt(dst []byte, val uint64) []byte {
	switch VarIntSize(val) {
	case 1:
		return append(dst, byte(val))
	case 3:
		dst = append(dst, varIntMarker16)
		return binary.LittleEndian.AppendUint16(dst, uint16(val))
	case 5:
		dst = append(dst, varIntMarker32)
		return binary.LittleEndian.AppendUint32(dst, uint32(val))
	}
	dst = append(dst, varIntMarker64)
	return binary.LittleEndian.AppendUint64(dst, val)
}
