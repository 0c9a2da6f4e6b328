package msg

import (
	"encoding/binary"
)

// Decode

// Decoder is a bounds-checked read cursor over one payload.
// The first failed read records a ProtocolError; later reads return
// zero values and leave the cursor where it failed.
type Decoder struct {
	buf []byte
	pos int
	err error
}

func Decode(b []byte) *Decoder {
	return &Decoder{buf: b, pos: 0}
}

// DecodeAt starts a cursor at offset within b.
func DecodeAt(b []byte, offset int) *Decoder {
	d := &Decoder{buf: b, pos: offset}
	if offset < 0 || offset > len(b) {
		d.pos = 0
		d.err = protoErr(ErrShortBuffer, "offset %d outside buffer (len %d)", offset, len(b))
	}
	return d
}

// Pos is the current cursor position.
func (d *Decoder) Pos() int { return d.pos }

// Err returns the first error encountered, if any.
func (d *Decoder) Err() error { return d.err }

// Remaining is the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Fail records err unless an error is already recorded.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) need(n int, what string) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || n > len(d.buf)-d.pos {
		d.err = protoErr(ErrShortBuffer, "%s: need %d bytes at offset %d, have %d", what, n, d.pos, len(d.buf)-d.pos)
		return false
	}
	return true
}

func (d *Decoder) bytes(num uint64) []byte {
	if num > uint64(len(d.buf)) {
		d.Fail(protoErr(ErrShortBuffer, "bytes: need %d bytes at offset %d, have %d", num, d.pos, len(d.buf)-d.pos))
		return nil
	}
	if !d.need(int(num), "bytes") {
		return nil
	}
	p := d.pos
	d.pos += int(num)
	return d.buf[p : p+int(num)]
}

func (d *Decoder) rest() []byte {
	if d.err != nil {
		return nil
	}
	p := d.pos
	d.pos = len(d.buf)
	return d.buf[p:]
}

func (d *Decoder) bool() bool {
	if !d.need(1, "bool") {
		return false
	}
	v := d.buf[d.pos]
	d.pos += 1
	return v != 0
}

func (d *Decoder) uint8() uint8 {
	if !d.need(1, "uint8") {
		return 0
	}
	p := d.pos
	d.pos += 1
	return d.buf[p]
}

func (d *Decoder) uint16le() uint16 {
	if !d.need(2, "uint16") {
		return 0
	}
	p := d.pos
	d.pos += 2
	return binary.LittleEndian.Uint16(d.buf[p : p+2])
}

func (d *Decoder) uint16be() uint16 {
	if !d.need(2, "uint16") {
		return 0
	}
	p := d.pos
	d.pos += 2
	return binary.BigEndian.Uint16(d.buf[p : p+2])
}

func (d *Decoder) uint32le() uint32 {
	if !d.need(4, "uint32") {
		return 0
	}
	p := d.pos
	d.pos += 4
	return binary.LittleEndian.Uint32(d.buf[p : p+4])
}

func (d *Decoder) uint64le() uint64 {
	if !d.need(8, "uint64") {
		return 0
	}
	p := d.pos
	d.pos += 8
	return binary.LittleEndian.Uint64(d.buf[p : p+8])
}

func (d *Decoder) var_uint() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := DecodeVarInt(d.buf, d.pos)
	if err != nil {
		d.err = err
		return 0
	}
	d.pos += v.Consumed()
	return v.Value
}

// var_count decodes a list length and rejects it if above max,
// before the caller allocates anything.
func (d *Decoder) var_count(max uint64, what string) int {
	count := d.var_uint()
	if d.err != nil {
		return 0
	}
	if count > max {
		d.err = protoErr(ErrTooLarge, "%s too large: %d entries (max %d)", what, count, max)
		return 0
	}
	return int(count)
}

func (d *Decoder) var_string(max uint64) string {
	len := d.var_uint()
	if d.err != nil {
		return ""
	}
	if len > max {
		d.err = protoErr(ErrTooLarge, "string of %d bytes (max %d)", len, max)
		return ""
	}
	data := d.bytes(len)
	return string(data)
}

// Encode

type Encoder struct {
	buf []byte
}

func Encode(size_hint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size_hint)}
}

func (e *Encoder) Result() []byte {
	return e.buf
}

func (e *Encoder) bytes(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *Encoder) bool(b bool) {
	var v byte = 0
	if b {
		v = 1
	}
	e.buf = append(e.buf, v)
}

func (e *Encoder) uint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) uint16le(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) uint16be(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) uint32le(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) uint64le(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *Encoder) var_uint(val uint64) {
	e.buf = AppendVarInt(e.buf, val)
}

func (e *Encoder) var_string(v string) {
	b := []byte(v)
	e.var_uint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}
