package msg

// Commands
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdAddr       = "addr"
	CmdGetAddr    = "getaddr"
	CmdInv        = "inv"
	CmdGetHeaders = "getheaders"
	CmdReject     = "reject"
)

// Message is any decoded protocol message.
type Message interface {
	Command() string
}

// MessageDecoder decodes one message at buf[offset] for the given
// protocol version, returning the message and the bytes it consumed.
// Malformed input yields a *ProtocolError.
type MessageDecoder interface {
	Decode(buf []byte, offset int, version int32) (Message, int, error)
}

// DecoderFunc adapts a function to MessageDecoder.
type DecoderFunc func(buf []byte, offset int, version int32) (Message, int, error)

func (f DecoderFunc) Decode(buf []byte, offset int, version int32) (Message, int, error) {
	return f(buf, offset, version)
}

func decoderOf[T Message](fn func(buf []byte, offset int, version int32) (T, int, error)) MessageDecoder {
	return DecoderFunc(func(buf []byte, offset int, version int32) (Message, int, error) {
		m, n, err := fn(buf, offset, version)
		if err != nil {
			return nil, 0, err
		}
		return m, n, nil
	})
}

// DecoderFor returns the decoder for a command.
func DecoderFor(cmd string) (MessageDecoder, bool) {
	switch cmd {
	case CmdVersion:
		return decoderOf(DecodeVersion), true
	case CmdVerAck:
		return decoderOf(decodeEmpty[VerAckMsg]), true
	case CmdGetAddr:
		return decoderOf(decodeEmpty[GetAddrMsg]), true
	case CmdPing:
		return decoderOf(DecodePing), true
	case CmdPong:
		return decoderOf(DecodePong), true
	case CmdAddr:
		return decoderOf(DecodeAddrMsg), true
	case CmdInv:
		return decoderOf(DecodeInvMsg), true
	case CmdGetHeaders:
		return decoderOf(DecodeGetHeaders), true
	case CmdReject:
		return decoderOf(DecodeReject), true
	}
	return nil, false
}

// DecodeMessage decodes a whole payload received with command cmd.
// Trailing bytes after the message are ignored.
func DecodeMessage(cmd string, payload []byte, version int32) (Message, error) {
	dec, ok := DecoderFor(cmd)
	if !ok {
		return nil, ErrUnknownCommand
	}
	m, _, err := dec.Decode(payload, 0, version)
	return m, err
}

// parse runs fn on a new cursor at offset. The cursor belongs to this
// call only; on success it reports the bytes consumed, on failure the
// zero value and a ProtocolError tagged with cmd.
func parse[T any](buf []byte, offset int, cmd string, fn func(d *Decoder) T) (T, int, error) {
	d := DecodeAt(buf, offset)
	v := fn(d)
	if err := d.Err(); err != nil {
		var zero T
		return zero, 0, withCommand(err, cmd)
	}
	return v, d.Pos() - offset, nil
}

type VerAckMsg struct{}

func (VerAckMsg) Command() string { return CmdVerAck }

type GetAddrMsg struct{}

func (GetAddrMsg) Command() string { return CmdGetAddr }

func decodeEmpty[T Message](buf []byte, offset int, version int32) (T, int, error) {
	var m T
	return m, 0, nil
}
