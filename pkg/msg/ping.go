package msg

type PingMsg struct {
	Nonce uint64 // random nonce
}

func (PingMsg) Command() string { return CmdPing }

// PongMsg echoes the nonce of a PingMsg.
type PongMsg struct {
	Nonce uint64
}

func (PongMsg) Command() string { return CmdPong }

func DecodePing(buf []byte, offset int, version int32) (PingMsg, int, error) {
	return parse(buf, offset, CmdPing, func(d *Decoder) (msg PingMsg) {
		msg.Nonce = d.uint64le()
		return
	})
}

func DecodePong(buf []byte, offset int, version int32) (PongMsg, int, error) {
	return parse(buf, offset, CmdPong, func(d *Decoder) (msg PongMsg) {
		msg.Nonce = d.uint64le()
		return
	})
}

func EncodePing(msg PingMsg) []byte {
	e := Encode(8)
	e.uint64le(msg.Nonce)
	return e.Result()
}

func EncodePong(msg PongMsg) []byte {
	e := Encode(8)
	e.uint64le(msg.Nonce)
	return e.Result()
}
