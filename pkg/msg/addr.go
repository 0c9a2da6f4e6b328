package msg

import (
	"strings"
)

// MaxAddrPerMsg is the largest address count accepted in an 'addr' message.
const MaxAddrPerMsg = 1024

type AddrMsg struct {
	AddrList []NetAddr
}

func (AddrMsg) Command() string { return CmdAddr }

// DecodeAddrMsg decodes an 'addr' message at buf[offset].
// The declared count is checked against MaxAddrPerMsg before anything
// is allocated, and each address advances the cursor by the size its
// own decoder reports.
func DecodeAddrMsg(buf []byte, offset int, version int32) (AddrMsg, int, error) {
	count, err := DecodeVarInt(buf, offset)
	if err != nil {
		return AddrMsg{}, 0, withCommand(err, CmdAddr)
	}
	if count.Value > MaxAddrPerMsg {
		err := protoErr(ErrTooLarge, "addr message too large: %d addresses (max %d)", count.Value, MaxAddrPerMsg)
		return AddrMsg{}, 0, withCommand(err, CmdAddr)
	}
	cursor := offset + count.Consumed()
	msg := AddrMsg{AddrList: make([]NetAddr, 0, int(count.Value))}
	for i := uint64(0); i < count.Value; i++ {
		a, n, err := DecodeNetAddr(buf, cursor, version)
		if err != nil {
			return AddrMsg{}, 0, withCommand(err, CmdAddr)
		}
		msg.AddrList = append(msg.AddrList, a)
		cursor += n
	}
	return msg, cursor - offset, nil
}

func EncodeAddrMsg(msg AddrMsg, version int32) ([]byte, error) {
	if len(msg.AddrList) > MaxAddrPerMsg {
		err := protoErr(ErrTooLarge, "cannot encode %d addresses (max %d)", len(msg.AddrList), MaxAddrPerMsg)
		return nil, withCommand(err, CmdAddr)
	}
	e := Encode(MaxVarIntSize + NetAddrSize(version)*len(msg.AddrList))
	e.var_uint(uint64(len(msg.AddrList)))
	for _, a := range msg.AddrList {
		EncodeNetAddr(a, e, version)
	}
	return e.Result(), nil
}

// String renders every address followed by a single space,
// including the last.
func (msg AddrMsg) String() string {
	var b strings.Builder
	b.WriteString("addr: ")
	for _, a := range msg.AddrList {
		b.WriteString(a.String())
		b.WriteString(" ")
	}
	return b.String()
}
