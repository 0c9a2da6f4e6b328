package msg

type RejectCode int

const (
	REJECT_MALFORMED       RejectCode = 0x01
	REJECT_INVALID         RejectCode = 0x10
	REJECT_OBSOLETE        RejectCode = 0x11
	REJECT_DUPLICATE       RejectCode = 0x12
	REJECT_NONSTANDARD     RejectCode = 0x40
	REJECT_DUST            RejectCode = 0x41
	REJECT_INSUFFICIENTFEE RejectCode = 0x42
	REJECT_CHECKPOINT      RejectCode = 0x43
)

// Core limits: COMMAND_SIZE and MAX_REJECT_MESSAGE_LENGTH.
const (
	MaxRejectMessage = 12
	MaxRejectReason  = 111
)

type RejectMsg struct {
	Message string
	Code    RejectCode
	Reason  string
	Data    []byte
}

func (RejectMsg) Command() string { return CmdReject }

func (m *RejectMsg) CodeName() string {
	switch m.Code {
	case REJECT_MALFORMED:
		return "malformed"
	case REJECT_INVALID:
		return "invalid"
	case REJECT_OBSOLETE:
		return "obsolete"
	case REJECT_DUPLICATE:
		return "duplicate"
	case REJECT_NONSTANDARD:
		return "nonstandard"
	case REJECT_DUST:
		return "dust"
	case REJECT_INSUFFICIENTFEE:
		return "insufficient-fee"
	case REJECT_CHECKPOINT:
		return "checkpoint"
	default:
		return "unknown"
	}
}

func DecodeReject(buf []byte, offset int, version int32) (RejectMsg, int, error) {
	return parse(buf, offset, CmdReject, func(d *Decoder) (rej RejectMsg) {
		rej.Message = d.var_string(MaxRejectMessage)
		rej.Code = RejectCode(d.uint8())
		rej.Reason = d.var_string(MaxRejectReason)
		rej.Data = d.rest()
		return
	})
}

func EncodeReject(rej RejectMsg) []byte {
	e := Encode(2 + len(rej.Message) + 1 + len(rej.Reason) + len(rej.Data))
	e.var_string(rej.Message)
	e.uint8(uint8(rej.Code))
	e.var_string(rej.Reason)
	e.bytes(rej.Data)
	return e.Result()
}
