package msg

import (
	"errors"
	"fmt"
)

var (
	ErrShortBuffer    = errors.New("msg: short buffer")
	ErrTooLarge       = errors.New("msg: too large")
	ErrBadEncoding    = errors.New("msg: bad encoding")
	ErrUnknownCommand = errors.New("msg: unknown command")
)

// ProtocolError is returned for any malformed or oversized wire input.
// The peer that sent the input should be treated as untrustworthy.
type ProtocolError struct {
	Command string // message being decoded, if known
	Reason  string
	Err     error // one of ErrShortBuffer, ErrTooLarge, ErrBadEncoding
}

func (e *ProtocolError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("protocol error: [%s] %s", e.Command, e.Reason)
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protoErr(kind error, format string, args ...any) *ProtocolError {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...), Err: kind}
}

// withCommand tags a ProtocolError with the message command.
func withCommand(err error, cmd string) error {
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Command == "" {
		tagged := *pe
		tagged.Command = cmd
		return &tagged
	}
	return err
}

// IsProtocolError reports whether err is (or wraps) a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
