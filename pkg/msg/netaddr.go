package msg

import (
	"fmt"
	"net"
	"strconv"
)

// NetAddr represents the structure of a network address
type NetAddr struct {
	Time     uint32   // if version >= 31402; not present in version message
	Services uint64   // services bit flags
	Address  [16]byte // network byte order (BE); IPv4-mapped IPv6 address
	Port     uint16   // network byte order (BE)
}

const AddrTimeVersion = 31402 // Time field added to NetAddr.

// NetAddrSize is the encoded size of a NetAddr at the given version.
func NetAddrSize(version int32) int {
	if version >= AddrTimeVersion {
		return 30
	}
	return 26
}

// DecodeNetAddr decodes one NetAddr at buf[offset] and returns the
// number of bytes it consumed.
// NB. pass version=0 in Version message.
func DecodeNetAddr(buf []byte, offset int, version int32) (NetAddr, int, error) {
	return parse(buf, offset, "", func(d *Decoder) NetAddr {
		return decodeNetAddr(d, version)
	})
}

func decodeNetAddr(d *Decoder, version int32) (a NetAddr) {
	if version >= AddrTimeVersion {
		a.Time = d.uint32le()
	}
	a.Services = d.uint64le()
	copy(a.Address[:], d.bytes(16))
	a.Port = d.uint16be()
	return
}

// NB. pass version=0 in Version message.
func EncodeNetAddr(a NetAddr, e *Encoder, version int32) {
	if version >= AddrTimeVersion {
		e.uint32le(a.Time)
	}
	e.uint64le(a.Services)
	e.bytes(a.Address[:])
	e.uint16be(a.Port)
}

func (a NetAddr) IP() net.IP {
	return net.IP(a.Address[:])
}

// HostPort is the address in net.Dial format.
func (a NetAddr) HostPort() string {
	return net.JoinHostPort(a.IP().String(), strconv.Itoa(int(a.Port)))
}

// String renders "[ip]:port".
func (a NetAddr) String() string {
	return fmt.Sprintf("[%s]:%d", a.IP(), a.Port)
}
