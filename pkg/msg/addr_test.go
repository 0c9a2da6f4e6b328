package msg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = 70015

func ipv4(a, b, c, d byte) (addr [16]byte) {
	addr[10], addr[11] = 0xff, 0xff
	addr[12], addr[13], addr[14], addr[15] = a, b, c, d
	return
}

func testAddrs() []NetAddr {
	return []NetAddr{
		{Time: 1700000000, Services: 1, Address: ipv4(1, 2, 3, 4), Port: 22556},
		{Time: 1700000100, Services: 5, Address: ipv4(10, 0, 0, 7), Port: 44556},
		{Time: 1700000200, Services: 1024, Address: ipv4(192, 168, 1, 1), Port: 1},
	}
}

func TestDecodeAddrMsgEmpty(t *testing.T) {
	buf := []byte{0xAA, 0x00, 0xBB}
	msg, n, err := DecodeAddrMsg(buf, 1, testVersion)
	require.NoError(t, err)
	assert.Empty(t, msg.AddrList)
	assert.Equal(t, 1, n)
}

func TestDecodeAddrMsgTooLarge(t *testing.T) {
	// 1025 followed by enough bytes for every record
	buf := AppendVarInt(nil, MaxAddrPerMsg+1)
	buf = append(buf, make([]byte, (MaxAddrPerMsg+1)*NetAddrSize(testVersion))...)
	msg, n, err := DecodeAddrMsg(buf, 0, testVersion)
	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "too large")
	assert.Nil(t, msg.AddrList)
	assert.Zero(t, n)
}

func TestDecodeAddrMsgHugeCount(t *testing.T) {
	buf := AppendVarInt(nil, 1<<63)
	_, _, err := DecodeAddrMsg(buf, 0, testVersion)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeAddrMsgTruncated(t *testing.T) {
	buf := AppendVarInt(nil, MaxAddrPerMsg)
	buf = append(buf, make([]byte, 10)...)
	var msg AddrMsg
	var err error
	assert.NotPanics(t, func() {
		msg, _, err = DecodeAddrMsg(buf, 0, testVersion)
	})
	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
	assert.ErrorIs(t, err, ErrShortBuffer)
	assert.Nil(t, msg.AddrList)
}

func TestDecodeAddrMsgTruncatedCount(t *testing.T) {
	_, _, err := DecodeAddrMsg([]byte{0xFD, 0x03}, 0, testVersion)
	assert.ErrorIs(t, err, ErrShortBuffer)
	_, _, err = DecodeAddrMsg(nil, 0, testVersion)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeAddrMsgThree(t *testing.T) {
	want := testAddrs()
	payload, err := EncodeAddrMsg(AddrMsg{AddrList: want}, testVersion)
	require.NoError(t, err)
	prefix := []byte{1, 2, 3, 4, 5}
	buf := append(append([]byte{}, prefix...), payload...)

	msg, n, err := DecodeAddrMsg(buf, len(prefix), testVersion)
	require.NoError(t, err)
	assert.Equal(t, want, msg.AddrList)
	assert.Equal(t, 1+3*30, n)
	assert.Equal(t, len(buf), len(prefix)+n)
}

func TestDecodeAddrMsgRecordSizeFollowsVersion(t *testing.T) {
	want := testAddrs()
	for _, version := range []int32{0, AddrTimeVersion - 1} {
		payload, err := EncodeAddrMsg(AddrMsg{AddrList: want}, version)
		require.NoError(t, err)
		msg, n, err := DecodeAddrMsg(payload, 0, version)
		require.NoError(t, err)
		assert.Equal(t, 1+3*26, n)
		require.Len(t, msg.AddrList, 3)
		for i, a := range msg.AddrList {
			assert.Zero(t, a.Time)
			assert.Equal(t, want[i].Address, a.Address)
			assert.Equal(t, want[i].Port, a.Port)
		}
	}
}

func TestDecodeAddrMsgNonMinimalCount(t *testing.T) {
	want := testAddrs()[:2]
	payload, err := EncodeAddrMsg(AddrMsg{AddrList: want}, testVersion)
	require.NoError(t, err)
	// replace the 1-byte count with a 3-byte form of the same value
	buf := append([]byte{0xFD, 0x02, 0x00}, payload[1:]...)
	msg, n, err := DecodeAddrMsg(buf, 0, testVersion)
	require.NoError(t, err)
	assert.Equal(t, want, msg.AddrList)
	assert.Equal(t, 3+2*30, n)
}

func TestDecodeAddrMsgMaxCount(t *testing.T) {
	list := make([]NetAddr, MaxAddrPerMsg)
	for i := range list {
		list[i] = NetAddr{Time: uint32(i), Address: ipv4(10, 0, byte(i>>8), byte(i)), Port: uint16(i)}
	}
	payload, err := EncodeAddrMsg(AddrMsg{AddrList: list}, testVersion)
	require.NoError(t, err)
	msg, n, err := DecodeAddrMsg(payload, 0, testVersion)
	require.NoError(t, err)
	assert.Equal(t, list, msg.AddrList)
	assert.Equal(t, len(payload), n)
}

func TestEncodeAddrMsgTooLarge(t *testing.T) {
	_, err := EncodeAddrMsg(AddrMsg{AddrList: make([]NetAddr, MaxAddrPerMsg+1)}, testVersion)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAddrMsgString(t *testing.T) {
	msg := AddrMsg{AddrList: testAddrs()[:2]}
	assert.Equal(t, "addr: [1.2.3.4]:22556 [10.0.0.7]:44556 ", msg.String())
	assert.Equal(t, "addr: ", AddrMsg{}.String())
}

func TestAddrMsgErrorNamesCommand(t *testing.T) {
	_, _, err := DecodeAddrMsg([]byte{0x01, 0x00}, 0, testVersion)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CmdAddr, pe.Command)
}
