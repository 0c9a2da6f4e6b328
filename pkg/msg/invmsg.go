package msg

import (
	"encoding/hex"
	"fmt"
)

type InvType uint32

const (
	InvError                InvType = 0          // ERROR
	InvTx                   InvType = 1          // MSG_TX: hash of transaction
	InvBlock                InvType = 2          // MSG_BLOCK: hash of block
	InvFilteredBLock        InvType = 3          // MSG_FILTERED_BLOCK: hash of block (BIP.37 reply merkleblock)
	InvCmpctBlock           InvType = 4          // MSG_CMPCT_BLOCK: hash of block (BIP.152 reply cmpctblock)
	InvWitnessTx            InvType = 0x40000001 // MSG_WITNESS_TX: hash of transaction with witness data (BIP.144)
	InvWitnessBlock         InvType = 0x40000002 // MSG_WITNESS_BLOCK: hash of block with witness data (BIP.144)
	InvFilteredWitnessBlock InvType = 0x40000003 //	MSG_FILTERED_WITNESS_BLOCK: hash of block with witness data (BIP.144 reply merkleblock)
)

// MaxInvPerMsg is Core's MAX_INV_SZ.
const MaxInvPerMsg = 50000

const invVectorSize = 36

type InvMsg struct {
	InvList []InvVector
}

func (InvMsg) Command() string { return CmdInv }

func DecodeInvMsg(buf []byte, offset int, version int32) (InvMsg, int, error) {
	return parse(buf, offset, CmdInv, func(d *Decoder) (msg InvMsg) {
		count := d.var_count(MaxInvPerMsg, "inv message")
		if d.Err() != nil {
			return
		}
		// the whole list must be present before allocating for it
		if count*invVectorSize > d.Remaining() {
			d.Fail(protoErr(ErrShortBuffer, "inv: %d entries need %d bytes, have %d", count, count*invVectorSize, d.Remaining()))
			return
		}
		msg.InvList = make([]InvVector, 0, count)
		for i := 0; i < count; i++ {
			msg.InvList = append(msg.InvList, decodeInvVector(d))
		}
		return
	})
}

func EncodeInvMsg(msg InvMsg) []byte {
	e := Encode(VarIntSize(uint64(len(msg.InvList))) + invVectorSize*len(msg.InvList))
	e.var_uint(uint64(len(msg.InvList)))
	for _, inv := range msg.InvList {
		e.uint32le(uint32(inv.Type))
		e.bytes(inv.Hash)
	}
	return e.Result()
}

type InvVector struct {
	Type InvType
	Hash []byte // hash of tx/block (32 bytes)
}

func (i *InvVector) String() string {
	return fmt.Sprintf("{%s %s}", InvTypeString(i.Type), hex.EncodeToString(i.Hash))
}

func decodeInvVector(d *Decoder) (inv InvVector) {
	inv.Type = InvType(d.uint32le())
	inv.Hash = d.bytes(32)
	return
}

func DecodeInvVector(buf []byte, offset int) (InvVector, int, error) {
	return parse(buf, offset, CmdInv, decodeInvVector)
}

func EncodeInvVector(msg InvVector) []byte {
	e := Encode(invVectorSize)
	e.uint32le(uint32(msg.Type))
	e.bytes(msg.Hash)
	return e.Result()
}

func InvTypeString(t InvType) string {
	switch t {
	case InvError:
		return "error"
	case InvTx:
		return "tx"
	case InvBlock:
		return "block"
	case InvFilteredBLock:
		return "filtered-block"
	case InvCmpctBlock:
		return "cmpct-block"
	case InvWitnessTx:
		return "witness-tx"
	case InvWitnessBlock:
		return "witness-block"
	case InvFilteredWitnessBlock:
		return "filtered-witness-block"
	}
	return "unknown"
}
