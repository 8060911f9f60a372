package whirlpool

import (
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"lukechampine.com/uint128"

	"whirlpool-range-lab/internal/solana"
)

// accountDecoder wraps a borsh decoder with a sticky error so a layout can
// be read field by field and checked once.
type accountDecoder struct {
	dec *bin.Decoder
	err error
}

func newAccountDecoder(data []byte) *accountDecoder {
	return &accountDecoder{dec: bin.NewBorshDecoder(data)}
}

func (d *accountDecoder) fail(field string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s: %v", ErrDecode, field, err)
	}
}

func (d *accountDecoder) discriminator(want [discriminatorSize]byte) {
	b := d.bytes("discriminator", discriminatorSize)
	if d.err != nil {
		return
	}
	if [discriminatorSize]byte(b) != want {
		d.err = fmt.Errorf("%w: unexpected discriminator %x", ErrDecode, b)
	}
}

func (d *accountDecoder) bytes(field string, n int) []byte {
	if d.err != nil {
		return nil
	}
	b, err := d.dec.ReadNBytes(n)
	if err != nil {
		d.fail(field, err)
		return nil
	}
	return b
}

func (d *accountDecoder) skip(field string, n int) {
	d.bytes(field, n)
}

func (d *accountDecoder) publicKey(field string) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], d.bytes(field, solana.PublicKeyLength))
	return pk
}

func (d *accountDecoder) boolean(field string) bool {
	if d.err != nil {
		return false
	}
	v, err := d.dec.ReadBool()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *accountDecoder) u8(field string) uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.ReadByte()
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *accountDecoder) u16(field string) uint16 {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.ReadUint16(bin.LE)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *accountDecoder) i32(field string) int32 {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.ReadInt32(bin.LE)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *accountDecoder) u64(field string) uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.dec.ReadUint64(bin.LE)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *accountDecoder) u128(field string) uint128.Uint128 {
	if d.err != nil {
		return uint128.Zero
	}
	v, err := d.dec.ReadUint128(bin.LE)
	if err != nil {
		d.fail(field, err)
		return uint128.Zero
	}
	return uint128.New(v.Lo, v.Hi)
}

// i128 reads a two's complement signed 128-bit integer.
func (d *accountDecoder) i128(field string) *big.Int {
	u := d.u128(field)
	n := u.Big()
	if u.Hi>>63 == 1 {
		n.Sub(n, two128)
	}
	return n
}

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)
