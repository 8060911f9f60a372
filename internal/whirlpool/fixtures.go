package whirlpool

import (
	"encoding/binary"
	"math/big"

	"lukechampine.com/uint128"

	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/tickarray"
)

// Fixture encoders build account data in the on-chain layout. They back
// the stub ledger used by tests and local runs.

// FixtureTick is the liquidity to place in one tick slot.
type FixtureTick struct {
	Net   *big.Int
	Gross *big.Int
}

// EncodeTickArray builds a tick array account starting at startTick.
// ticks maps slot index to liquidity; other slots are uninitialized.
func EncodeTickArray(pool solana.PublicKey, startTick int32, ticks map[int]FixtureTick) []byte {
	data := make([]byte, TickArrayAccountSize)
	copy(data, tickArrayDiscriminator[:])
	binary.LittleEndian.PutUint32(data[discriminatorSize:], uint32(startTick))

	for slot, t := range ticks {
		if slot < 0 || slot >= tickarray.TickArraySize {
			continue
		}
		off := TickArrayTicksOffset + slot*TickSize
		data[off] = 1
		putI128(data[off+1:], t.Net)
		putI128(data[off+17:], t.Gross)
	}

	copy(data[TickArrayAccountSize-solana.PublicKeyLength:], pool[:])
	return data
}

// FixturePool describes a pool account to encode.
type FixturePool struct {
	TickSpacing      uint16
	FeeRate          uint16
	Liquidity        *big.Int
	SqrtPriceX64     *big.Int
	TickCurrentIndex int32
	TokenMintA       solana.PublicKey
	TokenMintB       solana.PublicKey
}

// EncodePool builds a pool account.
func EncodePool(p FixturePool) []byte {
	data := make([]byte, PoolAccountSize)
	copy(data, poolDiscriminator[:])
	binary.LittleEndian.PutUint16(data[41:], p.TickSpacing)
	binary.LittleEndian.PutUint16(data[43:], p.TickSpacing)
	binary.LittleEndian.PutUint16(data[45:], p.FeeRate)
	putI128(data[49:], p.Liquidity)
	putI128(data[65:], p.SqrtPriceX64)
	binary.LittleEndian.PutUint32(data[81:], uint32(p.TickCurrentIndex))
	copy(data[101:], p.TokenMintA[:])
	copy(data[181:], p.TokenMintB[:])
	return data
}

// EncodeMint builds a minimal SPL mint account with the given decimals.
func EncodeMint(decimals uint8) []byte {
	data := make([]byte, MintAccountMinSize)
	data[mintDecimalsOffset] = decimals
	data[mintDecimalsOffset+1] = 1 // is_initialized
	return data
}

// putI128 writes n as a little-endian two's complement 128-bit integer.
func putI128(dst []byte, n *big.Int) {
	if n == nil {
		return
	}
	v := new(big.Int).Set(n)
	if v.Sign() < 0 {
		v.Add(v, two128)
	}
	u := uint128.FromBig(v)
	u.PutBytes(dst[:16])
}
