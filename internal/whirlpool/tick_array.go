package whirlpool

import (
	"fmt"
	"math/big"

	"lukechampine.com/uint128"

	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/tickarray"
)

// Tick is one decoded tick slot.
type Tick struct {
	Initialized          bool
	LiquidityNet         *big.Int
	LiquidityGross       uint128.Uint128
	FeeGrowthOutsideA    uint128.Uint128
	FeeGrowthOutsideB    uint128.Uint128
	RewardGrowthsOutside [3]uint128.Uint128
}

// TickArray is a tick array account whose header has been validated.
// Individual ticks are decoded on demand so that one corrupt slot does not
// invalidate its neighbours.
type TickArray struct {
	StartTickIndex int32
	Whirlpool      solana.PublicKey
	data           []byte
}

// ParseTickArray validates the account header.
func ParseTickArray(data []byte) (*TickArray, error) {
	d := newAccountDecoder(data)
	d.discriminator(tickArrayDiscriminator)
	start := d.i32("start_tick_index")
	if d.err != nil {
		return nil, d.err
	}

	arr := &TickArray{StartTickIndex: start, data: data}
	if len(data) >= TickArrayAccountSize {
		copy(arr.Whirlpool[:], data[TickArrayAccountSize-solana.PublicKeyLength:TickArrayAccountSize])
	}
	return arr, nil
}

// Tick decodes the tick at slot.
func (a *TickArray) Tick(slot int) (Tick, error) {
	if slot < 0 || slot >= tickarray.TickArraySize {
		return Tick{}, fmt.Errorf("%w: slot %d out of range", ErrDecode, slot)
	}
	off := TickArrayTicksOffset + slot*TickSize
	if off+TickSize > len(a.data) {
		return Tick{}, fmt.Errorf("%w: slot %d truncated (account %d bytes)", ErrDecode, slot, len(a.data))
	}

	d := newAccountDecoder(a.data[off : off+TickSize])
	var t Tick
	t.Initialized = d.boolean("initialized")
	t.LiquidityNet = d.i128("liquidity_net")
	t.LiquidityGross = d.u128("liquidity_gross")
	t.FeeGrowthOutsideA = d.u128("fee_growth_outside_a")
	t.FeeGrowthOutsideB = d.u128("fee_growth_outside_b")
	for i := range t.RewardGrowthsOutside {
		t.RewardGrowthsOutside[i] = d.u128("reward_growths_outside")
	}
	if d.err != nil {
		return Tick{}, fmt.Errorf("slot %d: %w", slot, d.err)
	}
	return t, nil
}
