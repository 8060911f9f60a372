package whirlpool

import (
	"fmt"
	"strconv"

	"whirlpool-range-lab/internal/liquidity"
	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/tickarray"
)

// Program derives addresses and decodes tick data for one deployment of
// the pool program.
type Program struct {
	ID solana.PublicKey
}

// NewProgram parses the program address.
func NewProgram(programID string) (Program, error) {
	id, err := solana.ParsePublicKey(programID)
	if err != nil {
		return Program{}, fmt.Errorf("program id: %w", err)
	}
	return Program{ID: id}, nil
}

// TickArrayAddress derives the tick array PDA for the shard starting at
// startTick. Seeds are "tick_array", the pool key and the decimal start tick.
func (p Program) TickArrayAddress(pool solana.PublicKey, startTick int32) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte("tick_array"),
		pool[:],
		[]byte(strconv.FormatInt(int64(startTick), 10)),
	}
	addr, _, err := solana.FindProgramAddress(seeds, p.ID)
	return addr, err
}

// ShardAddress implements liquidity.ShardLocator.
func (p Program) ShardAddress(pool string, startTick int32) (string, error) {
	poolKey, err := solana.ParsePublicKey(pool)
	if err != nil {
		return "", err
	}
	addr, err := p.TickArrayAddress(poolKey, startTick)
	if err != nil {
		return "", err
	}
	return addr.String(), nil
}

// DecodeTick implements liquidity.TickDecoder.
func (p Program) DecodeTick(data []byte, tick, tickSpacing int32) (liquidity.TickLiquidity, error) {
	arr, err := ParseTickArray(data)
	if err != nil {
		return liquidity.TickLiquidity{}, err
	}

	want := tickarray.StartTickIndex(tick, tickSpacing)
	if arr.StartTickIndex != want {
		return liquidity.TickLiquidity{}, fmt.Errorf("%w: shard starts at %d, expected %d", ErrDecode, arr.StartTickIndex, want)
	}

	slot, err := tickarray.SlotIndex(tick, arr.StartTickIndex, tickSpacing)
	if err != nil {
		return liquidity.TickLiquidity{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	t, err := arr.Tick(slot)
	if err != nil {
		return liquidity.TickLiquidity{}, err
	}
	return liquidity.TickLiquidity{
		Initialized: t.Initialized,
		Net:         t.LiquidityNet,
		Gross:       t.LiquidityGross.Big(),
	}, nil
}

var (
	_ liquidity.ShardLocator = Program{}
	_ liquidity.TickDecoder  = Program{}
)
