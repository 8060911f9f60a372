// Package tickmath converts between ticks, Q64.64 square-root prices and
// human prices for concentrated-liquidity pools.
//
// All conversions are exact integer or decimal arithmetic. The tick to
// sqrt-price mapping reproduces the on-chain program bit for bit so that a
// tick derived here addresses the same tick array the program would.
package tickmath

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Protocol tick bounds.
const (
	MinTickIndex int32 = -443636
	MaxTickIndex int32 = 443636
)

var (
	ErrInvalidPrice         = errors.New("tickmath: price must be positive")
	ErrTickOutOfBounds      = errors.New("tickmath: tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("tickmath: sqrt price out of bounds")
	ErrInvalidTickSpacing   = errors.New("tickmath: tick spacing must be positive")
)

var (
	minSqrtPriceX64 = mustBigInt("4295048016")
	maxSqrtPriceX64 = mustBigInt("79226673515401279992447579055")

	q64 = new(big.Int).Lsh(big.NewInt(1), 64)
	q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	// 5^128, so that x / 2^128 == x * 5^128 * 10^-128.
	pow5x128 = new(big.Int).Exp(big.NewInt(5), big.NewInt(128), nil)
)

// positiveRatios[i] is sqrt(1.0001^(2^i)) in Q32.96.
var positiveRatios = mustBigInts(
	"79232123823359799118286999567",
	"79236085330515764027303304731",
	"79244008939048815603706035061",
	"79259858533276714757314932305",
	"79291567232598584799939703904",
	"79355022692464371645785046466",
	"79482085999252804386437311141",
	"79736823300114093921829183326",
	"80248749790819932309965073892",
	"81282483887344747381513967011",
	"83390072131320151908154831281",
	"87770609709833776024991924138",
	"97234110755111693312479820773",
	"119332217159966728226237229890",
	"179736315981702064433883588727",
	"407748233172238350107850275304",
	"2098478828474011932436660412517",
	"55581415166113811149459800483533",
	"38992368544603139932233054999993551",
)

// negativeRatios[i] is sqrt(1.0001^-(2^i)) in Q64.64.
var negativeRatios = mustBigInts(
	"18445821805675392311",
	"18444899583751176498",
	"18443055278223354162",
	"18439367220385604838",
	"18431993317065449817",
	"18417254355718160513",
	"18387811781193591352",
	"18329067761203520168",
	"18212142134806087854",
	"17980523815641551639",
	"17526086738831147013",
	"16651378430235024244",
	"15030750278693429944",
	"12247334978882834399",
	"8131365268884726200",
	"3584323654723342297",
	"696457651847595233",
	"26294789957452057",
	"37481735321082",
)

// MinSqrtPriceX64 returns the sqrt price at MinTickIndex.
func MinSqrtPriceX64() *big.Int { return new(big.Int).Set(minSqrtPriceX64) }

// MaxSqrtPriceX64 returns the sqrt price at MaxTickIndex.
func MaxSqrtPriceX64() *big.Int { return new(big.Int).Set(maxSqrtPriceX64) }

// SqrtPriceX64AtTick returns floor(sqrt(1.0001^tick) * 2^64).
func SqrtPriceX64AtTick(tick int32) (*big.Int, error) {
	if tick < MinTickIndex || tick > MaxTickIndex {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfBounds, tick)
	}
	return sqrtPriceAt(tick), nil
}

func sqrtPriceAt(tick int32) *big.Int {
	if tick >= 0 {
		return positiveTickSqrt(uint32(tick))
	}
	return negativeTickSqrt(uint32(-tick))
}

func positiveTickSqrt(t uint32) *big.Int {
	ratio := new(big.Int).Set(q96)
	if t&1 != 0 {
		ratio.Set(positiveRatios[0])
	}
	for i := 1; i < len(positiveRatios); i++ {
		if t&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, positiveRatios[i])
			ratio.Rsh(ratio, 96)
		}
	}
	return ratio.Rsh(ratio, 32)
}

func negativeTickSqrt(t uint32) *big.Int {
	ratio := new(big.Int).Set(q64)
	if t&1 != 0 {
		ratio.Set(negativeRatios[0])
	}
	for i := 1; i < len(negativeRatios); i++ {
		if t&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, negativeRatios[i])
			ratio.Rsh(ratio, 64)
		}
	}
	return ratio
}

// TickAtSqrtPriceX64 returns the greatest tick whose sqrt price does not
// exceed sqrtPriceX64.
func TickAtSqrtPriceX64(sqrtPriceX64 *big.Int) (int32, error) {
	if sqrtPriceX64 == nil || sqrtPriceX64.Cmp(minSqrtPriceX64) < 0 || sqrtPriceX64.Cmp(maxSqrtPriceX64) > 0 {
		return 0, fmt.Errorf("%w: %v", ErrSqrtPriceOutOfBounds, sqrtPriceX64)
	}

	// Float estimate, then exact correction against the tick table.
	f, _ := new(big.Float).SetInt(sqrtPriceX64).Float64()
	est := math.Floor(2 * math.Log(math.Ldexp(f, -64)) / math.Log(1.0001))
	tick := clampTick(est)

	for tick < MaxTickIndex && sqrtPriceAt(tick+1).Cmp(sqrtPriceX64) <= 0 {
		tick++
	}
	for tick > MinTickIndex && sqrtPriceAt(tick).Cmp(sqrtPriceX64) > 0 {
		tick--
	}
	return tick, nil
}

func clampTick(f float64) int32 {
	switch {
	case math.IsNaN(f) || f < float64(MinTickIndex):
		return MinTickIndex
	case f > float64(MaxTickIndex):
		return MaxTickIndex
	}
	return int32(f)
}

// SqrtPriceX64ToPrice converts a Q64.64 sqrt price to a price of token B
// per token A, adjusted for decimals. The result is exact.
func SqrtPriceX64ToPrice(sqrtPriceX64 *big.Int, decimalsA, decimalsB int) decimal.Decimal {
	n := new(big.Int).Mul(sqrtPriceX64, sqrtPriceX64)
	n.Mul(n, pow5x128)
	return decimal.NewFromBigInt(n, int32(decimalsA-decimalsB-128))
}

// PriceToSqrtPriceX64 returns floor(sqrt(price * 10^(decimalsB-decimalsA)) * 2^64).
func PriceToSqrtPriceX64(price decimal.Decimal, decimalsA, decimalsB int) (*big.Int, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}

	exp := int64(price.Exponent()) + int64(decimalsB-decimalsA)
	n := new(big.Int).Lsh(price.Coefficient(), 128)
	if exp >= 0 {
		n.Mul(n, pow10(exp))
	} else {
		n.Quo(n, pow10(-exp))
	}
	return n.Sqrt(n), nil
}

// TickToPrice returns the exact price at tick.
func TickToPrice(tick int32, decimalsA, decimalsB int) (decimal.Decimal, error) {
	sqrt, err := SqrtPriceX64AtTick(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return SqrtPriceX64ToPrice(sqrt, decimalsA, decimalsB), nil
}

// PriceToTick returns the greatest tick whose price does not exceed price.
func PriceToTick(price decimal.Decimal, decimalsA, decimalsB int) (int32, error) {
	sqrt, err := PriceToSqrtPriceX64(price, decimalsA, decimalsB)
	if err != nil {
		return 0, err
	}
	return TickAtSqrtPriceX64(sqrt)
}

// PriceToInitializableTick converts price to a tick and snaps it down to a
// multiple of tickSpacing.
func PriceToInitializableTick(price decimal.Decimal, decimalsA, decimalsB int, tickSpacing int32) (int32, error) {
	if err := CheckTickSpacing(tickSpacing); err != nil {
		return 0, err
	}
	tick, err := PriceToTick(price, decimalsA, decimalsB)
	if err != nil {
		return 0, err
	}
	return InitializableTick(tick, tickSpacing), nil
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func mustBigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad constant " + s)
	}
	return n
}

func mustBigInts(ss ...string) []*big.Int {
	out := make([]*big.Int, len(ss))
	for i, s := range ss {
		out[i] = mustBigInt(s)
	}
	return out
}
