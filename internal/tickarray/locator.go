// Package tickarray maps ticks onto the fixed-size tick array shards the
// pool program stores them in.
package tickarray

import (
	"fmt"

	"whirlpool-range-lab/internal/tickmath"
)

// TickArraySize is the number of tick slots held by one shard.
const TickArraySize = 88

// TicksPerArray returns the tick span covered by one shard.
func TicksPerArray(tickSpacing int32) int32 {
	return tickSpacing * TickArraySize
}

// StartTickIndex returns the start tick of the shard containing tick.
// Negative ticks floor toward negative infinity.
func StartTickIndex(tick, tickSpacing int32) int32 {
	span := TicksPerArray(tickSpacing)
	q := tick / span
	if tick%span != 0 && tick < 0 {
		q--
	}
	return q * span
}

// SlotIndex returns the position of tick within the shard starting at
// startTick.
func SlotIndex(tick, startTick, tickSpacing int32) (int, error) {
	offset := tick - startTick
	if offset < 0 || offset%tickSpacing != 0 {
		return 0, fmt.Errorf("tick %d not addressable in shard %d (spacing %d)", tick, startTick, tickSpacing)
	}
	slot := int(offset / tickSpacing)
	if slot >= TickArraySize {
		return 0, fmt.Errorf("tick %d outside shard %d (spacing %d)", tick, startTick, tickSpacing)
	}
	return slot, nil
}

// InitializableTicks returns every multiple of tickSpacing in
// [minTick, maxTick], ascending. The interval is clipped to the protocol
// bounds. An empty or inverted interval yields nil.
func InitializableTicks(minTick, maxTick, tickSpacing int32) []int32 {
	first, last, ok := alignedBounds(minTick, maxTick, tickSpacing)
	if !ok {
		return nil
	}
	ticks := make([]int32, 0, (last-first)/tickSpacing+1)
	for t := first; t <= last; t += tickSpacing {
		ticks = append(ticks, t)
	}
	return ticks
}

// ShardsCovering returns the distinct shard start ticks containing at least
// one initializable tick of [minTick, maxTick], ascending.
func ShardsCovering(minTick, maxTick, tickSpacing int32) []int32 {
	first, last, ok := alignedBounds(minTick, maxTick, tickSpacing)
	if !ok {
		return nil
	}
	span := TicksPerArray(tickSpacing)
	lo := StartTickIndex(first, tickSpacing)
	hi := StartTickIndex(last, tickSpacing)

	starts := make([]int32, 0, (hi-lo)/span+1)
	for s := lo; s <= hi; s += span {
		starts = append(starts, s)
	}
	return starts
}

// alignedBounds returns the first and last initializable ticks inside
// [minTick, maxTick] after clipping to the protocol bounds.
func alignedBounds(minTick, maxTick, tickSpacing int32) (first, last int32, ok bool) {
	if tickSpacing <= 0 || minTick > maxTick {
		return 0, 0, false
	}
	lo, hi := tickmath.FullRangeTicks(tickSpacing)
	minTick = max(minTick, lo)
	maxTick = min(maxTick, hi)

	first = tickmath.InitializableTick(minTick, tickSpacing)
	if first < minTick {
		first += tickSpacing
	}
	last = tickmath.InitializableTick(maxTick, tickSpacing)
	if first > last {
		return 0, 0, false
	}
	return first, last, true
}
