package tickmath

import "fmt"

// CheckTickSpacing validates a pool tick spacing.
func CheckTickSpacing(tickSpacing int32) error {
	if tickSpacing <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, tickSpacing)
	}
	return nil
}

// InitializableTick snaps tick down to the nearest multiple of tickSpacing.
// Negative ticks snap toward negative infinity. tickSpacing must be positive.
func InitializableTick(tick, tickSpacing int32) int32 {
	r := tick % tickSpacing
	if r < 0 {
		r += tickSpacing
	}
	return tick - r
}

// NextInitializableTick returns tick + tickSpacing.
func NextInitializableTick(tick, tickSpacing int32) int32 {
	return tick + tickSpacing
}

// PrevInitializableTick returns tick - tickSpacing.
func PrevInitializableTick(tick, tickSpacing int32) int32 {
	return tick - tickSpacing
}

// FullRangeTicks returns the lowest and highest initializable ticks inside
// the protocol bounds.
func FullRangeTicks(tickSpacing int32) (minTick, maxTick int32) {
	maxTick = (MaxTickIndex / tickSpacing) * tickSpacing
	return -maxTick, maxTick
}
