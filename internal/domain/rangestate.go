package domain

// TickRange is an inclusive tick interval.
type TickRange struct {
	Min int32 `json:"min"`
	Max int32 `json:"max"`
}

// Contains reports whether tick lies inside the range, bounds included.
func (r TickRange) Contains(tick int32) bool {
	return tick >= r.Min && tick <= r.Max
}

// Valid reports whether Min <= Max.
func (r TickRange) Valid() bool {
	return r.Min <= r.Max
}

// RangeState holds the two tick ranges shown to the user.
// The chart range bounds what is fetched and drawn; the user range marks
// the position the user intends to provide liquidity in.
type RangeState struct {
	ChartMinTick int32 `json:"chartMinTick"`
	ChartMaxTick int32 `json:"chartMaxTick"`
	UserMinTick  int32 `json:"userMinTick"`
	UserMaxTick  int32 `json:"userMaxTick"`
}

// Chart returns the chart range.
func (s RangeState) Chart() TickRange {
	return TickRange{Min: s.ChartMinTick, Max: s.ChartMaxTick}
}

// User returns the user range.
func (s RangeState) User() TickRange {
	return TickRange{Min: s.UserMinTick, Max: s.UserMaxTick}
}
