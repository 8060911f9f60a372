package tickarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTickIndex(t *testing.T) {
	cases := []struct {
		tick, spacing, want int32
	}{
		{0, 64, 0},
		{5631, 64, 0},
		{5632, 64, 5632},
		{-1, 64, -5632},
		{-5632, 64, -5632},
		{-5633, 64, -11264},
		{-20032, 64, -22528},
		{-17088, 64, -22528},
		{-16896, 64, -16896},
		{87, 1, 0},
		{88, 1, 88},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StartTickIndex(tc.tick, tc.spacing), "tick %d spacing %d", tc.tick, tc.spacing)
	}
}

func TestSlotIndex(t *testing.T) {
	slot, err := SlotIndex(-20032, -22528, 64)
	require.NoError(t, err)
	assert.Equal(t, 39, slot)

	slot, err = SlotIndex(-22528, -22528, 64)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)

	_, err = SlotIndex(-20000, -22528, 64)
	assert.Error(t, err, "unaligned tick")

	_, err = SlotIndex(-16896, -22528, 64)
	assert.Error(t, err, "tick in next shard")

	_, err = SlotIndex(-22592, -22528, 64)
	assert.Error(t, err, "tick in previous shard")
}

func TestInitializableTicks(t *testing.T) {
	t.Run("aligned bounds", func(t *testing.T) {
		got := InitializableTicks(-128, 128, 64)
		assert.Equal(t, []int32{-128, -64, 0, 64, 128}, got)
	})

	t.Run("unaligned bounds", func(t *testing.T) {
		got := InitializableTicks(-100, 100, 64)
		assert.Equal(t, []int32{-64, 0, 64}, got)
	})

	t.Run("no multiple inside", func(t *testing.T) {
		assert.Empty(t, InitializableTicks(1, 10, 64))
	})

	t.Run("inverted", func(t *testing.T) {
		assert.Empty(t, InitializableTicks(100, -100, 64))
	})

	t.Run("clipped to protocol bounds", func(t *testing.T) {
		got := InitializableTicks(443000, 500000, 64)
		require.NotEmpty(t, got)
		assert.Equal(t, int32(443584), got[len(got)-1])
	})
}

func TestShardsCovering(t *testing.T) {
	t.Run("single shard", func(t *testing.T) {
		assert.Equal(t, []int32{-22528}, ShardsCovering(-21120, -17088, 64))
	})

	t.Run("three shards", func(t *testing.T) {
		got := ShardsCovering(-11264, 5632, 64)
		assert.Equal(t, []int32{-11264, -5632, 0, 5632}, got)

		got = ShardsCovering(-11000, 5000, 64)
		assert.Equal(t, []int32{-11264, -5632, 0}, got)
	})

	t.Run("matches per-tick enumeration", func(t *testing.T) {
		spacings := []int32{1, 8, 64, 128}
		ranges := [][2]int32{{-30000, -20000}, {-5000, 5000}, {0, 88}, {-1, 1}, {1000, 90000}}
		for _, sp := range spacings {
			for _, r := range ranges {
				seen := map[int32]bool{}
				var want []int32
				for _, tick := range InitializableTicks(r[0], r[1], sp) {
					s := StartTickIndex(tick, sp)
					if !seen[s] {
						seen[s] = true
						want = append(want, s)
					}
				}
				assert.Equal(t, want, ShardsCovering(r[0], r[1], sp), "range %v spacing %d", r, sp)
			}
		}
	})

	t.Run("minimal", func(t *testing.T) {
		spacing := int32(64)
		span := TicksPerArray(spacing)
		for _, r := range [][2]int32{{-21120, -17088}, {-100000, 100000}, {0, span}, {-1, 0}} {
			got := ShardsCovering(r[0], r[1], spacing)
			bound := int((r[1]-r[0]+span-1)/span) + 1
			assert.LessOrEqual(t, len(got), bound, "range %v", r)
		}
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, ShardsCovering(10, 5, 64))
		assert.Empty(t, ShardsCovering(0, 100, 0))
	})
}
