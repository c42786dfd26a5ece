package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffle_KeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	require.NoError(t, Shuffle(items))
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, items)
}

func TestSample(t *testing.T) {
	tests := []struct {
		name     string
		pool     []int64
		k        int
		expected int
	}{
		{name: "fewer than pool", pool: []int64{1, 2, 3, 4}, k: 2, expected: 2},
		{name: "exactly pool", pool: []int64{1, 2, 3}, k: 3, expected: 3},
		{name: "more than pool", pool: []int64{1, 2}, k: 5, expected: 2},
		{name: "empty pool", pool: nil, k: 3, expected: 0},
		{name: "zero k", pool: []int64{1, 2}, k: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]int64(nil), tt.pool...)

			got, err := Sample(tt.pool, tt.k)

			require.NoError(t, err)
			assert.Len(t, got, tt.expected)
			assert.Subset(t, tt.pool, got)
			assert.Equal(t, original, tt.pool)

			seen := map[int64]bool{}
			for _, v := range got {
				assert.False(t, seen[v], "duplicate %d", v)
				seen[v] = true
			}
		})
	}
}

func TestSample_EveryMemberReachable(t *testing.T) {
	pool := []int64{1, 2, 3}
	hits := map[int64]int{}

	for i := 0; i < 300; i++ {
		got, err := Sample(pool, 1)
		require.NoError(t, err)
		hits[got[0]]++
	}

	assert.Len(t, hits, 3)
}
