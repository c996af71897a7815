package partitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankRange_RemainderToLowRanks(t *testing.T) {
	// 10 samples over 4 ranks: 3,3,2,2
	want := []Partition{
		{ID: 0, Start: 0, Count: 3},
		{ID: 1, Start: 3, Count: 3},
		{ID: 2, Start: 6, Count: 2},
		{ID: 3, Start: 8, Count: 2},
	}
	for r, w := range want {
		assert.Equal(t, w, RankRange(r, 4, 10))
	}
}

func TestNewBalancedLayout(t *testing.T) {
	testCases := []struct {
		name       string
		total      int
		parts      int
		wantParts  int
		wantKpMax  int
		wantCounts []int
	}{
		{"even", 12, 4, 4, 3, []int{3, 3, 3, 3}},
		{"remainder", 10, 4, 4, 3, []int{3, 3, 2, 2}},
		{"more_parts_than_samples", 3, 8, 3, 1, []int{1, 1, 1}},
		{"single", 7, 1, 1, 7, []int{7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := NewBalancedLayout(tc.total, tc.parts)
			require.NoError(t, err)
			assert.Equal(t, tc.wantParts, l.NumPartitions)
			assert.Equal(t, tc.wantKpMax, l.KpartMax)
			assert.Equal(t, tc.wantCounts, l.K())
			assert.NoError(t, l.ValidateLayout())
		})
	}
}

func TestNewBlockLayout(t *testing.T) {
	l, err := NewBlockLayout(1000, 256)
	require.NoError(t, err)
	assert.Equal(t, 4, l.NumPartitions)
	assert.Equal(t, 256, l.KpartMax)
	assert.Equal(t, []int{256, 256, 256, 232}, l.K())

	// the device kernel relies on Start == ID*KpartMax
	for _, p := range l.Partitions {
		assert.Equal(t, p.ID*l.KpartMax, p.Start)
	}
}

func TestBuildPartitions_Errors(t *testing.T) {
	testCases := []struct {
		name string
		pb   PartitionBuilder
	}{
		{"no_samples", PartitionBuilder{TotalSamples: 0, Strategy: Balanced, NumPartitions: 2}},
		{"no_partitions", PartitionBuilder{TotalSamples: 10, Strategy: Balanced}},
		{"no_block_size", PartitionBuilder{TotalSamples: 10, Strategy: Block}},
		{"unknown_strategy", PartitionBuilder{TotalSamples: 10, Strategy: PartitionStrategy(9)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.pb.BuildPartitions()
			assert.Error(t, err)
		})
	}
}

func TestValidateLayout_DetectsGaps(t *testing.T) {
	l := &Layout{
		Partitions: []Partition{
			{ID: 0, Start: 0, Count: 4},
			{ID: 1, Start: 5, Count: 4},
		},
		KpartMax:      4,
		TotalSamples:  9,
		NumPartitions: 2,
	}
	assert.Error(t, l.ValidateLayout())

	l.Partitions[1].Start = 4
	l.TotalSamples = 8
	assert.NoError(t, l.ValidateLayout())

	l.KpartMax = 5
	assert.Error(t, l.ValidateLayout())
}
