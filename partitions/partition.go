package partitions

import (
	"fmt"
)

// Partition is a contiguous run of sample indices [Start, Start+Count)
// that executes as one unit: one worker task on the host, one @outer
// iteration on the device
type Partition struct {
	ID    int
	Start int
	Count int
}

// End returns the exclusive upper sample index
func (p Partition) End() int {
	return p.Start + p.Count
}

// Layout is the complete decomposition of [0, TotalSamples)
type Layout struct {
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(Count) across all partitions, the @inner extent
	TotalSamples  int
	NumPartitions int
}

// K returns the per-partition sample counts in partition order
func (l *Layout) K() []int {
	k := make([]int, len(l.Partitions))
	for i, p := range l.Partitions {
		k[i] = p.Count
	}
	return k
}

// ValidateLayout checks that partitions tile [0, TotalSamples) in order
// and that KpartMax is the largest partition
func (l *Layout) ValidateLayout() error {
	if l.NumPartitions != len(l.Partitions) {
		return fmt.Errorf("NumPartitions %d != len(Partitions) %d",
			l.NumPartitions, len(l.Partitions))
	}
	next := 0
	actualMax := 0
	for i, p := range l.Partitions {
		if p.ID != i {
			return fmt.Errorf("partition %d has ID %d", i, p.ID)
		}
		if p.Start != next {
			return fmt.Errorf("partition %d starts at %d, expected %d", i, p.Start, next)
		}
		if p.Count <= 0 {
			return fmt.Errorf("partition %d is empty", i)
		}
		if p.Count > actualMax {
			actualMax = p.Count
		}
		next = p.End()
	}
	if next != l.TotalSamples {
		return fmt.Errorf("partitions cover %d samples, expected %d", next, l.TotalSamples)
	}
	if actualMax != l.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, l.KpartMax)
	}
	return nil
}

// RankRange returns the share of rank out of size ranks when total samples
// are distributed with the remainder going to the lowest ranks
func RankRange(rank, size, total int) Partition {
	chunk := total / size
	rem := total % size
	count := chunk
	if rank < rem {
		count++
	}
	return Partition{
		ID:    rank,
		Start: rank*chunk + min(rank, rem),
		Count: count,
	}
}
