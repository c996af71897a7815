package partitions

import (
	"fmt"
)

// PartitionStrategy defines how samples are grouped
type PartitionStrategy int

const (
	// Balanced splits into a fixed number of partitions whose sizes differ
	// by at most one
	Balanced PartitionStrategy = iota
	// Block cuts fixed-size partitions; only the last one may be short
	Block
)

func (s PartitionStrategy) String() string {
	switch s {
	case Balanced:
		return "balanced"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("PartitionStrategy(%d)", int(s))
	}
}

// PartitionBuilder constructs a Layout over a sample range
type PartitionBuilder struct {
	TotalSamples int
	Strategy     PartitionStrategy

	// NumPartitions is used by Balanced, BlockSize by Block
	NumPartitions int
	BlockSize     int
}

// BuildPartitions creates and validates the layout
func (pb *PartitionBuilder) BuildPartitions() (*Layout, error) {
	if pb.TotalSamples <= 0 {
		return nil, fmt.Errorf("cannot partition %d samples", pb.TotalSamples)
	}

	var parts []Partition
	switch pb.Strategy {
	case Balanced:
		if pb.NumPartitions <= 0 {
			return nil, fmt.Errorf("balanced layout needs a positive partition count, got %d",
				pb.NumPartitions)
		}
		// never more partitions than samples
		n := min(pb.NumPartitions, pb.TotalSamples)
		parts = make([]Partition, n)
		for r := 0; r < n; r++ {
			parts[r] = RankRange(r, n, pb.TotalSamples)
		}
	case Block:
		if pb.BlockSize <= 0 {
			return nil, fmt.Errorf("block layout needs a positive block size, got %d", pb.BlockSize)
		}
		n := (pb.TotalSamples + pb.BlockSize - 1) / pb.BlockSize
		parts = make([]Partition, n)
		for i := 0; i < n; i++ {
			start := i * pb.BlockSize
			parts[i] = Partition{
				ID:    i,
				Start: start,
				Count: min(pb.BlockSize, pb.TotalSamples-start),
			}
		}
	default:
		return nil, fmt.Errorf("unknown partition strategy %v", pb.Strategy)
	}

	layout := &Layout{
		Partitions:    parts,
		KpartMax:      calculateKpartMax(parts),
		TotalSamples:  pb.TotalSamples,
		NumPartitions: len(parts),
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// NewBalancedLayout splits total samples into numPartitions near-equal runs
func NewBalancedLayout(total, numPartitions int) (*Layout, error) {
	pb := &PartitionBuilder{TotalSamples: total, Strategy: Balanced, NumPartitions: numPartitions}
	return pb.BuildPartitions()
}

// NewBlockLayout splits total samples into runs of blockSize
func NewBlockLayout(total, blockSize int) (*Layout, error) {
	pb := &PartitionBuilder{TotalSamples: total, Strategy: Block, BlockSize: blockSize}
	return pb.BuildPartitions()
}

func calculateKpartMax(parts []Partition) int {
	kpartMax := 0
	for _, p := range parts {
		if p.Count > kpartMax {
			kpartMax = p.Count
		}
	}
	return kpartMax
}
