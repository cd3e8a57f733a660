// Package partition splits a camera's depth range into sub-ranges drawn as
// separate passes, each with its own projection and depth clear, so depth
// precision holds over very large view distances.
package partition

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultRatio is the near:far ratio each partition is allowed to span.
	DefaultRatio = 0.0005
	// MaxPartitions bounds both the automatic and the requested partition count.
	MaxPartitions = 16
)

var (
	ErrInvalidRange = errors.New("partition: near must be positive and less than far")
	ErrInvalidRatio = errors.New("partition: ratio must be in (0, 1)")
	ErrInvalidCount = errors.New("partition: requested count must be in [0, 16]")
)

// Partition is one depth sub-range. Order is the draw position; partition 0 is the farthest.
type Partition struct {
	Near  float32
	Far   float32
	Order int
}

// Count returns how many partitions ComputePartitions produces for the inputs.
//
// Parameters:
//   - near, far: the camera depth range
//   - ratio: the near:far ratio per partition, used when requested is 0
//   - requested: 0 for automatic, otherwise the count, at most MaxPartitions
//
// Returns:
//   - int: the partition count before degenerate partitions are merged
//   - error: ErrInvalidRange, ErrInvalidRatio or ErrInvalidCount
func Count(near, far, ratio float32, requested int) (int, error) {
	n, f := float64(near), float64(far)
	if !(n > 0) || !(f > n) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("near %g, far %g: %w", near, far, ErrInvalidRange)
	}
	if requested < 0 || requested > MaxPartitions {
		return 0, fmt.Errorf("count %d: %w", requested, ErrInvalidCount)
	}
	if requested > 0 {
		return requested, nil
	}
	r := float64(ratio)
	if !(r > 0 && r < 1) {
		return 0, fmt.Errorf("ratio %g: %w", ratio, ErrInvalidRatio)
	}
	// Tolerance absorbs float32 rounding of ratio so exact multiples do not round up.
	count := int(math.Ceil(math.Log(n/f)/math.Log(r) - 1e-6))
	return max(1, min(count, MaxPartitions)), nil
}

// ComputePartitions splits [near, far] geometrically into partitions ordered
// back to front. The first partition ends exactly at far, the last starts
// exactly at near, and neighbours share their boundary. Boundaries float32
// cannot tell apart are merged, so every partition has near < far and a range
// too thin for the requested count yields fewer partitions.
//
// Parameters:
//   - near, far: the camera depth range
//   - ratio: the near:far ratio per partition, used when requested is 0
//   - requested: 0 for automatic, otherwise the count, at most MaxPartitions
//
// Returns:
//   - []Partition: the partitions, farthest first
//   - error: ErrInvalidRange, ErrInvalidRatio or ErrInvalidCount
func ComputePartitions(near, far, ratio float32, requested int) ([]Partition, error) {
	count, err := Count(near, far, ratio, requested)
	if err != nil {
		return nil, err
	}

	bounds := make([]float32, 0, count+1)
	bounds = append(bounds, near)
	span := float64(far) / float64(near)
	for i := 1; i < count; i++ {
		b := float32(float64(near) * math.Pow(span, float64(i)/float64(count)))
		if b > bounds[len(bounds)-1] && b < far {
			bounds = append(bounds, b)
		}
	}
	bounds = append(bounds, far)

	count = len(bounds) - 1
	out := make([]Partition, count)
	for order := range out {
		i := count - 1 - order
		out[order] = Partition{Near: bounds[i], Far: bounds[i+1], Order: order}
	}
	return out, nil
}
