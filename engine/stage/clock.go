package stage

import "sync/atomic"

// FrameClock is the authoritative frame epoch. The frame driver advances it once per frame,
// and stages compare it against the epoch they last drew in.
type FrameClock struct {
	epoch atomic.Uint64
}

// NewFrameClock creates a clock at epoch 0. The first Advance returns 1.
func NewFrameClock() *FrameClock {
	return &FrameClock{}
}

// Advance starts a new frame.
//
// Returns:
//   - uint64: the new epoch
func (c *FrameClock) Advance() uint64 {
	return c.epoch.Add(1)
}

// Epoch returns the current epoch.
func (c *FrameClock) Epoch() uint64 {
	return c.epoch.Load()
}
