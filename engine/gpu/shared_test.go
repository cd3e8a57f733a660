package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedResources_QuadIsRefCountedPerDevice(t *testing.T) {
	s := NewSharedResources()
	a := NewSoftDevice(1, 1)
	b := NewSoftDevice(1, 1)

	q1, err := s.AcquireQuad(a)
	require.NoError(t, err)
	q2, err := s.AcquireQuad(a)
	require.NoError(t, err)
	q3, err := s.AcquireQuad(b)
	require.NoError(t, err)

	assert.Same(t, q1, q2)
	assert.NotSame(t, q1, q3)
	assert.Equal(t, 2, s.QuadRefs(a))

	s.ReleaseQuad(a)
	assert.Equal(t, 1, a.LiveResources())
	s.ReleaseQuad(a)
	assert.Equal(t, 0, a.LiveResources())
	assert.Equal(t, 0, s.QuadRefs(a))
	assert.Equal(t, 1, s.QuadRefs(b))
}

func TestSharedResources_FailedCreateIsNotCached(t *testing.T) {
	s := NewSharedResources()
	dev := NewSoftDevice(1, 1)
	dev.FailAllocations(true)

	_, err := s.AcquireQuad(dev)
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Equal(t, 0, s.QuadRefs(dev))

	dev.FailAllocations(false)
	_, err = s.AcquireQuad(dev)
	assert.NoError(t, err)
}

func TestSharedResources_Program(t *testing.T) {
	s := NewSharedResources()
	dev := NewSoftDevice(1, 1)
	dev.RegisterProgram("copy", passthrough)

	p, err := s.AcquireProgram(dev, ProgramSource{Name: "copy"})
	require.NoError(t, err)
	assert.Equal(t, "copy", p.Label())
	assert.Equal(t, 1, s.Refs(dev, "program/copy"))

	s.ReleaseProgram(dev, "copy")
	assert.Equal(t, 0, dev.LiveResources())
}
