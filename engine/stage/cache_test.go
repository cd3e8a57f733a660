package stage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newCountingCache(calls *atomic.Int32) *Cache[int, Stage] {
	return NewCache(func(key int) (Stage, error) {
		calls.Add(1)
		return NewRenderStage(fmt.Sprintf("ctx-%d", key)), nil
	})
}

func TestCache_SameKeySameStage(t *testing.T) {
	var calls atomic.Int32
	c := newCountingCache(&calls)

	a, err := c.GetOrCreate(1)
	require.NoError(t, err)
	again, err := c.GetOrCreate(1)
	require.NoError(t, err)
	b, err := c.GetOrCreate(2)
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCache_ConcurrentDistinctKeys(t *testing.T) {
	const n = 64
	var calls atomic.Int32
	c := newCountingCache(&calls)

	stages := make([]Stage, n)
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			s, err := c.GetOrCreate(i)
			stages[i] = s
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[Stage]struct{}, n)
	for _, s := range stages {
		require.NotNil(t, s)
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, int32(n), calls.Load())
	assert.Equal(t, n, c.Len())
}

func TestCache_ConcurrentSameKey(t *testing.T) {
	const n = 32
	var calls atomic.Int32
	c := newCountingCache(&calls)

	var mu sync.Mutex
	seen := map[Stage]struct{}{}
	var g errgroup.Group
	for range n {
		g.Go(func() error {
			s, err := c.GetOrCreate(7)
			mu.Lock()
			seen[s] = struct{}{}
			mu.Unlock()
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ConstructorErrorNotCached(t *testing.T) {
	errBoom := errors.New("boom")
	fail := true
	c := NewCache(func(key string) (Stage, error) {
		if fail {
			return nil, errBoom
		}
		return NewRenderStage(key), nil
	})

	_, err := c.GetOrCreate("a")
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, c.Len())

	fail = false
	s, err := c.GetOrCreate("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.Name())
}

func TestCache_ResetKeepsStage(t *testing.T) {
	var calls atomic.Int32
	c := newCountingCache(&calls)
	s, err := c.GetOrCreate(1)
	require.NoError(t, err)
	s.AddDrawable(DrawableFunc(func(*DrawContext) {}))
	s.RegisterPreRender(NewRenderStage("dep"), 0)

	assert.True(t, c.Reset(1))
	assert.False(t, c.Reset(2))
	assert.Empty(t, s.Drawables())
	assert.Equal(t, 0, s.Graph().Len())

	again, err := c.GetOrCreate(1)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ResetAllAndDelete(t *testing.T) {
	var calls atomic.Int32
	c := newCountingCache(&calls)
	for i := range 3 {
		s, err := c.GetOrCreate(i)
		require.NoError(t, err)
		s.AddDrawable(DrawableFunc(func(*DrawContext) {}))
	}

	c.ResetAll()
	c.Range(func(_ int, s Stage) bool {
		assert.Empty(t, s.Drawables())
		return true
	})

	_, ok := c.Delete(1)
	assert.True(t, ok)
	_, ok = c.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_RangeStops(t *testing.T) {
	var calls atomic.Int32
	c := newCountingCache(&calls)
	for i := range 4 {
		_, err := c.GetOrCreate(i)
		require.NoError(t, err)
	}
	visited := 0
	c.Range(func(int, Stage) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestNewCache_PanicsWithoutConstructor(t *testing.T) {
	assert.Panics(t, func() { NewCache[int, Stage](nil) })
}
