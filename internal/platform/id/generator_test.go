package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRandomGenerator_NewID(t *testing.T) {
	t.Parallel()

	g := NewRandomGenerator()

	first, err := g.NewID()
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := g.NewID()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestPushKeyGenerator_OrderedWithinMillisecond(t *testing.T) {
	t.Parallel()

	fixed := time.UnixMilli(1700000000000)
	g := NewPushKeyGenerator()
	g.now = func() time.Time { return fixed }

	keys := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		key, err := g.NewID()
		require.NoError(t, err)
		require.Len(t, key, 20)
		keys = append(keys, key)
	}

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	require.Equal(t, sorted, keys)
}

func TestPushKeyGenerator_OrderedAcrossMilliseconds(t *testing.T) {
	t.Parallel()

	g := NewPushKeyGenerator()
	ms := int64(1700000000000)
	g.now = func() time.Time { return time.UnixMilli(ms) }

	first, err := g.NewID()
	require.NoError(t, err)

	ms += 5
	second, err := g.NewID()
	require.NoError(t, err)

	require.Less(t, first, second)
}
