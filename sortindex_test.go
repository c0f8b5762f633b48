package colstore

import (
	"context"
	"math"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hupe1980/colstore/dtype"
	"github.com/hupe1980/colstore/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSortIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "score")
	rc := resource.NewController(resource.Config{SortWorkers: 4, IOLimitBytesPerSec: 1 << 30})

	col, err := Open(ctx, path, dtype.Int32Type, ModeCreate, WithChunkSize(40), WithResourceController(rc))
	require.NoError(t, err)
	defer col.Close()

	r := rand.New(rand.NewPCG(1, 2))
	values := make([]int32, 237)
	for i := range values {
		values[i] = r.Int32N(50) - 25
	}
	require.NoError(t, col.Append(ctx, dtype.FromSlice(values)))
	require.NoError(t, col.BuildSortIndex(ctx))

	want := make([]int64, len(values))
	for i := range want {
		want[i] = int64(i)
	}
	slices.SortStableFunc(want, func(a, b int64) int { return int(values[a]) - int(values[b]) })

	idx, err := col.SortIndex(ctx)
	require.NoError(t, err)
	defer idx.Close()
	assert.Equal(t, filepath.Join(filepath.Dir(path), "score.sorted.array"), idx.Paths().Data)
	assert.Equal(t, int64(len(values)), idx.NRows())

	got, err := idx.ReadSlice(ctx, All())
	require.NoError(t, err)
	assert.Equal(t, want, int64s(t, got))

	// Run files are removed.
	entries, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".score.run-*"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildSortIndexFloats(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "f")

	col, err := Open(ctx, path, dtype.Float64Type, ModeCreate, WithChunkSize(16))
	require.NoError(t, err)
	defer col.Close()

	require.NoError(t, col.Append(ctx, dtype.FromSlice([]float64{2.5, -1, 0, -3.25, 2.5, 7})))
	require.NoError(t, col.BuildSortIndex(ctx))

	idx, err := col.SortIndex(ctx)
	require.NoError(t, err)
	defer idx.Close()
	got, err := idx.ReadSlice(ctx, All())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2, 0, 4, 5}, int64s(t, got))
}

func TestBuildSortIndexRequiresWriter(t *testing.T) {
	ctx := context.Background()
	col, _ := createColumn(t, 3)
	path := col.Paths().Base
	require.NoError(t, col.Close())

	ro, err := Open(ctx, path, dtype.Int64Type, ModeRead)
	require.NoError(t, err)
	defer ro.Close()
	assert.ErrorIs(t, ro.BuildSortIndex(ctx), ErrPermission)
}

func TestBuildSortIndexSignedZeroAndNaN(t *testing.T) {
	ctx := context.Background()
	col, err := Open(ctx, filepath.Join(t.TempDir(), "g"), dtype.Float64Type, ModeCreate)
	require.NoError(t, err)
	defer col.Close()

	negNaN := math.Float64frombits(math.Float64bits(math.NaN()) | 1<<63)
	require.NoError(t, col.Append(ctx, dtype.FromSlice([]float64{math.NaN(), 0, math.Copysign(0, -1), negNaN, 1})))
	require.NoError(t, col.BuildSortIndex(ctx))

	idx, err := col.SortIndex(ctx)
	require.NoError(t, err)
	defer idx.Close()
	got, err := idx.ReadSlice(ctx, All())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4, 0, 3}, int64s(t, got))
}
