package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse_BothSourcesOutrankOne(t *testing.T) {
	// "a" is 1st in both sources, "b" is 1st in one only.
	fused := Fuse([]string{"a", "c"}, []string{"a", "b"}, 60, 0)

	require.NotEmpty(t, fused)
	assert.Equal(t, "a", fused[0].ID)
	assert.InDelta(t, 2.0/61.0, fused[0].Score, 1e-12)
}

func TestFuse_AbsentSourceContributesZero(t *testing.T) {
	fused := Fuse([]string{"only-lex"}, nil, 60, 0)

	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/61.0, fused[0].Score, 1e-12)
	assert.Equal(t, 1, fused[0].LexRank)
	assert.Equal(t, 0, fused[0].VecRank)
}

func TestFuse_TieBrokenByID(t *testing.T) {
	// "x" and "y" each rank 1st in exactly one source: identical scores.
	fused := Fuse([]string{"y"}, []string{"x"}, 60, 0)

	require.Len(t, fused, 2)
	assert.Equal(t, "x", fused[0].ID)
	assert.Equal(t, "y", fused[1].ID)
}

func TestFuse_Limit(t *testing.T) {
	fused := Fuse([]string{"a", "b", "c", "d"}, nil, 60, 2)
	assert.Len(t, fused, 2)
}

func TestFuse_EmptyInputs(t *testing.T) {
	assert.Empty(t, Fuse(nil, nil, 60, 10))
}

func TestFuse_RanksRecorded(t *testing.T) {
	fused := Fuse([]string{"a", "b"}, []string{"b", "a"}, 60, 0)

	byID := make(map[string]FusedResult)
	for _, f := range fused {
		byID[f.ID] = f
	}
	assert.Equal(t, 1, byID["a"].LexRank)
	assert.Equal(t, 2, byID["a"].VecRank)
	assert.Equal(t, 2, byID["b"].LexRank)
	assert.Equal(t, 1, byID["b"].VecRank)
}

func TestFuse_MonotonicInK(t *testing.T) {
	for _, k := range []int{1, 10, 60, 1000} {
		fused := Fuse([]string{"both", "solo-lex"}, []string{"both"}, k, 0)
		require.Equal(t, "both", fused[0].ID, "K=%d", k)
		assert.Greater(t, fused[0].Score, fused[1].Score, "K=%d", k)
	}
}
