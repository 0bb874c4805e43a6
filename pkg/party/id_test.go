package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
)

func TestIDScalar(t *testing.T) {
	group := curve.Secp256k1{}

	one := ID(1).Scalar(group)
	assert.False(t, one.IsZero())

	// 2 + 3 == 5 under the embedding
	sum := ID(2).Scalar(group).Add(ID(3).Scalar(group))
	assert.True(t, sum.Equal(ID(5).Scalar(group)))
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "42", ID(42).String())

	id, err := FromString("42")
	require.NoError(t, err)
	assert.Equal(t, ID(42), id)

	_, err = FromString("not-a-number")
	assert.Error(t, err)
	_, err = FromString("123456789")
	assert.Error(t, err, "values beyond uint16 should be rejected")
}

func TestSequence(t *testing.T) {
	ids := Sequence(3)
	assert.Equal(t, IDSlice{1, 2, 3}, ids)
	assert.True(t, ids.Valid())
}

func TestNewIDSliceSorts(t *testing.T) {
	ids := NewIDSlice([]ID{3, 1, 2})
	assert.Equal(t, IDSlice{1, 2, 3}, ids)
}

func TestIDSliceContains(t *testing.T) {
	ids := IDSlice{1, 3, 5}
	assert.True(t, ids.Contains(1, 5))
	assert.False(t, ids.Contains(2))
}

func TestIDSliceValid(t *testing.T) {
	assert.True(t, IDSlice{1, 2, 3}.Valid())
	assert.False(t, IDSlice{1, 1, 2}.Valid(), "duplicates are invalid")
	assert.False(t, IDSlice{2, 1}.Valid(), "unsorted slices are invalid")
	assert.False(t, IDSlice{0, 1}.Valid(), "index 0 is invalid")
}
