package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64ToInt(t *testing.T) {
	v, err := Int64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Int64ToInt(-7)
	require.NoError(t, err)
	assert.Equal(t, -7, v)
}

func TestIntToUint32(t *testing.T) {
	v, err := IntToUint32(123)
	require.NoError(t, err)
	assert.Equal(t, uint32(123), v)

	_, err = IntToUint32(-1)
	assert.Error(t, err)

	if math.MaxInt > math.MaxUint32 {
		_, err = IntToUint32(math.MaxUint32 + 1)
		assert.Error(t, err)
	}
}

func TestUint64ToInt64(t *testing.T) {
	v, err := Uint64ToInt64(math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), v)

	_, err = Uint64ToInt64(math.MaxInt64 + 1)
	assert.Error(t, err)
}

func TestByteSize(t *testing.T) {
	n, err := ByteSize(1000, 8)
	require.NoError(t, err)
	assert.Equal(t, 8000, n)

	n, err = ByteSize(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ByteSize(-1, 8)
	assert.Error(t, err)

	_, err = ByteSize(math.MaxInt64, 8)
	assert.Error(t, err)
}
