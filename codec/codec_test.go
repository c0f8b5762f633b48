package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecsInterchangeable(t *testing.T) {
	in := map[string]any{"name": "ra", "dtype": "f8", "nrows": float64(12)}

	for _, name := range []string{"json", "go-json"} {
		enc, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, enc.Name())

		b, err := enc.Marshal(in)
		require.NoError(t, err)

		for _, other := range []Codec{JSON{}, GoJSON{}} {
			var out map[string]any
			require.NoError(t, other.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		}
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestMarshalPretty(t *testing.T) {
	b, err := MarshalPretty(nil, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": 1\n}", string(b))

	b, err = MarshalPretty(JSON{}, []int{1})
	require.NoError(t, err)
	assert.Equal(t, "[\n    1\n]", string(b))
}
