package billid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xf077b491b355E64048cE21E3A6Fc4751eEeA77fa"

func TestGenerateUnique(t *testing.T) {
	a, err := Generate(testAddr)
	require.NoError(t, err)
	b, err := Generate(testAddr)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, Valid(a))
	assert.True(t, Valid(b))
}

func TestShortDeterministic(t *testing.T) {
	id, err := Generate(testAddr)
	require.NoError(t, err)

	short := Short(id)
	assert.Len(t, short, ShortLength)
	assert.Equal(t, short, Short(id))
}

func TestShortIgnoresPrefix(t *testing.T) {
	id, err := Generate(testAddr)
	require.NoError(t, err)

	assert.Equal(t, Short(id), Short(id[2:]))
}

func TestValid(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0x" + "ab" + "00000000000000000000000000000000000000000000000000000000000000", true},
		{"0x0000", false},
		{"not-an-id", false},
		{"", false},
		{"0x" + "zz" + "00000000000000000000000000000000000000000000000000000000000000", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, Valid(tc.in), tc.in)
	}
}
