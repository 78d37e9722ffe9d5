package logistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	for in, want := range map[string]Provider{
		"orian":         ProviderOrian,
		"ORIAN":         ProviderOrian,
		"pick-and-pack": ProviderPickAndPack,
		"PICK_AND_PACK": ProviderPickAndPack,
	} {
		got, err := ParseProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseProvider("dhl")
	assert.Error(t, err)
}

func TestIDMapper(t *testing.T) {
	m := NewIDMapper("T")

	assert.Equal(t, "NKST42", m.ToProvider(42))

	id, ok := m.FromProvider("NKST42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "NKST", "NKSTabc", "NKSX42", "42", "NKST-1"} {
		id, ok := m.FromProvider(bad)
		assert.False(t, ok, bad)
		assert.Zero(t, id, bad)
	}

	empty := NewIDMapper("")
	id, ok = empty.FromProvider(empty.ToProvider(7))
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}
