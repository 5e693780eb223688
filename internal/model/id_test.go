package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	upper, err := ParseID("  0190F5B8-6C1D-7A2B-8C3D-4E5F60718293 ")
	require.NoError(t, err)
	assert.Equal(t, ID("0190f5b8-6c1d-7a2b-8c3d-4e5f60718293"), upper)

	for _, raw := range []string{"", "   ", "mochi", "not-a-uuid", "1234"} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, "raw=%q", raw)
	}
}

func TestNewIDSortsInCreationOrder(t *testing.T) {
	ids := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		ids = append(ids, NewID().String())
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestPersonaVisibleTo(t *testing.T) {
	builtin := &Persona{ID: "mochi", BuiltIn: true}
	public := &Persona{ID: NewID().String(), OwnerID: "alice", IsPublic: true}
	private := &Persona{ID: NewID().String(), OwnerID: "alice"}

	assert.True(t, builtin.VisibleTo("bob"))
	assert.True(t, public.VisibleTo("bob"))
	assert.True(t, private.VisibleTo("alice"))
	assert.False(t, private.VisibleTo("bob"))
	assert.False(t, private.VisibleTo(""))
}
