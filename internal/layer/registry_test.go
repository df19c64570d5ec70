package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_AssignsDenseIDs(t *testing.T) {
	r, err := NewRegistry("Decor", "Objects", "Ground")
	require.NoError(t, err)

	assert.Equal(t, 3, r.Len())
	for i, name := range []string{"Decor", "Objects", "Ground"} {
		id, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, ID(i), id)
		assert.Equal(t, name, r.Name(id))
	}
	assert.Equal(t, []string{"Decor", "Objects", "Ground"}, r.Names())
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry("Ground", " Ground ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = NewRegistry("Ground", "  ")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestIntern_StableAcrossCalls(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	a, err := r.Intern("Water")
	require.NoError(t, err)
	b, err := r.Intern("Water")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := r.Intern("Roads")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = r.Intern("")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestIntern_NormalisesUnicode(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	composed, err := r.Intern("Grün")
	require.NoError(t, err)
	decomposed, err := r.Intern("Grün")
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed)
	assert.Equal(t, 1, r.Len())
}

func TestLookup_Unknown(t *testing.T) {
	r, err := NewRegistry("Ground")
	require.NoError(t, err)

	id, ok := r.Lookup("Sky")
	assert.False(t, ok)
	assert.Equal(t, None, id)
	assert.False(t, r.Valid(None))
	assert.False(t, r.Valid(ID(5)))
	assert.Equal(t, "", r.Name(ID(5)))
}
