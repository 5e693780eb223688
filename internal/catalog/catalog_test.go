package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"mochi", "sukun", "diya"}, []string{list[0].ID, list[1].ID, list[2].ID})

	mochi, ok := c.Get("mochi")
	require.True(t, ok)
	assert.Equal(t, "Mochi", mochi.Name)
	assert.Equal(t, "The Listener", mochi.Tag)
	assert.Equal(t, "Gentle, reassuring, and soft", mochi.Tone)
	assert.True(t, mochi.BuiltIn)
	assert.True(t, mochi.IsPublic)
	assert.Empty(t, mochi.OwnerID)

	_, ok = c.Get("Mochi")
	assert.False(t, ok, "lookup is exact")
}

func TestGetReturnsCopy(t *testing.T) {
	c, err := Parse([]byte(`
- id: owl
  name: Owl
  description: wise
  tone: calm
  forbidden_topics: [politics]
`))
	require.NoError(t, err)

	p, _ := c.Get("owl")
	p.Name = "changed"
	p.ForbiddenTopics[0] = "changed"

	again, _ := c.Get("owl")
	assert.Equal(t, "Owl", again.Name)
	assert.Equal(t, []string{"politics"}, again.ForbiddenTopics)
}

func TestParseRejectsBadKeys(t *testing.T) {
	_, err := Parse([]byte("- id: 0190f5b8-6c1d-7a2b-8c3d-4e5f60718293\n  name: x\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("- id: a\n  name: x\n- id: a\n  name: y\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("- name: nameless\n"))
	assert.Error(t, err)
}
