package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochi-server/internal/model"
)

func TestPersonaResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public, err := f.personas.Create(ctx, "owner", CreatePersonaInput{Name: "Pip", Description: "cheerful", Tone: "bright", IsPublic: true})
	require.NoError(t, err)
	private, err := f.personas.Create(ctx, "owner", CreatePersonaInput{Name: "Quill", Description: "quiet", Tone: "dry"})
	require.NoError(t, err)

	cases := []struct {
		name      string
		personaID string
		userID    string
		wantName  string
		wantErr   error
	}{
		{"catalog", "mochi", "anyone", "Mochi", nil},
		{"public stored", public.ID, "stranger", "Pip", nil},
		{"own private", private.ID, "owner", "Quill", nil},
		{"foreign private", private.ID, "stranger", "", ErrNotFound},
		{"unknown id", model.NewID().String(), "owner", "", ErrNotFound},
		{"malformed", "not-a-catalog-key", "owner", "", ErrInvalidIdentifier},
		{"empty", "  ", "owner", "", ErrInvalidIdentifier},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := f.personas.Resolve(ctx, tc.personaID, tc.userID)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, p.Name)
		})
	}
}

func TestPersonaCreateValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.personas.Create(ctx, "owner", CreatePersonaInput{Name: "  ", Description: "x", Tone: "y"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.personas.Create(ctx, "", CreatePersonaInput{Name: "a", Description: "x", Tone: "y"})
	require.ErrorIs(t, err, ErrUnauthorized)

	p, err := f.personas.Create(ctx, "owner", CreatePersonaInput{
		Name:            " Fern ",
		Description:     "steady",
		Tone:            "warm",
		ForbiddenTopics: []string{" politics ", "", "money"},
	})
	require.NoError(t, err)
	assert.True(t, model.IsValidID(p.ID))
	assert.Equal(t, "Fern", p.Name)
	assert.Equal(t, []string{"politics", "money"}, p.ForbiddenTopics)
	assert.False(t, p.BuiltIn)

	mine, err := f.personas.ListForUser(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p.ID, mine[0].ID)
	assert.Equal(t, []string{"politics", "money"}, mine[0].ForbiddenTopics)
}

func TestPersonaCatalogListsBuiltIns(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for _, p := range f.personas.Catalog() {
		ids = append(ids, p.ID)
		assert.True(t, p.BuiltIn)
	}
	assert.Equal(t, []string{"mochi", "sukun", "diya"}, ids)
}
