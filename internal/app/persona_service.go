package app

import (
	"context"
	"fmt"
	"strings"

	"mochi-server/internal/catalog"
	"mochi-server/internal/model"
	"mochi-server/internal/repository"
)

// PersonaResolver turns a persona id into a descriptor the caller may use.
type PersonaResolver interface {
	Resolve(ctx context.Context, personaID, userID string) (*model.Persona, error)
}

type PersonaService struct {
	catalog *catalog.Catalog
	repo    *repository.PersonaRepository
}

type CreatePersonaInput struct {
	Name            string
	Description     string
	Tone            string
	Greeting        string
	Relationship    string
	ForbiddenTopics []string
	IsPublic        bool
}

func NewPersonaService(c *catalog.Catalog, repo *repository.PersonaRepository) *PersonaService {
	return &PersonaService{catalog: c, repo: repo}
}

// Resolve looks in the catalog first, then in the store. Stored personas that
// are private to another user resolve as ErrNotFound.
func (s *PersonaService) Resolve(ctx context.Context, personaID, userID string) (*model.Persona, error) {
	personaID = strings.TrimSpace(personaID)
	if personaID == "" {
		return nil, fmt.Errorf("%w: empty persona id", ErrInvalidIdentifier)
	}

	if p, ok := s.catalog.Get(personaID); ok {
		return p, nil
	}

	id, err := model.ParseID(personaID)
	if err != nil {
		return nil, fmt.Errorf("%w: persona id %q", ErrInvalidIdentifier, personaID)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if p == nil || !p.VisibleTo(userID) {
		return nil, fmt.Errorf("%w: persona %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *PersonaService) Catalog() []model.Persona {
	return s.catalog.List()
}

func (s *PersonaService) Create(ctx context.Context, userID string, input CreatePersonaInput) (*model.Persona, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	p := &model.Persona{
		OwnerID:         userID,
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		Tone:            strings.TrimSpace(input.Tone),
		Greeting:        strings.TrimSpace(input.Greeting),
		Relationship:    strings.TrimSpace(input.Relationship),
		ForbiddenTopics: cleanTopics(input.ForbiddenTopics),
		IsPublic:        input.IsPublic,
	}
	if p.Name == "" || p.Description == "" || p.Tone == "" {
		return nil, fmt.Errorf("%w: name, description and tone are required", ErrInvalidInput)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return p, nil
}

func (s *PersonaService) ListForUser(ctx context.Context, userID string) ([]model.Persona, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	personas, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return personas, nil
}

func cleanTopics(topics []string) []string {
	var out []string
	for _, topic := range topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			out = append(out, topic)
		}
	}
	return out
}
