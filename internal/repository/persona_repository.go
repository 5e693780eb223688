package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mochi-server/internal/model"
)

type PersonaRepository struct {
	db *gorm.DB
}

func NewPersonaRepository(db *gorm.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

func (r *PersonaRepository) Create(ctx context.Context, persona *model.Persona) error {
	if persona.ID == "" {
		persona.ID = model.NewID().String()
	}
	if err := r.db.WithContext(ctx).Create(persona).Error; err != nil {
		return fmt.Errorf("create persona failed: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when no persona has the id.
func (r *PersonaRepository) GetByID(ctx context.Context, id model.ID) (*model.Persona, error) {
	var persona model.Persona
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&persona).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get persona failed: %w", err)
	}
	return &persona, nil
}

func (r *PersonaRepository) ListByUserID(ctx context.Context, userID string) ([]model.Persona, error) {
	var personas []model.Persona
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&personas).Error; err != nil {
		return nil, fmt.Errorf("list personas failed: %w", err)
	}
	return personas, nil
}
