package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository implements the profile repository interface using GORM
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID finds a profile by user ID
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*nutrition.Profile, error) {
	var model ProfileModel

	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrProfileNotFound
		}
		return nil, result.Error
	}

	return ModelToProfile(&model), nil
}

// Save validates and upserts a profile
func (r *ProfileRepository) Save(ctx context.Context, profile *nutrition.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	model := ProfileToModel(profile)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

var _ outbound.ProfileRepository = (*ProfileRepository)(nil)
