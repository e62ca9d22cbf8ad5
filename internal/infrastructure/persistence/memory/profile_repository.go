package memory

import (
	"context"
	"sync"

	"github.com/alchemorsel/nutriplan/internal/domain/nutrition"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
)

// ProfileRepository keeps nutrition profiles in memory
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]nutrition.Profile
}

// NewProfileRepository creates an empty repository
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[string]nutrition.Profile)}
}

// FindByUserID returns outbound.ErrProfileNotFound for unknown users
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*nutrition.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, outbound.ErrProfileNotFound
	}
	if p.MacroOverride != nil {
		override := *p.MacroOverride
		p.MacroOverride = &override
	}
	return &p, nil
}

// Save validates and stores a copy of the profile
func (r *ProfileRepository) Save(ctx context.Context, profile *nutrition.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	p := *profile
	if p.MacroOverride != nil {
		override := *p.MacroOverride
		p.MacroOverride = &override
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[p.UserID] = p
	return nil
}

var _ outbound.ProfileRepository = (*ProfileRepository)(nil)
