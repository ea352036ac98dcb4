package repository

import (
	"context"

	"github.com/user/profile-extractor/internal/entity"
)

// ProfileRepository is the document store for finished profiles.
type ProfileRepository interface {
	// Save stores the profile under its key. An existing profile is replaced.
	Save(ctx context.Context, profile *entity.StoredProfile) error
	// FindByKey returns ErrProfileNotFound when nothing is stored under key.
	FindByKey(ctx context.Context, key string) (*entity.StoredProfile, error)
}
