package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/pkg/utils"
)

var ErrNothingToSave = errors.New("analysis result has no record to save")

// ProfileManager stores and looks up finished profiles.
type ProfileManager interface {
	Save(ctx context.Context, key string, result *entity.AnalysisResult) (*entity.StoredProfile, error)
	Get(ctx context.Context, key string) (*entity.StoredProfile, error)
}

type profileUseCase struct {
	profileRepo repository.ProfileRepository
	logger      *zap.Logger
}

// NewProfileManager creates a new ProfileManager use case.
func NewProfileManager(profileRepo repository.ProfileRepository, logger *zap.Logger) ProfileManager {
	return &profileUseCase{
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// ProfileKey derives the default storage key of a website: the SHA-256 of
// its canonical URL, so that trivially different spellings share a key.
func ProfileKey(website string) string {
	canonical, err := utils.CanonicalURL(website)
	if err != nil {
		canonical = strings.TrimSpace(website)
	}
	return utils.HashURL(canonical)
}

func (uc *profileUseCase) Save(ctx context.Context, key string, result *entity.AnalysisResult) (*entity.StoredProfile, error) {
	if result == nil || result.Record == nil {
		return nil, ErrNothingToSave
	}

	website := result.Record.Website
	if result.Record.Metadata != nil && result.Record.Metadata.SourceURL != "" {
		website = result.Record.Metadata.SourceURL
	}
	if key = strings.TrimSpace(key); key == "" {
		key = ProfileKey(website)
	}

	profile := &entity.StoredProfile{
		Key:     key,
		Website: website,
		Record:  result.Record,
		SavedAt: time.Now().UTC(),
	}
	if result.Outcome != nil {
		profile.Confidence = result.Outcome.Confidence
		profile.DataQuality = result.Outcome.DataQuality
	}

	if err := uc.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile for %s: %w", website, err)
	}

	uc.logger.Info("Profile saved", zap.String("key", key), zap.String("website", website))
	return profile, nil
}

func (uc *profileUseCase) Get(ctx context.Context, key string) (*entity.StoredProfile, error) {
	profile, err := uc.profileRepo.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrProfileNotFound) {
			uc.logger.Error("Error finding profile by key", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}
	return profile, nil
}
