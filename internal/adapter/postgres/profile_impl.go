package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/profile-extractor/internal/entity"
	"github.com/user/profile-extractor/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS firm_profiles (
	key          TEXT PRIMARY KEY,
	website      TEXT NOT NULL,
	record       JSONB NOT NULL,
	confidence   INTEGER NOT NULL,
	data_quality TEXT NOT NULL,
	saved_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS firm_profiles_website_idx ON firm_profiles (website);
`

// ProfileRepoImpl stores firm profiles as JSONB documents in PostgreSQL.
type ProfileRepoImpl struct {
	db *pgxpool.Pool
}

// NewProfileRepo creates a new instance of ProfileRepoImpl.
func NewProfileRepo(db *pgxpool.Pool) *ProfileRepoImpl {
	return &ProfileRepoImpl{db: db}
}

// EnsureSchema creates the profiles table when it does not exist yet.
func (r *ProfileRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create firm_profiles schema: %w", err)
	}
	return nil
}

// Save stores or replaces the profile under its key.
func (r *ProfileRepoImpl) Save(ctx context.Context, profile *entity.StoredProfile) error {
	recordJSON, err := json.Marshal(profile.Record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO firm_profiles (key, website, record, confidence, data_quality, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			website = EXCLUDED.website,
			record = EXCLUDED.record,
			confidence = EXCLUDED.confidence,
			data_quality = EXCLUDED.data_quality,
			saved_at = EXCLUDED.saved_at;
	`
	_, err = r.db.Exec(ctx, query,
		profile.Key,
		profile.Website,
		recordJSON,
		profile.Confidence,
		string(profile.DataQuality),
		profile.SavedAt,
	)
	return err
}

// FindByKey retrieves a profile. It returns repository.ErrProfileNotFound
// when no row matches.
func (r *ProfileRepoImpl) FindByKey(ctx context.Context, key string) (*entity.StoredProfile, error) {
	query := `
		SELECT key, website, record, confidence, data_quality, saved_at
		FROM firm_profiles
		WHERE key = $1;
	`

	var (
		profile    entity.StoredProfile
		recordJSON []byte
		quality    string
	)
	err := r.db.QueryRow(ctx, query, key).Scan(
		&profile.Key,
		&profile.Website,
		&recordJSON,
		&profile.Confidence,
		&quality,
		&profile.SavedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	profile.DataQuality = entity.DataQuality(quality)
	if err := json.Unmarshal(recordJSON, &profile.Record); err != nil {
		return nil, fmt.Errorf("decode stored record %s: %w", key, err)
	}
	return &profile, nil
}
