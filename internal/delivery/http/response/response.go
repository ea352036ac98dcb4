package response

import (
	"time"

	"github.com/user/profile-extractor/internal/entity"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// ProfileResponse is a DTO for a stored profile, mirroring entity.StoredProfile.
type ProfileResponse struct {
	Key         string                   `json:"key"`
	Website     string                   `json:"website"`
	Confidence  int                      `json:"confidence"`
	DataQuality string                   `json:"dataQuality"`
	SavedAt     time.Time                `json:"savedAt"`
	Record      *entity.ExtractionRecord `json:"record"`
}

// SavedEvent is sent on the analysis stream after the profile was stored.
type SavedEvent struct {
	RunID string `json:"runId"`
	Key   string `json:"key"`
}

type RunEventsResponse struct {
	RunID  string                 `json:"runId"`
	Events []entity.ProgressEvent `json:"events"`
}

func NewProfileResponse(p *entity.StoredProfile) ProfileResponse {
	return ProfileResponse{
		Key:         p.Key,
		Website:     p.Website,
		Confidence:  p.Confidence,
		DataQuality: string(p.DataQuality),
		SavedAt:     p.SavedAt,
		Record:      p.Record,
	}
}
