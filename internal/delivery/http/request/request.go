package request

import (
	"time"

	"github.com/user/profile-extractor/internal/entity"
)

// Defaults are the service-side values for options a caller leaves unset.
// MaxDepth always applies, so a zero value means a seed-only crawl; a zero
// Timeout keeps the built-in page timeout.
type Defaults struct {
	MaxDepth  int
	Timeout   time.Duration
	UserAgent string
}

// AnalyzeRequest is the body of POST /api/analyze. Pointer fields
// distinguish "unset" from an explicit false or zero.
type AnalyzeRequest struct {
	WebsiteURL          string `json:"websiteUrl" validate:"required,http_url"`
	MaxDepth            *int   `json:"maxDepth,omitempty" validate:"omitempty,min=0,max=5"`
	IncludeImages       *bool  `json:"includeImages,omitempty"`
	IncludeProjects     *bool  `json:"includeProjects,omitempty"`
	IncludeTeam         *bool  `json:"includeTeam,omitempty"`
	IncludeAwards       *bool  `json:"includeAwards,omitempty"`
	IncludePublications *bool  `json:"includePublications,omitempty"`
	Timeout             *int   `json:"timeout,omitempty" validate:"omitempty,min=0"` // milliseconds
	UserAgent           string `json:"userAgent,omitempty" validate:"omitempty,max=512"`
	FollowRedirects     *bool  `json:"followRedirects,omitempty"`
	RespectRobotsTxt    *bool  `json:"respectRobotsTxt,omitempty"`

	// Persist stores the finished profile under ProfileKey, or under a key
	// derived from the website when ProfileKey is empty.
	Persist    bool   `json:"persist,omitempty"`
	ProfileKey string `json:"profileKey,omitempty" validate:"omitempty,max=256"`
}

// ToEntity applies d to every unset option.
func (r *AnalyzeRequest) ToEntity(d Defaults) entity.AnalysisRequest {
	req := entity.NewAnalysisRequest(r.WebsiteURL)
	req.MaxDepth = d.MaxDepth
	if d.Timeout > 0 {
		req.Timeout = d.Timeout
	}
	req.UserAgent = d.UserAgent

	if r.MaxDepth != nil {
		req.MaxDepth = *r.MaxDepth
	}
	if r.Timeout != nil && *r.Timeout > 0 {
		req.Timeout = time.Duration(*r.Timeout) * time.Millisecond
	}
	if r.UserAgent != "" {
		req.UserAgent = r.UserAgent
	}

	req.Sections = entity.Sections{
		Images:       boolOr(r.IncludeImages, true),
		Projects:     boolOr(r.IncludeProjects, true),
		Team:         boolOr(r.IncludeTeam, true),
		Awards:       boolOr(r.IncludeAwards, true),
		Publications: boolOr(r.IncludePublications, true),
	}
	req.FollowRedirects = boolOr(r.FollowRedirects, true)
	req.RespectRobotsTxt = boolOr(r.RespectRobotsTxt, false)
	return req
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
