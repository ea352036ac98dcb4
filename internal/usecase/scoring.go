package usecase

import (
	"math"

	"github.com/user/profile-extractor/internal/entity"
)

type checklistField struct {
	label      string
	suggestion string
	present    func(r *entity.ExtractionRecord) bool
}

// checklist is the fixed set of fields confidence is computed over.
var checklist = []checklistField{
	{"Company name", "Check the homepage header or footer for the firm's official name",
		func(r *entity.ExtractionRecord) bool { return r.Name != "" }},
	{"Company description", "Include the About or Studio page in the crawl",
		func(r *entity.ExtractionRecord) bool { return r.Description != "" }},
	{"Email address", "Include the Contact page in the crawl",
		func(r *entity.ExtractionRecord) bool { return r.Email != "" }},
	{"Phone number", "Include the Contact page in the crawl",
		func(r *entity.ExtractionRecord) bool { return r.Phone != "" }},
	{"Office address", "Look for the office address in the Contact page or the footer",
		func(r *entity.ExtractionRecord) bool { return r.Address != "" }},
	{"Founding year", "Look for a history or About section mentioning when the firm was established",
		func(r *entity.ExtractionRecord) bool { return r.Founded != nil }},
	{"Specialties", "Look for a Services or Expertise page",
		func(r *entity.ExtractionRecord) bool { return len(r.Specialties) > 0 }},
	{"Project portfolio", "Increase the crawl depth to reach individual project pages",
		func(r *entity.ExtractionRecord) bool { return len(r.Projects) > 0 }},
	{"Awards", "Look for an Awards or Recognition page",
		func(r *entity.ExtractionRecord) bool { return len(r.Awards) > 0 }},
	{"Publications", "Look for a Press, News or Publications page",
		func(r *entity.ExtractionRecord) bool { return len(r.Publications) > 0 }},
}

// ScoreCard is the scoring part of an AnalysisOutcome.
type ScoreCard struct {
	Confidence    int
	Quality       entity.DataQuality
	MissingFields []string
	Suggestions   []string
}

// Score rates record against the checklist. Missing fields and suggestions
// follow checklist order.
func Score(record *entity.ExtractionRecord) ScoreCard {
	card := ScoreCard{
		MissingFields: []string{},
		Suggestions:   []string{},
	}

	present := 0
	for _, f := range checklist {
		if f.present(record) {
			present++
			continue
		}
		card.MissingFields = append(card.MissingFields, f.label)
		card.Suggestions = append(card.Suggestions, f.suggestion)
	}

	card.Confidence = int(math.Round(100 * float64(present) / float64(len(checklist))))
	card.Quality = qualityTier(card.Confidence, len(record.Projects))
	return card
}

func qualityTier(confidence, projects int) entity.DataQuality {
	switch {
	case confidence >= 80 && projects > 0:
		return entity.QualityHigh
	case confidence >= 60:
		return entity.QualityMedium
	default:
		return entity.QualityLow
	}
}

// ExtractedFields lists the JSON names of the non-empty top-level fields of
// record, in record order.
func ExtractedFields(record *entity.ExtractionRecord) []string {
	if record == nil {
		return []string{}
	}
	fields := []struct {
		name    string
		present bool
	}{
		{"name", record.Name != ""},
		{"website", record.Website != ""},
		{"description", record.Description != ""},
		{"email", record.Email != ""},
		{"phone", record.Phone != ""},
		{"address", record.Address != ""},
		{"city", record.City != ""},
		{"country", record.Country != ""},
		{"founded", record.Founded != nil},
		{"teamSize", record.TeamSize != nil},
		{"founders", len(record.Founders) > 0},
		{"specialties", len(record.Specialties) > 0},
		{"services", len(record.Services) > 0},
		{"projects", len(record.Projects) > 0},
		{"certifications", len(record.Certifications) > 0},
		{"awards", len(record.Awards) > 0},
		{"publications", len(record.Publications) > 0},
		{"exhibitions", len(record.Exhibitions) > 0},
		{"pressMentions", len(record.PressMentions) > 0},
		{"socialMedia", len(record.SocialMedia) > 0},
	}

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.present {
			out = append(out, f.name)
		}
	}
	return out
}
