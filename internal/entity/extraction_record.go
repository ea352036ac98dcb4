package entity

import "time"

// DataQuality is the quality tier assigned to an extraction.
type DataQuality string

const (
	QualityHigh   DataQuality = "high"
	QualityMedium DataQuality = "medium"
	QualityLow    DataQuality = "low"
)

// Project status values accepted from the extraction service.
const (
	ProjectCompleted  = "completed"
	ProjectInProgress = "in-progress"
	ProjectPlanned    = "planned"
)

// ExtractionRecord is the canonical firm profile.
type ExtractionRecord struct {
	Name           string            `json:"name,omitempty"`
	Website        string            `json:"website,omitempty"`
	Description    string            `json:"description,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Address        string            `json:"address,omitempty"`
	City           string            `json:"city,omitempty"`
	Country        string            `json:"country,omitempty"`
	Founded        *int              `json:"founded,omitempty"`
	TeamSize       *int              `json:"teamSize,omitempty"`
	Founders       []string          `json:"founders,omitempty"`
	Specialties    []string          `json:"specialties,omitempty"`
	Services       []string          `json:"services,omitempty"`
	Projects       []Project         `json:"projects,omitempty"`
	Certifications []string          `json:"certifications,omitempty"`
	Awards         []Award           `json:"awards,omitempty"`
	Publications   []Publication     `json:"publications,omitempty"`
	Exhibitions    []Exhibition      `json:"exhibitions,omitempty"`
	PressMentions  []PressMention    `json:"pressMentions,omitempty"`
	SocialMedia    map[string]string `json:"socialMedia,omitempty"`
	Metadata       *RecordMetadata   `json:"metadata,omitempty"`
}

type Project struct {
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	Status         string   `json:"status,omitempty"`
	Year           *int     `json:"year,omitempty"`
	Location       string   `json:"location,omitempty"`
	Size           string   `json:"size,omitempty"`
	Client         string   `json:"client,omitempty"`
	Budget         string   `json:"budget,omitempty"`
	Description    string   `json:"description,omitempty"`
	Sustainability []string `json:"sustainability,omitempty"`
	Materials      []string `json:"materials,omitempty"`
	DesignFeatures []string `json:"designFeatures,omitempty"`
	Images         []string `json:"images,omitempty"`
}

type Award struct {
	Name         string `json:"name"`
	Year         *int   `json:"year,omitempty"`
	Organization string `json:"organization,omitempty"`
	Project      string `json:"project,omitempty"`
	Category     string `json:"category,omitempty"`
}

type Publication struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Year      *int   `json:"year,omitempty"`
	URL       string `json:"url,omitempty"`
	Type      string `json:"type,omitempty"`
}

type Exhibition struct {
	Name     string `json:"name"`
	Venue    string `json:"venue,omitempty"`
	Year     *int   `json:"year,omitempty"`
	Location string `json:"location,omitempty"`
}

type PressMention struct {
	Title  string `json:"title"`
	Outlet string `json:"outlet,omitempty"`
	Date   string `json:"date,omitempty"`
	URL    string `json:"url,omitempty"`
}

// RecordMetadata describes how and when a record was produced.
type RecordMetadata struct {
	ScrapedAt        time.Time   `json:"scrapedAt"`
	DataQuality      DataQuality `json:"dataQuality"`
	ExtractionMethod string      `json:"extractionMethod"`
	SourceURL        string      `json:"sourceUrl"`
}
