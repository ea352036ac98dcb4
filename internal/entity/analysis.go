package entity

import "time"

// Sections selects which optional parts of a profile are extracted.
type Sections struct {
	Images       bool
	Projects     bool
	Team         bool
	Awards       bool
	Publications bool
}

// AllSections enables every optional section.
func AllSections() Sections {
	return Sections{Images: true, Projects: true, Team: true, Awards: true, Publications: true}
}

// AnalysisRequest is the inbound trigger for one run, with defaults
// already applied.
type AnalysisRequest struct {
	WebsiteURL       string
	MaxDepth         int
	Sections         Sections
	Timeout          time.Duration
	UserAgent        string
	FollowRedirects  bool
	RespectRobotsTxt bool
}

// NewAnalysisRequest returns a request for websiteURL with the default
// options.
func NewAnalysisRequest(websiteURL string) AnalysisRequest {
	return AnalysisRequest{
		WebsiteURL:      websiteURL,
		MaxDepth:        3,
		Sections:        AllSections(),
		Timeout:         30 * time.Second,
		FollowRedirects: true,
	}
}

// AnalysisOutcome is the validated and scored extraction.
type AnalysisOutcome struct {
	ExtractedData *ExtractionRecord `json:"extractedData"`
	Confidence    int               `json:"confidence"`
	DataQuality   DataQuality       `json:"dataQuality"`
	MissingFields []string          `json:"missingFields"`
	Suggestions   []string          `json:"suggestions"`
}

// RunMetadata summarizes a completed run.
type RunMetadata struct {
	CrawlTimeMs   int64    `json:"crawlTimeMs"`
	PagesAnalyzed int      `json:"pagesAnalyzed"`
	Confidence    int      `json:"confidence"`
	DataExtracted []string `json:"dataExtracted"`
	Errors        []string `json:"errors"`
}

// AnalysisResult is delivered to the caller when a run completes.
type AnalysisResult struct {
	RunID    string            `json:"runId"`
	Record   *ExtractionRecord `json:"record"`
	Outcome  *AnalysisOutcome  `json:"analysis"`
	Metadata RunMetadata       `json:"metadata"`
}

// StoredProfile is what the document store keeps for a firm.
type StoredProfile struct {
	Key         string            `json:"key"`
	Website     string            `json:"website"`
	Record      *ExtractionRecord `json:"record"`
	Confidence  int               `json:"confidence"`
	DataQuality DataQuality       `json:"dataQuality"`
	SavedAt     time.Time         `json:"savedAt"`
}
