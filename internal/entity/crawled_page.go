package entity

import "time"

// CrawlTarget is one unit of crawl work.
type CrawlTarget struct {
	URL   string
	Depth int
}

// CrawledPage holds what the page fetcher extracted from a single URL.
// It is not modified after the fetcher returns it.
type CrawledPage struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	TextContent string    `json:"textContent"`
	RawMarkup   string    `json:"-"`
	Images      []string  `json:"images"`
	Links       []string  `json:"links"`
	Depth       int       `json:"depth"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// IsEmpty reports whether the fetch produced nothing usable.
func (p *CrawledPage) IsEmpty() bool {
	return p.Title == "" && p.TextContent == "" && len(p.Links) == 0
}

// FetchOptions configures one run's page fetcher.
type FetchOptions struct {
	UserAgent       string
	Timeout         time.Duration
	SettleDelay     time.Duration
	FollowRedirects bool
	IncludeImages   bool
}
