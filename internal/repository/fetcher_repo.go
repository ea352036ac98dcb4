package repository

import (
	"context"

	"github.com/user/profile-extractor/internal/entity"
)

// PageFetcher retrieves single pages through a browser session.
type PageFetcher interface {
	// Fetch loads target and extracts its content. On failure it returns a
	// page with only URL and Depth set, together with a *FetchError.
	Fetch(ctx context.Context, target entity.CrawlTarget) (*entity.CrawledPage, error)
	// Close releases the underlying browser. It is safe to call more than once.
	Close() error
}

// FetcherFactory starts a fresh page fetcher for one run.
type FetcherFactory interface {
	NewFetcher(ctx context.Context, opts entity.FetchOptions) (PageFetcher, error)
}

// RobotsPolicy decides whether a URL may be crawled by a user agent.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL, userAgent string) (bool, error)
}
