package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const maxRobotsBytes = 512 << 10

type hostRules struct {
	rules     *robotstxt.RobotsData // nil allows everything
	fetchedAt time.Time
}

// Policy answers robots.txt questions for any host, fetching each host's
// file at most once per TTL. It fails open: whenever robots.txt cannot be
// fetched or parsed, every path is allowed.
type Policy struct {
	client *http.Client
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	hosts map[string]*hostRules
}

// NewPolicy creates a robots.txt policy using client for fetches.
func NewPolicy(client *http.Client, ttl time.Duration, logger *zap.Logger) *Policy {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Policy{
		client: client,
		ttl:    ttl,
		logger: logger,
		hosts:  make(map[string]*hostRules),
	}
}

// Allowed reports whether userAgent may fetch rawURL. A non-nil error is
// informational only; the boolean is always usable.
func (p *Policy) Allowed(ctx context.Context, rawURL, userAgent string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true, fmt.Errorf("parse URL: %w", err)
	}
	if u.Host == "" {
		return true, nil
	}

	rules, err := p.rulesFor(ctx, u.Scheme, u.Host)
	if rules == nil {
		return true, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return rules.TestAgent(path, userAgent), err
}

func (p *Policy) rulesFor(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	key := scheme + "://" + host

	p.mu.Lock()
	cached, ok := p.hosts[key]
	p.mu.Unlock()
	if ok && (p.ttl <= 0 || time.Since(cached.fetchedAt) < p.ttl) {
		return cached.rules, nil
	}

	rules, err := p.fetch(ctx, key+"/robots.txt")
	if err != nil {
		p.logger.Debug("robots.txt unavailable, allowing all", zap.String("host", host), zap.Error(err))
	}

	p.mu.Lock()
	p.hosts[key] = &hostRules{rules: rules, fetchedAt: time.Now()}
	p.mu.Unlock()
	return rules, err
}

func (p *Policy) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create robots.txt request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	defer resp.Body.Close()

	// Missing file or server trouble both mean no restrictions.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= http.StatusInternalServerError {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", robotsURL, err)
	}
	rules, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", robotsURL, err)
	}
	return rules, nil
}
