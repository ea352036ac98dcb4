package anthropic_client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/repository"
	"github.com/user/profile-extractor/pkg/config"
	"github.com/user/profile-extractor/pkg/metrics"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 8192
	defaultTimeout   = 3 * time.Minute
	truncationMarker = "\n\n[... content truncated ...]"
)

// Options configures the extraction client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Timeout        time.Duration
	MaxCorpusChars int // 0 disables truncation
}

type newMessageFunc func(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)

// Client asks the Anthropic Messages API to extract a profile from a
// corpus. It sends exactly one request per call and never retries.
type Client struct {
	newMessage     newMessageFunc
	model          string
	maxTokens      int64
	timeout        time.Duration
	maxCorpusChars int
	logger         *zap.Logger
}

// NewClient returns a *config.ConfigError when no API key is configured.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &config.ConfigError{Field: "ANTHROPIC_API_KEY", Reason: "extraction service credential is required"}
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	logger.Debug("extraction client initialized",
		zap.String("model", opts.Model),
		zap.Duration("timeout", opts.Timeout),
		zap.Int("max_tokens", opts.MaxTokens),
	)

	return &Client{
		newMessage:     client.Messages.New,
		model:          opts.Model,
		maxTokens:      int64(opts.MaxTokens),
		timeout:        opts.Timeout,
		maxCorpusChars: opts.MaxCorpusChars,
		logger:         logger,
	}, nil
}

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string { return c.model }

// Analyze sends instruction as the system prompt and the corpus as the user
// message, and returns the text of the answer. Failures are
// *repository.ServiceError.
func (c *Client) Analyze(ctx context.Context, corpus, instruction string) (string, error) {
	corpus = c.truncate(corpus)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: instruction}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Website content:\n\n" + corpus)),
		},
	}

	started := time.Now()
	resp, err := c.newMessage(ctx, params)
	if err != nil {
		metrics.ExtractionRequestsTotal.WithLabelValues("failure").Inc()
		c.logger.Error("extraction request failed", zap.Duration("duration", time.Since(started)), zap.Error(err))
		return "", toServiceError(err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(answer.String()) == "" {
		metrics.ExtractionRequestsTotal.WithLabelValues("empty").Inc()
		return "", &repository.ServiceError{StatusCode: 200, Err: errors.New("empty response from extraction service")}
	}

	metrics.ExtractionRequestsTotal.WithLabelValues("success").Inc()
	c.logger.Info("extraction request completed",
		zap.Duration("duration", time.Since(started)),
		zap.Int("corpus_length", len(corpus)),
		zap.Int("response_length", answer.Len()),
	)
	return answer.String(), nil
}

func (c *Client) truncate(corpus string) string {
	if c.maxCorpusChars <= 0 || len(corpus) <= c.maxCorpusChars {
		return corpus
	}
	cut := c.maxCorpusChars
	// Do not split a multi-byte rune.
	for cut > 0 && !utf8.RuneStart(corpus[cut]) {
		cut--
	}
	c.logger.Warn("corpus truncated",
		zap.Int("original_length", len(corpus)),
		zap.Int("truncated_length", cut),
	)
	return corpus[:cut] + truncationMarker
}

func toServiceError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &repository.ServiceError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON(), Err: err}
	}
	return &repository.ServiceError{Err: fmt.Errorf("extraction request: %w", err)}
}
