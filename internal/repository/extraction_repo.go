package repository

import "context"

// ExtractionService sends the corpus to the external reasoning service and
// returns its raw text answer. Implementations return a *ServiceError when
// the call fails or the answer is empty, and never retry.
type ExtractionService interface {
	Analyze(ctx context.Context, corpus, instruction string) (string, error)
}
