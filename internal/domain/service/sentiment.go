package service

import (
	"context"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
)

// SentimentScorer scores a batch of texts. Implementations are always
// concrete: when sentiment analysis is turned off by configuration, the
// Disabled implementation is wired instead of probing for optional
// methods, and the bias cache degrades to technical-only mode.
type SentimentScorer interface {
	Score(ctx context.Context, texts []string) ([]models.SentimentResult, error)
	Enabled() bool
}
