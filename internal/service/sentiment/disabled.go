package sentiment

import (
	"context"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	domsvc "github.com/JackFeatherston/Osprey/internal/domain/service"
)

// Disabled is wired when sentiment analysis is turned off by
// configuration. The bias cache sees Enabled() == false and publishes
// NEUTRAL verdicts without fetching news.
type Disabled struct{}

// NewDisabled builds the no-op scorer.
func NewDisabled() domsvc.SentimentScorer { return &Disabled{} }

func (Disabled) Enabled() bool { return false }

func (Disabled) Score(_ context.Context, texts []string) ([]models.SentimentResult, error) {
	results := make([]models.SentimentResult, len(texts))
	for i := range results {
		results[i] = models.SentimentResult{Label: "neutral", Confidence: 0}
	}
	return results, nil
}
