package sentiment

import (
	"context"
	"testing"
)

func TestVaderPositiveHeadline(t *testing.T) {
	v := NewVader()
	results, err := v.Score(context.Background(), []string{
		"Apple stock surges after record earnings beat expectations",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.Label != "positive" {
		t.Fatalf("expected positive, got %s (%v)", r.Label, r.NormalizedScore)
	}
	if r.NormalizedScore <= 0 {
		t.Fatalf("expected positive score, got %v", r.NormalizedScore)
	}
	if r.Confidence <= 0.5 {
		t.Fatalf("clear headline should carry confidence above the floor, got %v", r.Confidence)
	}
}

func TestVaderNegativeHeadline(t *testing.T) {
	v := NewVader()
	results, err := v.Score(context.Background(), []string{
		"Shares plunge as company warns of weak quarterly losses",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.Label != "negative" {
		t.Fatalf("expected negative, got %s (%v)", r.Label, r.NormalizedScore)
	}
	if r.NormalizedScore >= 0 {
		t.Fatalf("expected negative score, got %v", r.NormalizedScore)
	}
}

func TestVaderNeutralWithoutSentimentWords(t *testing.T) {
	v := NewVader()
	results, err := v.Score(context.Background(), []string{
		"Company schedules annual shareholder meeting for June",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.Label != "neutral" || r.NormalizedScore != 0 {
		t.Fatalf("expected neutral/0, got %s/%v", r.Label, r.NormalizedScore)
	}
}

func TestVaderNegationFlipsValence(t *testing.T) {
	v := NewVader()
	results, err := v.Score(context.Background(), []string{
		"Results were not good this quarter",
		"Results were good this quarter",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].NormalizedScore >= 0 {
		t.Fatalf("negated praise should score negative, got %v", results[0].NormalizedScore)
	}
	if results[1].NormalizedScore <= 0 {
		t.Fatalf("plain praise should score positive, got %v", results[1].NormalizedScore)
	}
}

func TestVaderFinancialBoosterOutweighsBase(t *testing.T) {
	v := NewVader()
	results, err := v.Score(context.Background(), []string{
		"Stock climbs slightly",
		"Stock surges dramatically",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[1].NormalizedScore <= results[0].NormalizedScore {
		t.Fatalf("surge should outscore climb: %v vs %v",
			results[1].NormalizedScore, results[0].NormalizedScore)
	}
}

func TestVaderBatchPreservesOrder(t *testing.T) {
	v := NewVader()
	texts := []string{"great gains", "terrible losses", "scheduled meeting"}
	results, err := v.Score(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}
	if results[0].Label != "positive" || results[1].Label != "negative" || results[2].Label != "neutral" {
		t.Fatalf("order not preserved: %+v", results)
	}
}

func TestDisabledScorer(t *testing.T) {
	d := NewDisabled()
	if d.Enabled() {
		t.Fatal("disabled scorer must report Enabled() == false")
	}
	results, err := d.Score(context.Background(), []string{"anything"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Label != "neutral" || results[0].Confidence != 0 {
		t.Fatalf("disabled scorer should return zero-confidence neutral, got %+v", results[0])
	}
}
