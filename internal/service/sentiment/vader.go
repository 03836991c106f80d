package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	domsvc "github.com/JackFeatherston/Osprey/internal/domain/service"
)

// Label thresholds: compound scores inside (-0.05, +0.05) read as
// neutral, matching the common VADER convention.
const labelThreshold = 0.05

// lexicon assigns valence to general sentiment words. Values roughly
// follow the VADER scale normalized to [-1, +1].
var lexicon = map[string]float64{
	"good":       0.45,
	"great":      0.65,
	"excellent":  0.75,
	"positive":   0.5,
	"strong":     0.5,
	"beat":       0.55,
	"beats":      0.55,
	"up":         0.3,
	"gain":       0.45,
	"gains":      0.45,
	"growth":     0.5,
	"profit":     0.5,
	"profits":    0.5,
	"record":     0.4,
	"win":        0.55,
	"wins":       0.55,
	"bullish":    0.6,
	"upgrade":    0.55,
	"upgraded":   0.55,
	"outperform": 0.6,

	"bad":          -0.45,
	"poor":         -0.5,
	"terrible":     -0.7,
	"negative":     -0.5,
	"weak":         -0.5,
	"miss":         -0.55,
	"misses":       -0.55,
	"missed":       -0.55,
	"down":         -0.3,
	"loss":         -0.5,
	"losses":       -0.5,
	"decline":      -0.45,
	"declines":     -0.45,
	"fall":         -0.4,
	"falls":        -0.4,
	"fell":         -0.4,
	"drop":         -0.45,
	"drops":        -0.45,
	"bearish":      -0.6,
	"downgrade":    -0.55,
	"downgraded":   -0.55,
	"underperform": -0.6,
	"lawsuit":      -0.5,
	"fraud":        -0.75,
	"investigation": -0.45,
	"recall":       -0.5,
	"bankruptcy":   -0.85,
	"layoffs":      -0.55,
	"cut":          -0.35,
	"cuts":         -0.35,
	"warning":      -0.45,
	"warns":        -0.45,
}

// financialBoosters adds market-specific vocabulary layered on top of
// the base lexicon. These dominate headline tone in practice.
var financialBoosters = map[string]float64{
	"surge":     0.3,
	"surges":    0.3,
	"surged":    0.3,
	"soar":      0.3,
	"soars":     0.3,
	"soared":    0.3,
	"rally":     0.25,
	"rallies":   0.25,
	"jump":      0.2,
	"jumps":     0.2,
	"jumped":    0.2,
	"climb":     0.15,
	"climbs":    0.15,
	"breakout":  0.25,
	"blowout":   0.25,

	"plunge":   -0.3,
	"plunges":  -0.3,
	"plunged":  -0.3,
	"crash":    -0.35,
	"crashes":  -0.35,
	"crashed":  -0.35,
	"tumble":   -0.25,
	"tumbles":  -0.25,
	"tumbled":  -0.25,
	"slump":    -0.25,
	"slumps":   -0.25,
	"slide":    -0.2,
	"slides":   -0.2,
	"sink":     -0.25,
	"sinks":    -0.25,
	"selloff":  -0.3,
	"sell-off": -0.3,
}

var negations = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"neither": true,
	"nor":     true,
	"without": true,
	"won't":   true,
	"don't":   true,
	"doesn't": true,
	"didn't":  true,
	"isn't":   true,
	"wasn't":  true,
	"aren't":  true,
}

// Vader is a lexicon-based sentiment scorer tuned with financial
// vocabulary. It runs in-process with no external calls.
type Vader struct{}

// NewVader builds the scorer.
func NewVader() domsvc.SentimentScorer {
	return &Vader{}
}

// Enabled always reports true; wiring decides whether this or the
// Disabled scorer is used.
func (v *Vader) Enabled() bool { return true }

// Score evaluates each text independently. It never fails.
func (v *Vader) Score(_ context.Context, texts []string) ([]models.SentimentResult, error) {
	results := make([]models.SentimentResult, len(texts))
	for i, text := range texts {
		results[i] = scoreText(text)
	}
	return results, nil
}

func scoreText(text string) models.SentimentResult {
	tokens := tokenize(text)

	var sum float64
	var hits int
	negated := false
	for _, tok := range tokens {
		if negations[tok] {
			negated = true
			continue
		}

		valence, ok := lexicon[tok]
		if boost, bok := financialBoosters[tok]; bok {
			valence += boost
			ok = true
		}
		if !ok {
			continue
		}
		if negated {
			valence = -valence
			negated = false
		}
		sum += valence
		hits++
	}

	if hits == 0 {
		return models.SentimentResult{Label: "neutral", Confidence: 0.5}
	}

	// Compress the raw sum into [-1, +1]; the denominator keeps single
	// strong words from saturating the scale.
	compound := sum / math.Sqrt(sum*sum+15)

	label := "neutral"
	switch {
	case compound >= labelThreshold:
		label = "positive"
	case compound <= -labelThreshold:
		label = "negative"
	}

	confidence := math.Min(1.0, 0.5+math.Abs(compound))
	return models.SentimentResult{
		Label:           label,
		Confidence:      confidence,
		NormalizedScore: compound,
	}
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.Trim(f, ".,!?;:\"'()[]"))
	}
	return out
}
