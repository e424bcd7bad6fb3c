package match

import "github.com/votermatch/internal/config"

// Tiers defines the classifier thresholds
type Tiers struct {
	High          float64 // >= 0.90 and separated: confirmed
	Medium        float64 // >= 0.70: ambiguous
	Low           float64 // >= 0.55: ambiguous, low confidence
	Margin        float64 // gap to the runner-up required to confirm
	MaxCandidates int
}

// DefaultTiers returns the production thresholds
func DefaultTiers() *Tiers {
	return &Tiers{
		High:          0.90,
		Medium:        0.70,
		Low:           0.55,
		Margin:        0.05,
		MaxCandidates: 3,
	}
}

// Weights are the relative weights of the sub-scores
type Weights struct {
	Name   float64
	Geo    float64
	Age    float64
	Gender float64
}

// DefaultWeights returns the production weights
func DefaultWeights() *Weights {
	return &Weights{
		Name:   0.50,
		Geo:    0.25,
		Age:    0.15,
		Gender: 0.10,
	}
}

// Limits bound candidate retrieval
type Limits struct {
	MaxRetrieved       int
	TierLimit          int
	FuzzyFallbackBelow int
	TrigramThreshold   float64
}

// DefaultLimits returns the production retrieval limits
func DefaultLimits() *Limits {
	return &Limits{
		MaxRetrieved:       50,
		TierLimit:          25,
		FuzzyFallbackBelow: 5,
		TrigramThreshold:   0.35,
	}
}

// TiersFromConfig copies classifier settings out of the loaded config
func TiersFromConfig(cfg config.MatchingConfig) *Tiers {
	return &Tiers{
		High:          cfg.HighConfidence,
		Medium:        cfg.MediumConfidence,
		Low:           cfg.LowCutoff,
		Margin:        cfg.SeparationMargin,
		MaxCandidates: cfg.MaxCandidatesPerPerson,
	}
}

// WeightsFromConfig copies scorer weights out of the loaded config
func WeightsFromConfig(cfg config.MatchingConfig) *Weights {
	return &Weights{
		Name:   cfg.NameWeight,
		Geo:    cfg.GeoWeight,
		Age:    cfg.AgeWeight,
		Gender: cfg.GenderWeight,
	}
}

// LimitsFromConfig copies retrieval limits out of the loaded config
func LimitsFromConfig(cfg config.MatchingConfig) *Limits {
	return &Limits{
		MaxRetrieved:       cfg.MaxRetrieved,
		TierLimit:          cfg.TierLimit,
		FuzzyFallbackBelow: cfg.FuzzyFallbackBelow,
		TrigramThreshold:   cfg.TrigramThreshold,
	}
}
