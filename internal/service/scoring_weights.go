package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wallet-insights/internal/config"
)

// ScoringWeights holds every weight and threshold used by the engine.
// It shares its layout with config.ScoringConfig so SCORING_* overrides map directly.
type ScoringWeights config.ScoringConfig

// DefaultScoringWeights returns the built-in weights
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights(config.DefaultScoringConfig())
}

// WeightsFromConfig converts loaded configuration into engine weights
func WeightsFromConfig(cfg config.ScoringConfig) ScoringWeights {
	return ScoringWeights(cfg)
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 rounds half away from zero to two decimal places
func round2(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// percent returns 100*part/whole, or 0 when whole is not positive
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
