// Package engine implements the budget-aware condensation pipeline and the
// multi-endpoint request dispatcher.
//
// This file contains cost estimation for text.

package engine

import "math"

// DefaultCostDivisor is the length-to-cost divisor used when none is
// configured. Roughly 1.8 characters per token for mixed chat text.
const DefaultCostDivisor = 1.8

// CostEstimator approximates the token cost of a text for one request.
// The default is a plain length heuristic; a model-specific tokenizer can be
// plugged in without touching the chunking algorithm.
type CostEstimator interface {
	// Cost returns the approximate token count of text. Deterministic:
	// the same text always yields the same cost.
	Cost(text string) int
}

// CharCostEstimator estimates cost as ceil(len(text) / Divisor).
type CharCostEstimator struct {
	Divisor float64
}

// NewCharCostEstimator creates a length-based estimator. A non-positive
// divisor falls back to DefaultCostDivisor.
func NewCharCostEstimator(divisor float64) CharCostEstimator {
	if divisor <= 0 {
		divisor = DefaultCostDivisor
	}
	return CharCostEstimator{Divisor: divisor}
}

// Cost implements CostEstimator.
func (e CharCostEstimator) Cost(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / e.Divisor))
}
