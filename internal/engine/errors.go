// Package engine implements the budget-aware condensation pipeline and the
// multi-endpoint request dispatcher.
//
// This file contains error types and endpoint failure classification.

package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ProgressStallError is returned when a full reduction iteration fails to
// decrease the cost of the working text. Without this check the condensation
// loop would spin forever against a service that refuses to shrink content.
type ProgressStallError struct {
	Iteration int // 1-based reduction iteration that made no progress
	Cost      int // cost before and after the iteration
	Budget    int
}

func (e *ProgressStallError) Error() string {
	return fmt.Sprintf("condensation stalled at iteration %d: cost %d did not decrease (budget %d)",
		e.Iteration, e.Cost, e.Budget)
}

// IsProgressStall reports whether err is (or wraps) a ProgressStallError.
func IsProgressStall(err error) bool {
	var stall *ProgressStallError
	return errors.As(err, &stall)
}

// FailureKind is a coarse classification of an endpoint failure, used only
// for logging. Every kind is handled the same way: rotate and cool down.
type FailureKind string

const (
	FailureRateLimit FailureKind = "rate_limit"
	FailureServer    FailureKind = "server"
	FailureTimeout   FailureKind = "timeout"
	FailureNetwork   FailureKind = "network"
	FailureResponse  FailureKind = "bad_response"
	FailureOther     FailureKind = "other"
)

// ClassifyEndpointFailure inspects an endpoint error for log labelling.
func ClassifyEndpointFailure(err error) FailureKind {
	if err == nil {
		return FailureOther
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return FailureRateLimit
	}

	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") {
		return FailureServer
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return FailureTimeout
	}

	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network") {
		return FailureNetwork
	}

	if strings.Contains(errStr, "empty response") ||
		strings.Contains(errStr, "empty completion") ||
		strings.Contains(errStr, "malformed") {
		return FailureResponse
	}

	return FailureOther
}
