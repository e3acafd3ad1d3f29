package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ChamsBouzaiene/recap/internal/prompts"
)

// lineSeparator joins transcript lines into the blob sent to endpoints and
// splits condensed results back into lines.
const lineSeparator = "\n"

// Phase identifies the stage reported through the progress callback.
type Phase string

const (
	PhaseCondensing Phase = "condensing"
	PhaseAnalyzing  Phase = "analyzing"
)

// Condenser shrinks an ordered sequence of transcript lines until the whole
// text fits a token budget, then runs the caller's analysis task over it.
// The shrinking is a map-reduce over the generation service itself: each
// over-budget iteration partitions the text into budget-sized chunks,
// condenses every chunk concurrently, and rejoins the results in order.
type Condenser struct {
	sender     Sender
	budget     int
	estimator  CostEstimator
	onProgress func(Phase)
}

// CondenserConfig configures a Condenser.
type CondenserConfig struct {
	// Budget is the per-request token budget. Must be positive.
	Budget int
	// Estimator approximates text cost. Nil picks the default
	// length-based estimator.
	Estimator CostEstimator
	// OnProgress, if set, is invoked before chunked condensation begins
	// and before the final analysis request.
	OnProgress func(Phase)
}

// NewCondenser creates a condenser that issues requests through sender.
func NewCondenser(sender Sender, cfg CondenserConfig) (*Condenser, error) {
	if sender == nil {
		return nil, fmt.Errorf("condenser requires a sender")
	}
	if cfg.Budget <= 0 {
		return nil, fmt.Errorf("token budget must be positive, got %d", cfg.Budget)
	}
	est := cfg.Estimator
	if est == nil {
		est = NewCharCostEstimator(0)
	}
	return &Condenser{
		sender:     sender,
		budget:     cfg.Budget,
		estimator:  est,
		onProgress: cfg.OnProgress,
	}, nil
}

// CondenseToBudget reduces lines until their joined cost is within budget,
// then issues the final analysis request with the task descriptor and
// returns its result.
//
// A reduction iteration that fails to strictly decrease cost aborts with
// ProgressStallError; convergence otherwise depends entirely on the service
// actually shrinking content.
func (c *Condenser) CondenseToBudget(ctx context.Context, lines []string, task string) (string, error) {
	text := strings.Join(lines, lineSeparator)
	cost := c.estimator.Cost(text)

	if cost > c.budget {
		c.notify(PhaseCondensing)

		current := lines
		for iteration := 1; cost > c.budget; iteration++ {
			chunks := PartitionLines(current, c.budget, c.estimator)
			condensed, err := c.condenseChunks(ctx, chunks)
			if err != nil {
				return "", err
			}

			text = strings.Join(condensed, lineSeparator)
			next := c.estimator.Cost(text)
			if next >= cost {
				return "", &ProgressStallError{Iteration: iteration, Cost: next, Budget: c.budget}
			}
			cost = next
			current = strings.Split(text, lineSeparator)
		}
	}

	c.notify(PhaseAnalyzing)
	return c.sender.Send(ctx, Payload{
		System:  prompts.AnalyzeSystem(task),
		Content: text,
	})
}

// condenseChunks issues one condensation request per chunk, concurrently,
// and returns the condensed texts in original chunk order.
func (c *Condenser) condenseChunks(ctx context.Context, chunks [][]string) ([]string, error) {
	results := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			results[i], errs[i] = c.sender.Send(ctx, Payload{
				System:  prompts.CondenseSystem,
				Content: content,
			})
		}(i, strings.Join(chunk, lineSeparator))
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (c *Condenser) notify(phase Phase) {
	if c.onProgress != nil {
		c.onProgress(phase)
	}
}

// PartitionLines splits lines into contiguous chunks via a single greedy
// left-to-right scan: lines accumulate into the current chunk while the cost
// of the joined chunk stays within budget. A line that would push a
// non-empty chunk over budget starts the next chunk instead. Lines are never
// split, so a single line whose own cost exceeds the budget forms a chunk by
// itself.
func PartitionLines(lines []string, budget int, est CostEstimator) [][]string {
	var chunks [][]string
	var current []string
	joined := ""

	for _, line := range lines {
		candidate := line
		if len(current) > 0 {
			candidate = joined + lineSeparator + line
		}
		if len(current) > 0 && est.Cost(candidate) > budget {
			chunks = append(chunks, current)
			current = []string{line}
			joined = line
			continue
		}
		current = append(current, line)
		joined = candidate
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
