package engine

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long the dispatcher waits after any failure before
// the next attempt is allowed, process-wide.
const DefaultCooldown = 30 * time.Second

// Endpoint pairs a configured generation endpoint with its client.
type Endpoint struct {
	Label  string // Used in logs, e.g. "api.example.com/gpt-4o-mini"
	Client Client
}

// Dispatcher sends requests to one of several generation endpoints, treating
// the list as a ring. On any failure it advances to the next endpoint and
// imposes a cooldown before the next attempt. The cursor and the cooldown
// deadline are shared by all callers: during an outage, concurrent requests
// collectively rotate through the ring and collectively wait out the
// cooldown instead of each hammering the same dead endpoint.
//
// Send retries indefinitely. The only early exit is caller cancellation via
// the context, so a persistently broken configuration blocks the calling
// request until that context ends.
type Dispatcher struct {
	endpoints []Endpoint
	cooldown  time.Duration
	clock     Clock

	mu        sync.Mutex
	cursor    int       // invariant: 0 <= cursor < len(endpoints)
	notBefore time.Time // zero means no cooldown pending
}

// DispatcherConfig carries the tunables of a Dispatcher. Zero values pick
// defaults.
type DispatcherConfig struct {
	Cooldown time.Duration
	Clock    Clock
}

// NewDispatcher creates a dispatcher over the given ordered endpoint list.
func NewDispatcher(endpoints []Endpoint, cfg DispatcherConfig) (*Dispatcher, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("dispatcher requires at least one endpoint")
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &Dispatcher{
		endpoints: endpoints,
		cooldown:  cooldown,
		clock:     clock,
	}, nil
}

// Send delivers the payload to the current endpoint, rotating and cooling
// down on failure, until some endpoint returns generated text or ctx is
// cancelled. On success it returns the trimmed text and clears any pending
// cooldown. Rotation state persists across calls: the next Send starts from
// wherever the last rotation left the cursor.
func (d *Dispatcher) Send(ctx context.Context, p Payload) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		d.mu.Lock()
		wait := d.notBefore.Sub(d.clock.Now())
		d.mu.Unlock()
		if wait > 0 {
			if err := d.clock.Sleep(ctx, wait); err != nil {
				return "", err
			}
			// A concurrent caller may have failed and pushed the
			// cooldown further out while we slept; re-check before
			// dispatching.
			continue
		}

		d.mu.Lock()
		idx := d.cursor
		ep := d.endpoints[idx]
		d.mu.Unlock()

		text, err := ep.Client.Generate(ctx, GenerationRequest{System: p.System, User: p.Content})
		if err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				d.mu.Lock()
				d.notBefore = time.Time{}
				d.mu.Unlock()
				return trimmed, nil
			}
			err = errors.New("empty completion")
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		d.mu.Lock()
		// Advance only if no concurrent caller already rotated away from
		// the endpoint we just saw fail.
		if d.cursor == idx {
			d.cursor = (idx + 1) % len(d.endpoints)
		}
		next := d.endpoints[d.cursor].Label
		d.notBefore = d.clock.Now().Add(d.cooldown)
		d.mu.Unlock()

		log.Printf("endpoint %s failed (%s), rotating to %s, cooling down %s: %v",
			ep.Label, ClassifyEndpointFailure(err), next, d.cooldown, err)
	}
}
