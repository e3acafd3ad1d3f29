package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ScopeError reports a participant filter that matched nothing in the chat.
// It is surfaced to the caller verbatim and never retried.
type ScopeError struct {
	Name string
	Chat string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("unknown participant %q in chat %s", e.Name, e.Chat)
}

// IsScopeError reports whether err is (or wraps) a ScopeError.
func IsScopeError(err error) bool {
	var scope *ScopeError
	return errors.As(err, &scope)
}

// ResolveParticipants maps caller-supplied participant names to the sender
// identities stored for the chat. Matching is case-insensitive and exact.
// An empty names list means no filter (all senders). Any unmatched name
// yields a ScopeError.
func (s *Store) ResolveParticipants(ctx context.Context, chat string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	senders, err := s.Senders(ctx, chat)
	if err != nil {
		return nil, err
	}

	byFold := make(map[string]string, len(senders))
	for _, sender := range senders {
		byFold[strings.ToLower(sender)] = sender
	}

	resolved := make([]string, 0, len(names))
	for _, name := range names {
		sender, ok := byFold[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, &ScopeError{Name: name, Chat: chat}
		}
		resolved = append(resolved, sender)
	}
	return resolved, nil
}
