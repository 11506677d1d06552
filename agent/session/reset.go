package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/careloop/health-coach/agent/contract"
)

// LocalCache is the slice of the client cache a reset needs.
type LocalCache interface {
	ClearLocal()
}

// DedupResetter clears per-session tool dedup state on thread changes.
type DedupResetter interface {
	ResetSession(sessionID string)
}

// ThemeResetter restores session-scoped UI state to its default.
type ThemeResetter interface {
	Reset()
}

// Coordinator clears the server store and every client-held session artifact
// together at a session boundary (page load or explicit reset), so no
// medication leaks between unrelated sessions sharing one backend process.
type Coordinator struct {
	api   contractx.MedicationAPI
	cache LocalCache
	dedup DedupResetter
	theme ThemeResetter

	newID func() string
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithIDGenerator overrides thread-id minting (tests).
func WithIDGenerator(newID func() string) CoordinatorOption {
	return func(c *Coordinator) {
		if newID != nil {
			c.newID = newID
		}
	}
}

func NewCoordinator(
	api contractx.MedicationAPI,
	cache LocalCache,
	dedup DedupResetter,
	theme ThemeResetter,
	opts ...CoordinatorOption,
) (*Coordinator, error) {
	if api == nil {
		return nil, errors.New("medication api client is required")
	}

	c := &Coordinator{
		api:   api,
		cache: cache,
		dedup: dedup,
		theme: theme,
		newID: func() string { return NewThreadID() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Reset runs once at session start: bulk-clear on the server, then the local
// artifacts, then a fresh thread id. A failed server clear aborts the local
// resets so the two sides never silently diverge.
func (c *Coordinator) Reset(ctx context.Context, oldSessionID string) (string, error) {
	if err := c.api.ClearMedications(ctx); err != nil {
		return "", fmt.Errorf("clear medications on reset: %w", err)
	}

	if c.cache != nil {
		c.cache.ClearLocal()
	}
	if c.dedup != nil && strings.TrimSpace(oldSessionID) != "" {
		c.dedup.ResetSession(oldSessionID)
	}
	if c.theme != nil {
		c.theme.Reset()
	}

	sessionID := c.newID()
	log.Info().Str("session_id", sessionID).Msg("session reset")
	return sessionID, nil
}

// NewThreadID mints a short thread identifier, e.g. "thread_1f2a9c3b".
func NewThreadID() string {
	return "thread_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
