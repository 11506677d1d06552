package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	contractx "github.com/careloop/health-coach/agent/contract"
)

// Cache is the client's optimistic view of the medication list. It is never
// authoritative: Refresh replaces the whole view with the server's answer,
// and optimistic entries only bridge the gap until the next refresh lands.
type Cache struct {
	api contractx.MedicationAPI

	mu sync.Mutex
	// nextToken/appliedToken order refreshes by start time so a slow fetch
	// that started earlier cannot overwrite the result of a newer one.
	nextToken    uint64
	appliedToken uint64
	view         []contractx.MedicationRecord
	lastErr      string

	now func() time.Time
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithCacheClock overrides the timestamp source for optimistic entries.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCache(api contractx.MedicationAPI, opts ...CacheOption) *Cache {
	c := &Cache{
		api: api,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Refresh re-fetches the full list and replaces the local view,
// last-started-wins. A failed fetch keeps the previous view intact and
// records a user-visible error.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.nextToken++
	token := c.nextToken
	c.mu.Unlock()

	records, err := c.api.ListMedications(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token <= c.appliedToken {
		// A refresh that started after this one already applied its result;
		// neither the view nor the error state may move backwards.
		if err != nil {
			return fmt.Errorf("refresh medications: %w", err)
		}
		return nil
	}
	if err != nil {
		c.lastErr = "failed to load medications"
		return fmt.Errorf("refresh medications: %w", err)
	}
	c.appliedToken = token
	c.view = records
	c.lastErr = ""
	return nil
}

// OptimisticAdd appends a locally synthesized saved record unless the name
// is already present. It is called when the adapter reports tool success,
// ahead of the next refresh.
func (c *Cache) OptimisticAdd(name string) bool {
	normalized := contractx.NormalizeMedicationName(name)
	if normalized == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, record := range c.view {
		if record.Name == normalized {
			return false
		}
	}
	c.view = append(c.view, contractx.MedicationRecord{
		Name:      normalized,
		Status:    contractx.StatusSaved,
		CreatedAt: c.now().UTC(),
	})
	return true
}

// OptimisticRemove drops one entry from the local view without contacting
// the server.
func (c *Cache) OptimisticRemove(name string) bool {
	normalized := contractx.NormalizeMedicationName(name)
	if normalized == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, record := range c.view {
		if record.Name == normalized {
			c.view = append(c.view[:i], c.view[i+1:]...)
			return true
		}
	}
	return false
}

// ClearLocal empties the local view; used when the server-side clear has
// already been issued.
func (c *Cache) ClearLocal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = nil
}

// Remove deletes a record on the server and, on success, locally. On failure
// the previous view stays and the error surfaces via LastError.
func (c *Cache) Remove(ctx context.Context, name string) error {
	if err := c.api.DeleteMedication(ctx, name); err != nil {
		c.mu.Lock()
		c.lastErr = "failed to delete medication"
		c.mu.Unlock()
		return fmt.Errorf("delete medication: %w", err)
	}
	c.OptimisticRemove(name)
	return nil
}

// View returns a copy of the current local view.
func (c *Cache) View() []contractx.MedicationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]contractx.MedicationRecord(nil), c.view...)
}

// LastError returns the user-visible error from the most recent failed
// operation, empty once a refresh succeeds.
func (c *Cache) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
