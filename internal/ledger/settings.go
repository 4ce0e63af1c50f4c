package ledger

import (
	"context"
	"fmt"
	"sync"

	"jangbu/internal/core"
	"jangbu/internal/log"
)

// SettingsBook guards the per-owner settings row. Updates are PIN-gated.
type SettingsBook struct {
	store  SettingsStore
	logger *log.Logger
	owner  string

	mu sync.Mutex
}

func NewSettingsBook(store SettingsStore, logger *log.Logger, owner string) *SettingsBook {
	return &SettingsBook{
		store:  store,
		logger: logger.WithComponent(log.ComponentLedger),
		owner:  owner,
	}
}

// Get returns the current settings.
func (b *SettingsBook) Get(ctx context.Context) (core.Settings, error) {
	s, err := b.store.GetSettings(ctx, b.owner)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// Update verifies the PIN and saves the new settings. The stored PIN and API
// key survive unless the update carries replacements, so callers can change
// the budget or period without re-submitting secrets.
func (b *SettingsBook) Update(ctx context.Context, pin string, updated core.Settings) (core.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, err := b.store.GetSettings(ctx, b.owner)
	if err != nil {
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	if !current.VerifyPIN(pin) {
		return core.Settings{}, core.ErrInvalidPIN
	}

	if updated.StartDate != "" && !core.IsValidDate(updated.StartDate) {
		return core.Settings{}, core.ErrInvalidDate
	}
	if updated.EndDate != "" && !core.IsValidDate(updated.EndDate) {
		return core.Settings{}, core.ErrInvalidDate
	}
	if updated.Budget < 0 {
		return core.Settings{}, core.ErrInvalidAmount
	}

	updated.Owner = b.owner
	if updated.PIN == "" {
		updated.PIN = current.PIN
	}
	if updated.APIKey == "" {
		updated.APIKey = current.APIKey
	}
	if err := b.store.SaveSettings(ctx, updated); err != nil {
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}

	b.logger.InfoContext(ctx, "settings updated",
		log.FieldOwner, b.owner,
		"budget", updated.Budget,
		"start_date", updated.StartDate,
		"end_date", updated.EndDate)
	return updated, nil
}
