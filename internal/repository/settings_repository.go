package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/store"
)

const scheduleSettingKey = "week_schedule"

// SettingsRepository persists key/value settings in the settings table.
type SettingsRepository struct {
	store store.Store
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(s store.Store) *SettingsRepository {
	return &SettingsRepository{store: s}
}

// Get returns the value stored under key, or ("", false) when absent.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	rows, err := r.store.ReadWindow(ctx, store.TableSettings, 1, settingsReadBatch)
	if err != nil {
		if isTableNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read settings: %w", err)
	}
	for _, row := range rows {
		if cell(row.Cells, 0) == key {
			return cell(row.Cells, 1), true, nil
		}
	}
	return "", false, nil
}

// Set stores value under key, overwriting any existing entry.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	if err := r.store.EnsureTable(ctx, store.TableSettings, store.SettingsHeader); err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	rows, err := r.store.ReadWindow(ctx, store.TableSettings, 1, settingsReadBatch)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	for _, row := range rows {
		if cell(row.Cells, 0) == key {
			if err := r.store.WriteRow(ctx, store.TableSettings, row.Index, []string{key, value}); err != nil {
				return fmt.Errorf("update setting %s: %w", key, err)
			}
			return nil
		}
	}
	if err := r.store.AppendRow(ctx, store.TableSettings, []string{key, value}); err != nil {
		return fmt.Errorf("store setting %s: %w", key, err)
	}
	return nil
}

// WeekSchedule loads the persisted weekly schedule. When no schedule has been
// saved every weekday falls back to the default windows.
func (r *SettingsRepository) WeekSchedule(ctx context.Context) (models.WeekSchedule, error) {
	raw, ok, err := r.Get(ctx, scheduleSettingKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return models.WeekSchedule{}, nil
	}
	var week models.WeekSchedule
	if err := json.Unmarshal([]byte(raw), &week); err != nil {
		return nil, fmt.Errorf("decode week schedule: %w", err)
	}
	return week, nil
}

// SaveWeekSchedule persists the weekly schedule as JSON.
func (r *SettingsRepository) SaveWeekSchedule(ctx context.Context, week models.WeekSchedule) error {
	raw, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("encode week schedule: %w", err)
	}
	return r.Set(ctx, scheduleSettingKey, string(raw))
}

const settingsReadBatch = 200
