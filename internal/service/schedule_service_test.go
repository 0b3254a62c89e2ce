package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/repository"
	"github.com/hadirq/ledger-api/internal/store"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// mapCache is an in-memory CacheRepository for tests. TTLs are ignored.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *mapCache) DeleteByPattern(context.Context, string) error {
	c.data = make(map[string][]byte)
	return nil
}

func newScheduleFixture(at time.Time) (*ScheduleService, *repository.SettingsRepository, *mapCache) {
	repo := repository.NewSettingsRepository(store.NewMemoryStore())
	cache := newMapCache()
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)
	svc := NewScheduleService(repo, cacheSvc, 5*time.Minute, time.UTC, nil, nil)
	svc.now = func() time.Time { return at }
	return svc, repo, cache
}

func TestScheduleTodayDefaults(t *testing.T) {
	// 15/04/2025 is a Tuesday.
	svc, _, _ := newScheduleFixture(time.Date(2025, time.April, 15, 6, 0, 0, 0, time.UTC))

	day, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.True(t, day.Active)
	assert.Equal(t, "07:30", day.CheckInEnd)
}

func TestScheduleTodayUsesSavedWeekday(t *testing.T) {
	svc, repo, _ := newScheduleFixture(time.Date(2025, time.April, 15, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, repo.SaveWeekSchedule(ctx, models.WeekSchedule{
		"tuesday": {Active: true, CheckInStart: "06:00", CheckInEnd: "07:00", CheckOutStart: "13:00", CheckOutEnd: "14:00"},
	}))

	day, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:00", day.CheckInEnd)
}

func TestScheduleTodayCacheKeyCarriesDate(t *testing.T) {
	svc, repo, cache := newScheduleFixture(time.Date(2025, time.April, 15, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.Today(ctx)
	require.NoError(t, err)
	_, cachedToday := cache.data["ledger:schedule:2025-04-15"]
	assert.True(t, cachedToday)

	// Change the stored schedule behind the cache, then move to the next
	// day. The stale snapshot is keyed to the old date, so the new day
	// reads the table.
	require.NoError(t, repo.SaveWeekSchedule(ctx, models.WeekSchedule{
		"wednesday": {Active: false},
	}))
	svc.now = func() time.Time { return time.Date(2025, time.April, 16, 6, 0, 0, 0, time.UTC) }

	day, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.False(t, day.Active)
}

func TestScheduleWeekFillsDefaults(t *testing.T) {
	svc, repo, _ := newScheduleFixture(time.Date(2025, time.April, 15, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, repo.SaveWeekSchedule(ctx, models.WeekSchedule{
		"sunday": {Active: false},
	}))

	week, err := svc.Week(ctx)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.False(t, week["sunday"].Active)
	assert.True(t, week["monday"].Active)
	assert.Equal(t, "07:30", week["monday"].CheckInEnd)
}

func TestScheduleSaveValidation(t *testing.T) {
	svc, _, _ := newScheduleFixture(time.Date(2025, time.April, 15, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()

	err := svc.Save(ctx, models.WeekSchedule{"funday": {Active: false}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.Save(ctx, models.WeekSchedule{
		"monday": {Active: true, CheckInStart: "6 am", CheckInEnd: "07:30", CheckOutStart: "14:00", CheckOutEnd: "15:00"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// Inactive days skip the window checks.
	require.NoError(t, svc.Save(ctx, models.WeekSchedule{"Sunday": {Active: false}}))
}

func TestScheduleSaveDropsTodaySnapshot(t *testing.T) {
	svc, _, cache := newScheduleFixture(time.Date(2025, time.April, 15, 6, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.Today(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Save(ctx, models.WeekSchedule{
		"tuesday": {Active: true, CheckInStart: "06:00", CheckInEnd: "07:00", CheckOutStart: "13:00", CheckOutEnd: "14:00"},
	}))
	_, stillCached := cache.data["ledger:schedule:2025-04-15"]
	assert.False(t, stillCached)

	day, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:00", day.CheckInEnd)
}
