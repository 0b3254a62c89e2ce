package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/models"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

const scheduleCachePrefix = "ledger:schedule:"

type settingsRepository interface {
	WeekSchedule(ctx context.Context) (models.WeekSchedule, error)
	SaveWeekSchedule(ctx context.Context, week models.WeekSchedule) error
}

// weekdayNames are the accepted WeekSchedule keys.
var weekdayNames = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

// ScheduleService resolves the attendance windows for a given day.
type ScheduleService struct {
	repo      settingsRepository
	cache     *CacheService
	ttl       time.Duration
	loc       *time.Location
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo settingsRepository, cache *CacheService, ttl time.Duration, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if loc == nil {
		loc = time.Local
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		loc:       loc,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Today resolves the schedule for the current local day. The cache key
// carries the calendar date so a snapshot cached late in the evening can
// never leak into the next day.
func (s *ScheduleService) Today(ctx context.Context) (models.DaySchedule, error) {
	now := s.now().In(s.loc)
	key := scheduleCachePrefix + now.Format("2006-01-02")

	var day models.DaySchedule
	if s.cache.Get(ctx, key, &day) {
		return day, nil
	}

	week, err := s.repo.WeekSchedule(ctx)
	if err != nil {
		return models.DaySchedule{}, err
	}
	day = week.Resolve(now.Weekday().String())
	s.cache.Set(ctx, key, day, s.ttl)
	return day, nil
}

// Week returns the full configured week, with defaults filled in for
// weekdays that were never saved.
func (s *ScheduleService) Week(ctx context.Context) (models.WeekSchedule, error) {
	week, err := s.repo.WeekSchedule(ctx)
	if err != nil {
		return nil, err
	}
	full := make(models.WeekSchedule, len(weekdayNames))
	for name := range weekdayNames {
		full[name] = week.Resolve(name)
	}
	return full, nil
}

// Save validates and persists the weekly schedule, then drops today's
// cached snapshot so the change applies immediately.
func (s *ScheduleService) Save(ctx context.Context, week models.WeekSchedule) error {
	normalized := make(models.WeekSchedule, len(week))
	for name, day := range week {
		lower := strings.ToLower(strings.TrimSpace(name))
		if _, ok := weekdayNames[lower]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown weekday "+name)
		}
		if day.Active {
			for _, hhmm := range []string{day.CheckInStart, day.CheckInEnd, day.CheckOutStart, day.CheckOutEnd} {
				if _, err := time.Parse("15:04", hhmm); err != nil {
					return appErrors.Clone(appErrors.ErrValidation, "invalid time "+hhmm+" for "+lower)
				}
			}
		}
		normalized[lower] = day
	}

	if err := s.repo.SaveWeekSchedule(ctx, normalized); err != nil {
		return err
	}
	today := scheduleCachePrefix + s.now().In(s.loc).Format("2006-01-02")
	s.cache.Delete(ctx, today)
	s.logger.Info("week schedule saved", zap.Int("days", len(normalized)))
	return nil
}
