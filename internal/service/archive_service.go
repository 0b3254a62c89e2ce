package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/repository"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

const reportCachePattern = "ledger:report:*"

type archiveRepository interface {
	AllRows(ctx context.Context) ([][]string, error)
	EnsurePartition(ctx context.Context, year int, month time.Month) (string, error)
	AppendToPartition(ctx context.Context, name string, rows [][]string) error
	ReplaceLive(ctx context.Context, rows [][]string) error
	Partitions(ctx context.Context) ([]repository.Partition, error)
}

// ArchiveResult summarises one archival pass.
type ArchiveResult struct {
	Archived   int       `json:"archived"`
	Remaining  int       `json:"remaining"`
	Partitions []string  `json:"partitions"`
	FinishedAt time.Time `json:"finished_at"`
}

// ArchiveStatus reports the scheduler state.
type ArchiveStatus struct {
	Running    bool           `json:"running"`
	NextRun    *time.Time     `json:"next_run,omitempty"`
	LastResult *ArchiveResult `json:"last_result,omitempty"`
}

// ArchiveServiceParams wires the archive service dependencies.
type ArchiveServiceParams struct {
	Ledger   archiveRepository
	Cache    *CacheService
	Metrics  *MetricsService
	Location *time.Location
	Hour     int
	Logger   *zap.Logger
	Now      func() time.Time
}

// ArchiveService moves prior-month rows from the live table into immutable
// monthly partitions so the bounded scans over the live table stay cheap.
type ArchiveService struct {
	ledger  archiveRepository
	cache   *CacheService
	metrics *MetricsService
	loc     *time.Location
	hour    int
	logger  *zap.Logger
	now     func() time.Time

	running atomic.Bool

	mu         sync.Mutex
	lastResult *ArchiveResult
	nextRun    *time.Time
}

// NewArchiveService constructs the archive service.
func NewArchiveService(p ArchiveServiceParams) *ArchiveService {
	if p.Location == nil {
		p.Location = time.Local
	}
	if p.Hour < 0 || p.Hour > 23 {
		p.Hour = 2
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &ArchiveService{
		ledger:  p.Ledger,
		cache:   p.Cache,
		metrics: p.Metrics,
		loc:     p.Location,
		hour:    p.Hour,
		logger:  p.Logger,
		now:     p.Now,
	}
}

// Run archives every live row whose date falls before the current month.
// Rows that no longer parse are conservatively kept in the live table; a
// malformed import must never vanish into the wrong partition. Only one
// pass may run at a time.
func (s *ArchiveService) Run(ctx context.Context) (*ArchiveResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, appErrors.ErrArchiveRunning
	}
	defer s.running.Store(false)

	now := s.now().In(s.loc)
	currentYear, currentMonth := now.Year(), now.Month()

	rows, err := s.ledger.AllRows(ctx)
	if err != nil {
		return nil, err
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	groups := make(map[monthKey][][]string)
	keep := make([][]string, 0, len(rows))
	for _, cells := range rows {
		var raw string
		if len(cells) > 0 {
			raw = cells[0]
		}
		day, ok := repository.ParseEventDate(raw, s.loc)
		if !ok {
			keep = append(keep, cells)
			continue
		}
		if day.Year() == currentYear && day.Month() == currentMonth {
			keep = append(keep, cells)
			continue
		}
		key := monthKey{day.Year(), day.Month()}
		groups[key] = append(groups[key], cells)
	}

	if len(groups) == 0 {
		result := &ArchiveResult{Remaining: len(keep), FinishedAt: now}
		s.setLastResult(result)
		return result, nil
	}

	keys := make([]monthKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	archived := 0
	partitions := make([]string, 0, len(keys))
	for _, key := range keys {
		name, err := s.ledger.EnsurePartition(ctx, key.year, key.month)
		if err != nil {
			return nil, err
		}
		if err := s.ledger.AppendToPartition(ctx, name, groups[key]); err != nil {
			return nil, err
		}
		archived += len(groups[key])
		partitions = append(partitions, name)
	}

	if err := s.ledger.ReplaceLive(ctx, keep); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, reportCachePattern)
	s.metrics.RecordArchiveRun(archived)

	result := &ArchiveResult{
		Archived:   archived,
		Remaining:  len(keep),
		Partitions: partitions,
		FinishedAt: now,
	}
	s.setLastResult(result)
	s.logger.Info("archival pass complete",
		zap.Int("archived", archived),
		zap.Int("remaining", len(keep)),
		zap.Strings("partitions", partitions))
	return result, nil
}

// Status reports whether a pass is running and the outcome of the last one.
func (s *ArchiveService) Status(ctx context.Context) (*ArchiveStatus, []repository.Partition, error) {
	partitions, err := s.ledger.Partitions(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	status := &ArchiveStatus{
		Running:    s.running.Load(),
		NextRun:    s.nextRun,
		LastResult: s.lastResult,
	}
	s.mu.Unlock()
	return status, partitions, nil
}

// Start launches the monthly scheduler: one pass on day 1 at the configured
// hour, local time. It returns immediately; the loop stops when ctx is done.
func (s *ArchiveService) Start(ctx context.Context) {
	go func() {
		for {
			next := s.nextRunAt(s.now().In(s.loc))
			s.setNextRun(next)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if _, err := s.Run(ctx); err != nil {
					s.logger.Error("scheduled archival failed", zap.Error(err))
				}
			}
		}
	}()
}

// nextRunAt returns the next day-1 run time strictly after now.
func (s *ArchiveService) nextRunAt(now time.Time) time.Time {
	run := time.Date(now.Year(), now.Month(), 1, s.hour, 0, 0, 0, s.loc)
	if !run.After(now) {
		run = time.Date(now.Year(), now.Month()+1, 1, s.hour, 0, 0, 0, s.loc)
	}
	return run
}

func (s *ArchiveService) setLastResult(result *ArchiveResult) {
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()
}

func (s *ArchiveService) setNextRun(t time.Time) {
	s.mu.Lock()
	s.nextRun = &t
	s.mu.Unlock()
}
