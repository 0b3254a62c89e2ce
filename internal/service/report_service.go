package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/repository"
	"github.com/hadirq/ledger-api/internal/store"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

type reportLedgerRepository interface {
	TailWindow(ctx context.Context, table string, cap int) ([]models.AttendanceEvent, error)
	Partitions(ctx context.Context) ([]repository.Partition, error)
}

// RecapFilter selects the date range and students for a recap.
type RecapFilter struct {
	From           time.Time
	To             time.Time
	Cohort         string
	Name           string
	NIS            string
	IncludeRecords bool
}

// Recap is the aggregate over a date range.
type Recap struct {
	From   string             `json:"from"`
	To     string             `json:"to"`
	Rows   []models.RecapRow  `json:"rows"`
	Totals models.RecapTotals `json:"totals"`
}

// ReportServiceParams wires the report service dependencies.
type ReportServiceParams struct {
	Ledger        reportLedgerRepository
	Roster        rosterIndexProvider
	Cache         *CacheService
	Metrics       *MetricsService
	ReportTTL     time.Duration
	ReportScanCap int
	TodayScanCap  int
	Location      *time.Location
	Logger        *zap.Logger
	Now           func() time.Time
}

// ReportService aggregates ledger rows into recaps and daily views. Counts
// are derived from the tables on every rebuild; only the finished snapshot
// is cached, briefly, so a recap never disagrees with the ledger for long.
type ReportService struct {
	ledger        reportLedgerRepository
	roster        rosterIndexProvider
	cache         *CacheService
	metrics       *MetricsService
	reportTTL     time.Duration
	reportScanCap int
	todayScanCap  int
	loc           *time.Location
	logger        *zap.Logger
	now           func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(p ReportServiceParams) *ReportService {
	if p.ReportTTL <= 0 {
		p.ReportTTL = 2 * time.Minute
	}
	if p.ReportScanCap <= 0 {
		p.ReportScanCap = 5000
	}
	if p.TodayScanCap <= 0 {
		p.TodayScanCap = 500
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &ReportService{
		ledger:        p.Ledger,
		roster:        p.Roster,
		cache:         p.Cache,
		metrics:       p.Metrics,
		reportTTL:     p.ReportTTL,
		reportScanCap: p.ReportScanCap,
		todayScanCap:  p.TodayScanCap,
		loc:           p.Location,
		logger:        p.Logger,
		now:           p.Now,
	}
}

// Recap aggregates per-student counts over [From, To]. The live table and
// every partition overlapping the range are scanned; rows are keyed by
// (date, nis) so a recap spanning an archival boundary counts each event
// exactly once.
func (s *ReportService) Recap(ctx context.Context, filter RecapFilter) (*Recap, error) {
	if filter.To.Before(filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recap range end precedes start")
	}

	key := s.recapCacheKey(filter)
	var cached Recap
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	index, err := s.roster.Index(ctx)
	if err != nil {
		return nil, err
	}
	studentFilter := models.StudentFilter{Cohort: filter.Cohort, Name: filter.Name, NIS: filter.NIS}
	candidates := make(map[string]models.Student, len(index))
	for nis, student := range index {
		if !studentFilter.Matches(student) {
			continue
		}
		candidates[nis] = student
	}

	tables, err := s.tablesInRange(ctx, filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*models.RecapRow, len(candidates))
	seen := make(map[string]struct{})
	for _, table := range tables {
		events, err := s.ledger.TailWindow(ctx, table, s.reportScanCap)
		if err != nil {
			if isTableMissing(err) {
				continue
			}
			return nil, err
		}
		s.metrics.ObserveScan("recap", len(events))
		for _, event := range events {
			student, ok := candidates[event.NIS]
			if !ok {
				continue
			}
			day, ok := repository.ParseEventDate(event.Date, s.loc)
			if !ok || day.Before(filter.From) || day.After(filter.To) {
				continue
			}
			dedupe := event.Date + "|" + event.NIS
			if _, dup := seen[dedupe]; dup {
				continue
			}
			seen[dedupe] = struct{}{}

			row, ok := rows[event.NIS]
			if !ok {
				row = &models.RecapRow{NIS: student.NIS, Name: student.Name, Cohort: student.Cohort}
				rows[event.NIS] = row
			}
			tally(row, event)
			if filter.IncludeRecords {
				row.Records = append(row.Records, models.RecapRecord{
					Date:         event.Date,
					Status:       string(event.Status),
					CheckInTime:  event.CheckInTime,
					CheckOutTime: event.CheckOutTime,
					Note:         event.Note,
				})
			}
		}
	}

	recap := &Recap{
		From: filter.From.Format(repository.DateLayout),
		To:   filter.To.Format(repository.DateLayout),
		Rows: make([]models.RecapRow, 0, len(rows)),
	}
	for _, row := range rows {
		recap.Totals.Present += row.Present
		recap.Totals.Sick += row.Sick
		recap.Totals.Leave += row.Leave
		recap.Totals.Absent += row.Absent
		recap.Totals.Late += row.Late
		recap.Totals.Total += row.Total
		recap.Rows = append(recap.Rows, *row)
	}
	sort.Slice(recap.Rows, func(i, j int) bool { return recap.Rows[i].NIS < recap.Rows[j].NIS })

	s.cache.Set(ctx, key, recap, s.reportTTL)
	return recap, nil
}

// TodayList returns today's live rows joined with the roster, newest last.
func (s *ReportService) TodayList(ctx context.Context, cohort string) ([]models.TodayRow, error) {
	index, err := s.roster.Index(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now().In(s.loc).Format(repository.DateLayout)

	events, err := s.ledger.TailWindow(ctx, store.TableAttendance, s.todayScanCap)
	if err != nil {
		if isTableMissing(err) {
			return []models.TodayRow{}, nil
		}
		return nil, err
	}
	s.metrics.ObserveScan("today", len(events))

	out := make([]models.TodayRow, 0, len(events))
	for _, event := range events {
		if event.Date != today {
			continue
		}
		student, ok := index[event.NIS]
		if cohort != "" && (!ok || !strings.EqualFold(student.Cohort, cohort)) {
			continue
		}
		out = append(out, models.TodayRow{
			NIS:          event.NIS,
			Name:         event.Name,
			Cohort:       student.Cohort,
			Status:       string(event.Status),
			CheckInTime:  event.CheckInTime,
			CheckOutTime: event.CheckOutTime,
			Note:         event.Note,
		})
	}
	return out, nil
}

// AbsentToday lists registered students with no ledger row for today.
func (s *ReportService) AbsentToday(ctx context.Context, cohort string) ([]models.Student, error) {
	index, err := s.roster.Index(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now().In(s.loc).Format(repository.DateLayout)

	recorded := make(map[string]struct{})
	events, err := s.ledger.TailWindow(ctx, store.TableAttendance, s.todayScanCap)
	if err != nil && !isTableMissing(err) {
		return nil, err
	}
	for _, event := range events {
		if event.Date == today {
			recorded[event.NIS] = struct{}{}
		}
	}

	absent := make([]models.Student, 0)
	for nis, student := range index {
		if _, ok := recorded[nis]; ok {
			continue
		}
		if cohort != "" && !strings.EqualFold(student.Cohort, cohort) {
			continue
		}
		absent = append(absent, student)
	}
	sort.Slice(absent, func(i, j int) bool { return absent[i].NIS < absent[j].NIS })
	return absent, nil
}

// tablesInRange returns the live table plus every partition whose month
// overlaps [from, to].
func (s *ReportService) tablesInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	partitions, err := s.ledger.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(partitions)+1)
	for _, p := range partitions {
		start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, s.loc)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		if end.Before(from) || start.After(to) {
			continue
		}
		tables = append(tables, p.Name)
	}
	tables = append(tables, store.TableAttendance)
	return tables, nil
}

func (s *ReportService) recapCacheKey(filter RecapFilter) string {
	return fmt.Sprintf("ledger:report:recap:%s:%s:%s:%s:%s:%t",
		filter.From.Format("2006-01-02"),
		filter.To.Format("2006-01-02"),
		strings.ToLower(filter.Cohort),
		strings.ToLower(filter.Name),
		filter.NIS,
		filter.IncludeRecords)
}

func tally(row *models.RecapRow, event models.AttendanceEvent) {
	switch event.Status {
	case models.StatusPresent:
		row.Present++
		if event.Late() {
			row.Late++
		}
	case models.StatusSick:
		row.Sick++
	case models.StatusLeave:
		row.Leave++
	case models.StatusAbsent:
		row.Absent++
	default:
		return
	}
	row.Total++
}

func isTableMissing(err error) bool {
	return appErrors.FromError(err).Code == appErrors.ErrTableNotFound.Code
}
