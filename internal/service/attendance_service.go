package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/repository"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

type ledgerRepository interface {
	FindByDate(ctx context.Context, date, nis string, window int) (*repository.EventRow, error)
	Append(ctx context.Context, e models.AttendanceEvent) error
	Write(ctx context.Context, rowIndex int, e models.AttendanceEvent) error
}

type rosterIndexProvider interface {
	Index(ctx context.Context) (models.RosterIndex, error)
}

type scheduleProvider interface {
	Today(ctx context.Context) (models.DaySchedule, error)
}

type notifier interface {
	Notify(ctx context.Context, intent models.NotificationIntent)
}

// Record outcomes reported to the scanning client. A rejected scan is part
// of the response contract, not an error.
const (
	ResultOK        = "ok"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
)

// RecordEventRequest is one scan or manual entry.
type RecordEventRequest struct {
	NIS    string `json:"nis" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=Present Sick Leave Absent"`
	Note   string `json:"note"`
}

// RecordEventResult is the outcome of one recording attempt.
type RecordEventResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Name    string `json:"nama,omitempty"`
	Time    string `json:"waktu,omitempty"`
	Type    string `json:"tipe,omitempty"`
	Tag     string `json:"tag,omitempty"`
}

// AttendanceServiceParams wires the attendance service dependencies.
type AttendanceServiceParams struct {
	Ledger     ledgerRepository
	Roster     rosterIndexProvider
	Schedule   scheduleProvider
	Notifier   notifier
	Metrics    *MetricsService
	ScanWindow int
	Location   *time.Location
	Validator  *validator.Validate
	Logger     *zap.Logger
	Now        func() time.Time
}

// AttendanceService records attendance events against the live ledger. All
// writes for the same (date, nis) are serialised in-process so a double scan
// cannot append two rows for the same day.
type AttendanceService struct {
	ledger     ledgerRepository
	roster     rosterIndexProvider
	schedule   scheduleProvider
	notifier   notifier
	metrics    *MetricsService
	scanWindow int
	loc        *time.Location
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
	locks      *keyLock
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(p AttendanceServiceParams) *AttendanceService {
	if p.ScanWindow <= 0 {
		p.ScanWindow = 300
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &AttendanceService{
		ledger:     p.Ledger,
		roster:     p.Roster,
		schedule:   p.Schedule,
		notifier:   p.Notifier,
		metrics:    p.Metrics,
		scanWindow: p.ScanWindow,
		loc:        p.Location,
		validator:  p.Validator,
		logger:     p.Logger,
		now:        p.Now,
		locks:      newKeyLock(),
	}
}

// RecordEvent applies one scan or manual entry to the live ledger.
//
// Scans are classified by the wall clock against today's schedule: up to and
// including the check-in window end the scan is an on-time check-in, after
// that but before the check-out window it is a late check-in, from the
// check-out window start it is a check-out. A manual entry with a
// non-Present status always records as a check-in regardless of time.
func (s *AttendanceService) RecordEvent(ctx context.Context, req RecordEventRequest) (*RecordEventResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	index, err := s.roster.Index(ctx)
	if err != nil {
		return nil, err
	}
	student, ok := index[req.NIS]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "NIS "+req.NIS+" is not registered")
	}

	day, err := s.schedule.Today(ctx)
	if err != nil {
		return nil, err
	}
	if !day.Active {
		return nil, appErrors.ErrNoScheduleToday
	}

	now := s.now().In(s.loc)
	date := now.Format(repository.DateLayout)
	hhmm := now.Format(repository.TimeLayout)

	manual := req.Status != "" && req.Status != string(models.StatusPresent)

	unlock := s.locks.Lock(date + "|" + req.NIS)
	defer unlock()

	existing, err := s.ledger.FindByDate(ctx, date, req.NIS, s.scanWindow)
	if err != nil {
		return nil, err
	}

	if manual {
		return s.recordManual(ctx, student, existing, date, hhmm, req)
	}
	if hhmm >= day.CheckOutStart {
		return s.recordCheckOut(ctx, student, existing, hhmm)
	}
	tag := models.TagLate
	if hhmm <= day.CheckInEnd {
		tag = models.TagOnTime
	}
	return s.recordCheckIn(ctx, student, existing, date, hhmm, tag)
}

func (s *AttendanceService) recordCheckIn(ctx context.Context, student models.Student, existing *repository.EventRow, date, hhmm, tag string) (*RecordEventResult, error) {
	if existing != nil && existing.Event.CheckInTime != "" {
		s.metrics.RecordEvent(models.EventCheckIn, ResultDuplicate)
		return &RecordEventResult{
			Status:  ResultDuplicate,
			Message: student.Name + " already checked in at " + existing.Event.CheckInTime,
			Name:    student.Name,
			Time:    existing.Event.CheckInTime,
			Type:    models.EventCheckIn,
		}, nil
	}

	event := models.AttendanceEvent{
		Date:        date,
		NIS:         student.NIS,
		Name:        student.Name,
		Status:      models.StatusPresent,
		CheckInTime: hhmm,
		Note:        tag,
	}
	if err := s.writeOrAppend(ctx, existing, event); err != nil {
		return nil, err
	}
	s.metrics.RecordEvent(models.EventCheckIn, ResultOK)
	s.logger.Info("check-in recorded",
		zap.String("nis", student.NIS),
		zap.String("waktu", hhmm),
		zap.String("tag", tag))

	s.notify(ctx, student, models.EventCheckIn, models.StatusPresent)
	return &RecordEventResult{
		Status:  ResultOK,
		Message: student.Name + " checked in at " + hhmm,
		Name:    student.Name,
		Time:    hhmm,
		Type:    models.EventCheckIn,
		Tag:     tag,
	}, nil
}

func (s *AttendanceService) recordCheckOut(ctx context.Context, student models.Student, existing *repository.EventRow, hhmm string) (*RecordEventResult, error) {
	if existing == nil || existing.Event.CheckInTime == "" {
		s.metrics.RecordEvent(models.EventCheckOut, ResultError)
		return &RecordEventResult{
			Status:  ResultError,
			Message: student.Name + " has not checked in today",
			Name:    student.Name,
			Type:    models.EventCheckOut,
		}, nil
	}
	if existing.Event.CheckOutTime != "" {
		s.metrics.RecordEvent(models.EventCheckOut, ResultDuplicate)
		return &RecordEventResult{
			Status:  ResultDuplicate,
			Message: student.Name + " already checked out at " + existing.Event.CheckOutTime,
			Name:    student.Name,
			Time:    existing.Event.CheckOutTime,
			Type:    models.EventCheckOut,
		}, nil
	}

	event := existing.Event
	event.CheckOutTime = hhmm
	if err := s.ledger.Write(ctx, existing.Index, event); err != nil {
		return nil, err
	}
	s.metrics.RecordEvent(models.EventCheckOut, ResultOK)
	s.logger.Info("check-out recorded",
		zap.String("nis", student.NIS),
		zap.String("waktu", hhmm))

	s.notify(ctx, student, models.EventCheckOut, event.Status)
	return &RecordEventResult{
		Status:  ResultOK,
		Message: student.Name + " checked out at " + hhmm,
		Name:    student.Name,
		Time:    hhmm,
		Type:    models.EventCheckOut,
	}, nil
}

func (s *AttendanceService) recordManual(ctx context.Context, student models.Student, existing *repository.EventRow, date, hhmm string, req RecordEventRequest) (*RecordEventResult, error) {
	if existing != nil && existing.Event.CheckInTime != "" {
		s.metrics.RecordEvent(models.EventManual, ResultDuplicate)
		return &RecordEventResult{
			Status:  ResultDuplicate,
			Message: student.Name + " already has a record for today",
			Name:    student.Name,
			Type:    models.EventManual,
		}, nil
	}

	status := models.AttendanceStatus(req.Status)
	event := models.AttendanceEvent{
		Date:        date,
		NIS:         student.NIS,
		Name:        student.Name,
		Status:      status,
		CheckInTime: hhmm,
		Note:        req.Note,
	}
	if err := s.writeOrAppend(ctx, existing, event); err != nil {
		return nil, err
	}
	s.metrics.RecordEvent(models.EventManual, ResultOK)
	s.logger.Info("manual entry recorded",
		zap.String("nis", student.NIS),
		zap.String("status", req.Status))

	s.notify(ctx, student, models.EventManual, status)
	return &RecordEventResult{
		Status:  ResultOK,
		Message: student.Name + " recorded as " + req.Status,
		Name:    student.Name,
		Time:    hhmm,
		Type:    models.EventManual,
		Tag:     req.Status,
	}, nil
}

// writeOrAppend persists the event, reusing the row index when a row for
// today already exists with an empty check-in time. Such placeholder rows
// come from seeded or imported sheets and must not block the day's scan.
func (s *AttendanceService) writeOrAppend(ctx context.Context, existing *repository.EventRow, event models.AttendanceEvent) error {
	if existing == nil {
		return s.ledger.Append(ctx, event)
	}
	event.CheckOutTime = existing.Event.CheckOutTime
	return s.ledger.Write(ctx, existing.Index, event)
}

// notify hands the intent to the notification pipeline. The ledger write has
// already committed; a notification failure must never surface to the scan.
func (s *AttendanceService) notify(ctx context.Context, student models.Student, eventType string, status models.AttendanceStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, models.NotificationIntent{
		NIS:       student.NIS,
		Name:      student.Name,
		Type:      eventType,
		Status:    status,
		Timestamp: s.now().Unix(),
	})
}
