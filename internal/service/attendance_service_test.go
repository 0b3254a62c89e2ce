package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/repository"
	"github.com/hadirq/ledger-api/internal/store"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

type fixedRoster struct {
	index models.RosterIndex
	err   error
}

func (r fixedRoster) Index(context.Context) (models.RosterIndex, error) {
	return r.index, r.err
}

type fixedSchedule struct {
	day models.DaySchedule
	err error
}

func (s fixedSchedule) Today(context.Context) (models.DaySchedule, error) {
	return s.day, s.err
}

type recordingNotifier struct {
	intents []models.NotificationIntent
}

func (n *recordingNotifier) Notify(_ context.Context, intent models.NotificationIntent) {
	n.intents = append(n.intents, intent)
}

type attendanceFixture struct {
	service  *AttendanceService
	ledger   *repository.LedgerRepository
	notifier *recordingNotifier
	clock    *time.Time
}

func newAttendanceFixture(t *testing.T, at time.Time) *attendanceFixture {
	t.Helper()
	ledger := repository.NewLedgerRepository(store.NewMemoryStore())
	notifier := &recordingNotifier{}
	clock := at
	f := &attendanceFixture{ledger: ledger, notifier: notifier, clock: &clock}
	f.service = NewAttendanceService(AttendanceServiceParams{
		Ledger: ledger,
		Roster: fixedRoster{index: models.RosterIndex{
			"1001": {NIS: "1001", Name: "Ayu", Cohort: "7A", GuardianContact: "0812"},
			"1002": {NIS: "1002", Name: "Budi", Cohort: "7B"},
		}},
		Schedule: fixedSchedule{day: models.DefaultDaySchedule()},
		Notifier: notifier,
		Location: time.UTC,
		Now:      func() time.Time { return *f.clock },
	})
	return f
}

func localTime(hour, min int) time.Time {
	return time.Date(2025, time.April, 15, hour, min, 0, 0, time.UTC)
}

func TestRecordEventOnTimeCheckIn(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))

	result, err := f.service.RecordEvent(context.Background(), RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	assert.Equal(t, ResultOK, result.Status)
	assert.Equal(t, models.EventCheckIn, result.Type)
	assert.Equal(t, models.TagOnTime, result.Tag)
	assert.Equal(t, "07:02", result.Time)

	row, err := f.ledger.FindByDate(context.Background(), "15/04/2025", "1001", 300)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, models.StatusPresent, row.Event.Status)
	assert.Equal(t, models.TagOnTime, row.Event.Note)

	require.Len(t, f.notifier.intents, 1)
	assert.Equal(t, models.EventCheckIn, f.notifier.intents[0].Type)
}

func TestRecordEventCheckInBoundary(t *testing.T) {
	cases := []struct {
		min     int
		wantTag string
	}{
		{29, models.TagOnTime},
		{30, models.TagOnTime},
		{31, models.TagLate},
	}
	for _, tc := range cases {
		f := newAttendanceFixture(t, localTime(7, tc.min))
		result, err := f.service.RecordEvent(context.Background(), RecordEventRequest{NIS: "1001"})
		require.NoError(t, err)
		assert.Equal(t, models.EventCheckIn, result.Type, "minute %d", tc.min)
		assert.Equal(t, tc.wantTag, result.Tag, "minute %d", tc.min)
	}
}

func TestRecordEventCheckInFillsPlaceholderRow(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))
	ctx := context.Background()

	// A seeded row for today with no check-in time yet.
	require.NoError(t, f.ledger.Append(ctx, models.AttendanceEvent{
		Date: "15/04/2025", NIS: "1001", Name: "Ayu", Status: models.StatusAbsent,
	}))

	result, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	assert.Equal(t, ResultOK, result.Status)
	assert.Equal(t, "07:02", result.Time)
	assert.Equal(t, models.TagOnTime, result.Tag)

	rows, err := f.ledger.TailWindow(ctx, store.TableAttendance, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "07:02", rows[0].CheckInTime)
	assert.Equal(t, models.StatusPresent, rows[0].Status)
	assert.Equal(t, models.TagOnTime, rows[0].Note)
}

func TestRecordEventManualFillsPlaceholderRow(t *testing.T) {
	f := newAttendanceFixture(t, localTime(9, 0))
	ctx := context.Background()

	require.NoError(t, f.ledger.Append(ctx, models.AttendanceEvent{
		Date: "15/04/2025", NIS: "1001", Name: "Ayu",
	}))

	result, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001", Status: "Sick", Note: "flu"})
	require.NoError(t, err)
	assert.Equal(t, ResultOK, result.Status)

	rows, err := f.ledger.TailWindow(ctx, store.TableAttendance, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusSick, rows[0].Status)
	assert.Equal(t, "09:00", rows[0].CheckInTime)
	assert.Equal(t, "flu", rows[0].Note)
}

func TestRecordEventDuplicateCheckIn(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))
	ctx := context.Background()

	first, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	require.Equal(t, ResultOK, first.Status)

	*f.clock = localTime(7, 10)
	second, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, second.Status)
	assert.Equal(t, "07:02", second.Time)

	// The rejected scan must not append a second row.
	events, err := f.ledger.TailWindow(ctx, store.TableAttendance, 100)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Len(t, f.notifier.intents, 1)
}

func TestRecordEventCheckOut(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))
	ctx := context.Background()

	_, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)

	*f.clock = localTime(14, 5)
	result, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	assert.Equal(t, ResultOK, result.Status)
	assert.Equal(t, models.EventCheckOut, result.Type)

	row, err := f.ledger.FindByDate(ctx, "15/04/2025", "1001", 300)
	require.NoError(t, err)
	assert.Equal(t, "07:02", row.Event.CheckInTime)
	assert.Equal(t, "14:05", row.Event.CheckOutTime)
}

func TestRecordEventCheckOutWithoutCheckIn(t *testing.T) {
	f := newAttendanceFixture(t, localTime(14, 5))

	result, err := f.service.RecordEvent(context.Background(), RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	assert.Equal(t, ResultError, result.Status)
	assert.Equal(t, models.EventCheckOut, result.Type)
	assert.Empty(t, f.notifier.intents)
}

func TestRecordEventDuplicateCheckOut(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))
	ctx := context.Background()

	_, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	*f.clock = localTime(14, 5)
	_, err = f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)

	*f.clock = localTime(14, 20)
	result, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, result.Status)
	assert.Equal(t, "14:05", result.Time)
}

func TestRecordEventManualEntry(t *testing.T) {
	// A sick report arriving in the afternoon still records as a check-in.
	f := newAttendanceFixture(t, localTime(14, 30))

	result, err := f.service.RecordEvent(context.Background(), RecordEventRequest{
		NIS:    "1002",
		Status: "Sick",
		Note:   "surat dokter",
	})
	require.NoError(t, err)
	assert.Equal(t, ResultOK, result.Status)
	assert.Equal(t, models.EventManual, result.Type)

	row, err := f.ledger.FindByDate(context.Background(), "15/04/2025", "1002", 300)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSick, row.Event.Status)
	assert.Equal(t, "surat dokter", row.Event.Note)

	require.Len(t, f.notifier.intents, 1)
	assert.Equal(t, models.EventManual, f.notifier.intents[0].Type)
	assert.Equal(t, models.StatusSick, f.notifier.intents[0].Status)
}

func TestRecordEventManualDuplicate(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))
	ctx := context.Background()

	_, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001"})
	require.NoError(t, err)

	result, err := f.service.RecordEvent(ctx, RecordEventRequest{NIS: "1001", Status: "Sick"})
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, result.Status)
}

func TestRecordEventUnknownStudent(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))

	_, err := f.service.RecordEvent(context.Background(), RecordEventRequest{NIS: "9999"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordEventInactiveDay(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))
	f.service.schedule = fixedSchedule{day: models.DaySchedule{Active: false}}

	_, err := f.service.RecordEvent(context.Background(), RecordEventRequest{NIS: "1001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoScheduleToday))
}

func TestRecordEventValidation(t *testing.T) {
	f := newAttendanceFixture(t, localTime(7, 2))

	_, err := f.service.RecordEvent(context.Background(), RecordEventRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.service.RecordEvent(context.Background(), RecordEventRequest{NIS: "1001", Status: "Partying"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
