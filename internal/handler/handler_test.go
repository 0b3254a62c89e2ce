package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hadirq/ledger-api/internal/repository"
	"github.com/hadirq/ledger-api/internal/service"
	"github.com/hadirq/ledger-api/internal/store"
)

// fixture wires the full stack over an in-memory store with a fixed clock.
type fixture struct {
	clock      time.Time
	store      *store.MemoryStore
	roster     *service.RosterService
	schedule   *service.ScheduleService
	attendance *service.AttendanceService
	reports    *service.ReportService
	archive    *service.ArchiveService
}

func newFixture(t *testing.T, at time.Time) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryStore()
	f := &fixture{clock: at, store: mem}
	now := func() time.Time { return f.clock }

	f.roster = service.NewRosterService(repository.NewRosterRepository(mem), nil, 0, nil, nil)
	f.schedule = service.NewScheduleService(repository.NewSettingsRepository(mem), nil, 0, time.UTC, nil, nil)

	ledger := repository.NewLedgerRepository(mem)
	f.attendance = service.NewAttendanceService(service.AttendanceServiceParams{
		Ledger:   ledger,
		Roster:   f.roster,
		Schedule: f.schedule,
		Location: time.UTC,
		Now:      now,
	})
	f.reports = service.NewReportService(service.ReportServiceParams{
		Ledger:   ledger,
		Roster:   f.roster,
		Location: time.UTC,
		Now:      now,
	})
	f.archive = service.NewArchiveService(service.ArchiveServiceParams{
		Ledger:   ledger,
		Location: time.UTC,
		Now:      now,
	})
	return f
}

func (f *fixture) seedStudent(t *testing.T, nis, name, cohort string) {
	t.Helper()
	_, err := f.roster.Create(context.Background(), service.CreateStudentRequest{NIS: nis, Name: name, Cohort: cohort})
	require.NoError(t, err)
}

func (f *fixture) seedScan(t *testing.T, nis string) *service.RecordEventResult {
	t.Helper()
	result, err := f.attendance.RecordEvent(context.Background(), service.RecordEventRequest{NIS: nis})
	require.NoError(t, err)
	return result
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}
