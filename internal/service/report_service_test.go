package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/repository"
	"github.com/hadirq/ledger-api/internal/store"
)

func newReportFixture(at time.Time) (*ReportService, *repository.LedgerRepository, *ArchiveService) {
	ledger := repository.NewLedgerRepository(store.NewMemoryStore())
	roster := fixedRoster{index: models.RosterIndex{
		"1001": {NIS: "1001", Name: "Ayu", Cohort: "7A"},
		"1002": {NIS: "1002", Name: "Budi", Cohort: "7B"},
		"1003": {NIS: "1003", Name: "Citra", Cohort: "7A"},
	}}
	report := NewReportService(ReportServiceParams{
		Ledger:   ledger,
		Roster:   roster,
		Location: time.UTC,
		Now:      func() time.Time { return at },
	})
	archive := NewArchiveService(ArchiveServiceParams{
		Ledger:   ledger,
		Location: time.UTC,
		Now:      func() time.Time { return at },
	})
	return report, ledger, archive
}

func reportEvent(date, nis string, status models.AttendanceStatus, note string) models.AttendanceEvent {
	return models.AttendanceEvent{Date: date, NIS: nis, Name: "S" + nis, Status: status, CheckInTime: "07:00", Note: note}
}

func aprilRange() RecapFilter {
	return RecapFilter{
		From: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestRecapCounts(t *testing.T) {
	report, ledger, _ := newReportFixture(time.Date(2025, time.April, 20, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, reportEvent("14/04/2025", "1001", models.StatusPresent, models.TagOnTime)))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1001", models.StatusPresent, models.TagLate)))
	require.NoError(t, ledger.Append(ctx, reportEvent("16/04/2025", "1001", models.StatusSick, "")))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1002", models.StatusAbsent, "")))
	// Outside the requested range.
	require.NoError(t, ledger.Append(ctx, reportEvent("15/03/2025", "1001", models.StatusPresent, models.TagOnTime)))

	recap, err := report.Recap(ctx, aprilRange())
	require.NoError(t, err)
	require.Len(t, recap.Rows, 2)

	ayu := recap.Rows[0]
	assert.Equal(t, "1001", ayu.NIS)
	assert.Equal(t, 2, ayu.Present)
	assert.Equal(t, 1, ayu.Late)
	assert.Equal(t, 1, ayu.Sick)
	assert.Equal(t, 3, ayu.Total)

	budi := recap.Rows[1]
	assert.Equal(t, "1002", budi.NIS)
	assert.Equal(t, 1, budi.Absent)

	assert.Equal(t, 2, recap.Totals.Present)
	assert.Equal(t, 1, recap.Totals.Late)
	assert.Equal(t, 4, recap.Totals.Total)
}

func TestRecapDeterministicRowOrder(t *testing.T) {
	report, ledger, _ := newReportFixture(time.Date(2025, time.April, 20, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1003", models.StatusPresent, "")))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1001", models.StatusPresent, "")))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1002", models.StatusPresent, "")))

	for i := 0; i < 5; i++ {
		recap, err := report.Recap(ctx, aprilRange())
		require.NoError(t, err)
		require.Len(t, recap.Rows, 3)
		assert.Equal(t, "1001", recap.Rows[0].NIS)
		assert.Equal(t, "1002", recap.Rows[1].NIS)
		assert.Equal(t, "1003", recap.Rows[2].NIS)
	}
}

func TestRecapCohortAndNISFilters(t *testing.T) {
	report, ledger, _ := newReportFixture(time.Date(2025, time.April, 20, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1001", models.StatusPresent, "")))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1002", models.StatusPresent, "")))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1003", models.StatusPresent, "")))

	filter := aprilRange()
	filter.Cohort = "7a"
	recap, err := report.Recap(ctx, filter)
	require.NoError(t, err)
	require.Len(t, recap.Rows, 2)
	assert.Equal(t, "1001", recap.Rows[0].NIS)
	assert.Equal(t, "1003", recap.Rows[1].NIS)

	filter = aprilRange()
	filter.NIS = "1002"
	filter.IncludeRecords = true
	recap, err = report.Recap(ctx, filter)
	require.NoError(t, err)
	require.Len(t, recap.Rows, 1)
	require.Len(t, recap.Rows[0].Records, 1)
	assert.Equal(t, "15/04/2025", recap.Rows[0].Records[0].Date)

	filter = aprilRange()
	filter.Name = "ud"
	recap, err = report.Recap(ctx, filter)
	require.NoError(t, err)
	require.Len(t, recap.Rows, 1)
	assert.Equal(t, "1002", recap.Rows[0].NIS)
}

func TestRecapUnchangedByArchival(t *testing.T) {
	now := time.Date(2025, time.May, 2, 10, 0, 0, 0, time.UTC)
	report, ledger, archive := newReportFixture(now)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, reportEvent("14/04/2025", "1001", models.StatusPresent, models.TagOnTime)))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1001", models.StatusPresent, models.TagLate)))
	require.NoError(t, ledger.Append(ctx, reportEvent("01/05/2025", "1001", models.StatusPresent, models.TagOnTime)))

	filter := RecapFilter{
		From: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC),
	}
	before, err := report.Recap(ctx, filter)
	require.NoError(t, err)

	_, err = archive.Run(ctx)
	require.NoError(t, err)

	after, err := report.Recap(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, before.Rows, after.Rows)
	assert.Equal(t, before.Totals, after.Totals)
}

func TestRecapInvalidRange(t *testing.T) {
	report, _, _ := newReportFixture(time.Now())

	_, err := report.Recap(context.Background(), RecapFilter{
		From: time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
}

func TestTodayList(t *testing.T) {
	now := time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)
	report, ledger, _ := newReportFixture(now)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, reportEvent("14/04/2025", "1002", models.StatusPresent, "")))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1001", models.StatusPresent, models.TagOnTime)))
	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1003", models.StatusSick, "")))

	rows, err := report.TodayList(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1001", rows[0].NIS)
	assert.Equal(t, "7A", rows[0].Cohort)

	rows, err = report.TodayList(ctx, "7A")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = report.TodayList(ctx, "7B")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAbsentToday(t *testing.T) {
	now := time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)
	report, ledger, _ := newReportFixture(now)
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, reportEvent("15/04/2025", "1001", models.StatusPresent, "")))

	absent, err := report.AbsentToday(ctx, "")
	require.NoError(t, err)
	require.Len(t, absent, 2)
	assert.Equal(t, "1002", absent[0].NIS)
	assert.Equal(t, "1003", absent[1].NIS)

	absent, err = report.AbsentToday(ctx, "7A")
	require.NoError(t, err)
	require.Len(t, absent, 1)
	assert.Equal(t, "1003", absent[0].NIS)
}

func TestAbsentTodayEmptyLedger(t *testing.T) {
	report, _, _ := newReportFixture(time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC))

	absent, err := report.AbsentToday(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, absent, 3)
}
