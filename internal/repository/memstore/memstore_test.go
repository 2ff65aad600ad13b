package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

func TestCreateWeekUniqueStartDate(t *testing.T) {
	ctx := context.Background()
	store := New()

	first := &domain.Week{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	require.NoError(t, store.CreateWeek(ctx, first))
	assert.NotEmpty(t, first.ID)

	err := store.CreateWeek(ctx, &domain.Week{StartDate: "2024-01-01", EndDate: "2024-01-07"})
	assert.ErrorIs(t, err, domain.ErrWeekExists)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := New()

	week := &domain.Week{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	require.NoError(t, store.CreateWeek(ctx, week))

	err := store.WithTx(ctx, func(tx service.Store) error {
		shift := &domain.Shift{Name: "A", Date: "2024-01-01", StartTime: "09:00", EndTime: "17:00", WeekID: week.ID}
		require.NoError(t, tx.CreateShift(ctx, shift))
		require.NoError(t, tx.MarkWeekPublished(ctx, week.ID, time.Now()))
		return errors.New("boom")
	})
	require.Error(t, err)

	shifts, err := store.ListShifts(ctx, service.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, shifts)

	got, err := store.GetWeekByID(ctx, week.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.Nil(t, got.PublishedAt)
}

func TestListShiftsOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	store := New()

	week := &domain.Week{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	require.NoError(t, store.CreateWeek(ctx, week))

	for _, s := range []struct{ name, date, start string }{
		{"late", "2024-01-02", "18:00"},
		{"early", "2024-01-02", "08:00"},
		{"monday", "2024-01-01", "12:00"},
		{"sunday", "2024-01-07", "12:00"},
	} {
		require.NoError(t, store.CreateShift(ctx, &domain.Shift{Name: s.name, Date: s.date, StartTime: s.start, EndTime: "23:00", WeekID: week.ID}))
	}

	shifts, err := store.ListShifts(ctx, service.ShiftFilter{From: "2024-01-01", To: "2024-01-02"})
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "monday", shifts[0].Name)
	assert.Equal(t, "early", shifts[1].Name)
	assert.Equal(t, "late", shifts[2].Name)
	require.NotNil(t, shifts[0].Week)
	assert.Equal(t, week.ID, shifts[0].Week.ID)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := New()

	week := &domain.Week{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	require.NoError(t, store.CreateWeek(ctx, week))

	got, err := store.GetWeekByID(ctx, week.ID)
	require.NoError(t, err)
	got.IsPublished = true

	again, err := store.GetWeekByID(ctx, week.ID)
	require.NoError(t, err)
	assert.False(t, again.IsPublished)
}
