package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/repository/memstore"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

var fixedNow = time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memstore.Store
	shifts *service.ShiftService
	weeks  *service.WeekService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memstore.New())
}

func newFixtureWithStore(t *testing.T, store service.Store) *fixture {
	t.Helper()
	f := &fixture{
		shifts: service.NewShiftService(store, zerolog.Nop()),
		weeks:  service.NewWeekService(store, zerolog.Nop(), func() time.Time { return fixedNow }),
	}
	if ms, ok := store.(*memstore.Store); ok {
		f.store = ms
	}
	return f
}

func (f *fixture) create(t *testing.T, name, date, start, end string) domain.ShiftView {
	t.Helper()
	view, err := f.shifts.CreateShift(context.Background(), domain.CreateShiftInput{
		Name:      name,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return view
}

func ptr[T any](v T) *T {
	return &v
}

func clashOf(t *testing.T, err error) domain.ShiftView {
	t.Helper()
	var derr *domain.Error
	require.True(t, errors.As(err, &derr), "expected domain error, got %v", err)
	require.Equal(t, domain.KindShiftClash, derr.Kind)
	data, ok := derr.Data.(domain.ClashData)
	require.True(t, ok)
	return data.ClashingShift
}
