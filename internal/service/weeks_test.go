package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

func TestGetWeekUnsaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	week, err := f.weeks.GetWeek(ctx, "2024-01-04")
	require.NoError(t, err)
	assert.Nil(t, week.ID)
	assert.Equal(t, "2024-01-01", week.StartDate)
	assert.Equal(t, "2024-01-07", week.EndDate)
	assert.False(t, week.IsPublished)
	assert.Nil(t, week.PublishedAt)

	// 查询不会创建周记录
	_, err = f.store.GetWeekByStartDate(ctx, "2024-01-01")
	assert.ErrorIs(t, err, domain.ErrNoRecord)

	_, err = f.weeks.GetWeek(ctx, "2024/01/04")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPublishWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", "2024-01-01", "09:00", "17:00")
	f.create(t, "B", "2024-01-07", "22:00", "02:00")
	other := f.create(t, "Other", "2024-01-08", "09:00", "17:00")

	week, count, err := f.weeks.PublishWeek(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, week.ID)
	assert.Equal(t, "2024-01-01", week.StartDate)
	assert.True(t, week.IsPublished)
	require.NotNil(t, week.PublishedAt)
	assert.True(t, fixedNow.Equal(*week.PublishedAt))

	got, err := f.shifts.GetShift(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, fixedNow.Equal(*got.PublishedAt))

	// 存储中的班次记录也同步了发布状态
	row, err := f.store.GetShiftByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, row.IsPublished)

	untouched, err := f.shifts.GetShift(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsPublished)

	t.Run("second publish fails and keeps data", func(t *testing.T) {
		later := service.NewWeekService(f.store, zerolog.Nop(), func() time.Time { return fixedNow.Add(time.Hour) })
		_, _, err := later.PublishWeek(ctx, "2024-01-01")
		require.ErrorIs(t, err, domain.ErrAlreadyPublished)

		again, err := f.weeks.GetWeek(ctx, "2024-01-01")
		require.NoError(t, err)
		require.NotNil(t, again.PublishedAt)
		assert.True(t, fixedNow.Equal(*again.PublishedAt))
	})
}

func TestPublishEmptyWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.weeks.PublishWeek(ctx, "2024-01-01")
	require.ErrorIs(t, err, domain.ErrEmptyWeek)

	week, err := f.weeks.GetWeek(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.False(t, week.IsPublished)

	// 删除全部班次后同样视为空周
	a := f.create(t, "A", "2024-01-02", "09:00", "10:00")
	require.NoError(t, f.shifts.DeleteShift(ctx, a.ID))
	_, _, err = f.weeks.PublishWeek(ctx, "2024-01-01")
	require.ErrorIs(t, err, domain.ErrEmptyWeek)
}

// failingPublishStore 在标记班次发布时失败，用于验证发布的原子性
type failingPublishStore struct {
	service.Store
}

var errCascade = errors.New("cascade failed")

func (s failingPublishStore) MarkShiftsPublished(ctx context.Context, weekID string, at time.Time) error {
	return errCascade
}

func (s failingPublishStore) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	return s.Store.WithTx(ctx, func(tx service.Store) error {
		return fn(failingPublishStore{tx})
	})
}

func TestPublishWeekIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", "2024-01-01", "09:00", "17:00")

	weeks := service.NewWeekService(failingPublishStore{f.store}, zerolog.Nop(), nil)
	_, _, err := weeks.PublishWeek(ctx, "2024-01-01")
	require.ErrorIs(t, err, errCascade)

	week, err := f.weeks.GetWeek(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.False(t, week.IsPublished)
	assert.Nil(t, week.PublishedAt)

	row, err := f.store.GetShiftByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, row.IsPublished)

	// 失败后仍可正常发布
	_, count, err := f.weeks.PublishWeek(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWeekRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	week, shifts, err := f.weeks.WeekRoster(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, week.ID)
	assert.Empty(t, shifts)

	f.create(t, "B", "2024-01-03", "09:00", "10:00")
	f.create(t, "A", "2024-01-02", "09:00", "10:00")

	week, shifts, err = f.weeks.WeekRoster(ctx, "2024-01-05")
	require.NoError(t, err)
	require.NotNil(t, week.ID)
	require.Len(t, shifts, 2)
	assert.Equal(t, "A", shifts[0].Name)
	assert.Equal(t, "B", shifts[1].Name)
}
