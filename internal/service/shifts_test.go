package service_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

func TestCreateShiftCreatesWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", "2024-01-01", "09:00", "17:00")
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "2024-01-01", a.Date)
	assert.Equal(t, "09:00", a.StartTime)
	assert.Equal(t, "17:00", a.EndTime)
	assert.False(t, a.IsPublished)
	assert.Nil(t, a.PublishedAt)
	require.NotNil(t, a.Week)
	require.NotNil(t, a.Week.ID)
	assert.Equal(t, "2024-01-01", a.Week.StartDate)
	assert.Equal(t, "2024-01-07", a.Week.EndDate)
	assert.False(t, a.Week.IsPublished)

	week, err := f.weeks.GetWeek(ctx, "2024-01-03")
	require.NoError(t, err)
	require.NotNil(t, week.ID)
	assert.Equal(t, *a.Week.ID, *week.ID)

	// 同一周的第二个班次复用同一周
	b := f.create(t, "B", "2024-01-07", "09:00", "10:00")
	assert.Equal(t, *a.Week.ID, *b.Week.ID)
}

func TestCreateShiftClash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", "2024-01-01", "09:00", "17:00")

	in := domain.CreateShiftInput{Name: "B", Date: "2024-01-01", StartTime: "16:00", EndTime: "18:00"}
	_, err := f.shifts.CreateShift(ctx, in)
	require.ErrorIs(t, err, domain.ErrShiftClash)
	clash := clashOf(t, err)
	assert.Equal(t, a.ID, clash.ID)
	assert.Equal(t, "A", clash.Name)
	require.NotNil(t, clash.Week)

	in.IgnoreClash = true
	b, err := f.shifts.CreateShift(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "B", b.Name)

	all, err := f.shifts.ListShifts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateShiftTouchingIntervalsDoNotClash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "A", "2024-01-01", "09:00", "17:00")

	_, err := f.shifts.CreateShift(ctx, domain.CreateShiftInput{Name: "B", Date: "2024-01-01", StartTime: "17:00", EndTime: "18:00"})
	require.NoError(t, err)

	_, err = f.shifts.CreateShift(ctx, domain.CreateShiftInput{Name: "C", Date: "2024-01-01", StartTime: "08:00", EndTime: "09:01"})
	assert.ErrorIs(t, err, domain.ErrShiftClash)
}

func TestCreateShiftOvernightClash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	night := f.create(t, "Night", "2024-01-01", "23:00", "02:00")

	_, err := f.shifts.CreateShift(ctx, domain.CreateShiftInput{Name: "Early", Date: "2024-01-02", StartTime: "01:00", EndTime: "03:00"})
	require.ErrorIs(t, err, domain.ErrShiftClash)
	assert.Equal(t, night.ID, clashOf(t, err).ID)

	// 跨周的跨夜班次同样会被检测到
	sunday := f.create(t, "Sunday night", "2024-01-07", "22:00", "06:00")
	_, err = f.shifts.CreateShift(ctx, domain.CreateShiftInput{Name: "Monday", Date: "2024-01-08", StartTime: "05:00", EndTime: "09:00"})
	require.ErrorIs(t, err, domain.ErrShiftClash)
	assert.Equal(t, sunday.ID, clashOf(t, err).ID)
}

func TestCreateShiftValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.CreateShiftInput
		want error
	}{
		{"empty name", domain.CreateShiftInput{Name: " ", Date: "2024-01-01", StartTime: "09:00", EndTime: "10:00"}, domain.ErrInvalidInput},
		{"bad date", domain.CreateShiftInput{Name: "A", Date: "2024-02-31", StartTime: "09:00", EndTime: "10:00"}, domain.ErrInvalidInput},
		{"bad time", domain.CreateShiftInput{Name: "A", Date: "2024-01-01", StartTime: "0900", EndTime: "10:00"}, domain.ErrInvalidInput},
		{"full day", domain.CreateShiftInput{Name: "A", Date: "2024-01-01", StartTime: "09:00", EndTime: "09:00"}, domain.ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.shifts.CreateShift(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// 校验失败时不会创建任何周
	week, err := f.weeks.GetWeek(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, week.ID)
}

func TestCreateShiftNormalizesTimes(t *testing.T) {
	f := newFixture(t)

	view := f.create(t, "A", "2024-01-01", "9:00:30", "17:15:59")
	assert.Equal(t, "09:00", view.StartTime)
	assert.Equal(t, "17:15", view.EndTime)
}

func TestCreateShiftInPublishedWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "A", "2024-01-01", "09:00", "17:00")
	_, _, err := f.weeks.PublishWeek(ctx, "2024-01-01")
	require.NoError(t, err)

	// 无论是否冲突、是否忽略冲突，都不能在已发布的周中创建班次
	for _, in := range []domain.CreateShiftInput{
		{Name: "B", Date: "2024-01-02", StartTime: "09:00", EndTime: "17:00"},
		{Name: "C", Date: "2024-01-01", StartTime: "10:00", EndTime: "11:00", IgnoreClash: true},
		{Name: "D", Date: "2024-01-01", StartTime: "10:00", EndTime: "11:00"},
	} {
		_, err := f.shifts.CreateShift(ctx, in)
		require.ErrorIs(t, err, domain.ErrWeekPublished)
		assert.EqualError(t, err, "cannot create shift in a published week")
	}
}

func TestUpdateShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", "2024-01-01", "09:00", "17:00")

	t.Run("merges provided fields", func(t *testing.T) {
		updated, err := f.shifts.UpdateShift(ctx, a.ID, domain.UpdateShiftInput{Name: ptr("A2"), EndTime: ptr("18:00:00")})
		require.NoError(t, err)
		assert.Equal(t, "A2", updated.Name)
		assert.Equal(t, "2024-01-01", updated.Date)
		assert.Equal(t, "09:00", updated.StartTime)
		assert.Equal(t, "18:00", updated.EndTime)
	})

	t.Run("does not clash with itself", func(t *testing.T) {
		updated, err := f.shifts.UpdateShift(ctx, a.ID, domain.UpdateShiftInput{StartTime: ptr("10:00")})
		require.NoError(t, err)
		assert.Equal(t, "10:00", updated.StartTime)
	})

	t.Run("moves to another week", func(t *testing.T) {
		updated, err := f.shifts.UpdateShift(ctx, a.ID, domain.UpdateShiftInput{Date: ptr("2024-01-10")})
		require.NoError(t, err)
		require.NotNil(t, updated.Week)
		assert.Equal(t, "2024-01-08", updated.Week.StartDate)
		assert.Equal(t, "2024-01-14", updated.Week.EndDate)
	})

	t.Run("clash with another shift", func(t *testing.T) {
		b := f.create(t, "B", "2024-01-10", "20:00", "22:00")

		in := domain.UpdateShiftInput{StartTime: ptr("19:00"), EndTime: ptr("21:00")}
		_, err := f.shifts.UpdateShift(ctx, a.ID, in)
		require.ErrorIs(t, err, domain.ErrShiftClash)
		assert.Equal(t, b.ID, clashOf(t, err).ID)

		in.IgnoreClash = true
		updated, err := f.shifts.UpdateShift(ctx, a.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "19:00", updated.StartTime)
	})

	t.Run("invalid merged interval", func(t *testing.T) {
		_, err := f.shifts.UpdateShift(ctx, a.ID, domain.UpdateShiftInput{EndTime: ptr("19:00")})
		assert.ErrorIs(t, err, domain.ErrInvalidDuration)

		_, err = f.shifts.UpdateShift(ctx, a.ID, domain.UpdateShiftInput{Name: ptr("")})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.shifts.UpdateShift(ctx, "missing", domain.UpdateShiftInput{Name: ptr("X")})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUpdateShiftPublishedRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	published := f.create(t, "P", "2024-01-01", "09:00", "17:00")
	draft := f.create(t, "D", "2024-01-08", "09:00", "17:00")
	_, _, err := f.weeks.PublishWeek(ctx, "2024-01-01")
	require.NoError(t, err)

	_, err = f.shifts.UpdateShift(ctx, published.ID, domain.UpdateShiftInput{Name: ptr("changed")})
	require.ErrorIs(t, err, domain.ErrWeekPublished)
	assert.EqualError(t, err, "cannot edit a published shift")

	_, err = f.shifts.UpdateShift(ctx, draft.ID, domain.UpdateShiftInput{Date: ptr("2024-01-02")})
	require.ErrorIs(t, err, domain.ErrWeekPublished)
	assert.EqualError(t, err, "cannot move shift into a published week")

	got, err := f.shifts.GetShift(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", got.Date)
}

func TestDeleteShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", "2024-01-01", "09:00", "17:00")
	b := f.create(t, "B", "2024-01-08", "09:00", "17:00")

	require.ErrorIs(t, f.shifts.DeleteShifts(ctx, []string{a.ID, b.ID}), domain.ErrUnsupportedOperation)
	require.ErrorIs(t, f.shifts.DeleteShifts(ctx, nil), domain.ErrUnsupportedOperation)
	require.ErrorIs(t, f.shifts.DeleteShift(ctx, "missing"), domain.ErrNotFound)

	// 只有一个元素的数组同样被拒绝
	require.ErrorIs(t, f.shifts.DeleteShifts(ctx, []string{b.ID}), domain.ErrUnsupportedOperation)
	_, err := f.shifts.GetShift(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, f.shifts.DeleteShift(ctx, b.ID))
	_, err = f.shifts.GetShift(ctx, b.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = f.weeks.PublishWeek(ctx, "2024-01-01")
	require.NoError(t, err)

	err = f.shifts.DeleteShift(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrWeekPublished)
	assert.EqualError(t, err, "cannot delete a published shift")

	_, err = f.shifts.GetShift(ctx, a.ID)
	require.NoError(t, err)
}

func TestListShifts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, "Tue late", "2024-01-02", "18:00", "20:00")
	f.create(t, "Tue early", "2024-01-02", "08:00", "10:00")
	f.create(t, "Mon", "2024-01-01", "12:00", "13:00")
	f.create(t, "Next Mon", "2024-01-08", "12:00", "13:00")
	f.create(t, "Prev Sun", "2023-12-31", "12:00", "13:00")

	all, err := f.shifts.ListShifts(ctx, "")
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Prev Sun", "Mon", "Tue early", "Tue late", "Next Mon"}, names)

	// 传入周中的任意一天都会解析到该周
	week, err := f.shifts.ListShifts(ctx, "2024-01-04")
	require.NoError(t, err)
	require.Len(t, week, 3)
	assert.Equal(t, "Mon", week[0].Name)
	assert.Equal(t, "Tue early", week[1].Name)
	assert.Equal(t, "Tue late", week[2].Name)

	_, err = f.shifts.ListShifts(ctx, "not-a-date")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// vanishingStore 模拟写入后无法读回记录的存储
type vanishingStore struct {
	service.Store
}

func (v vanishingStore) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	return nil, domain.ErrNoRecord
}

func (v vanishingStore) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	return v.Store.WithTx(ctx, func(tx service.Store) error {
		return fn(vanishingStore{tx})
	})
}

func TestCreateShiftCannotReloadIsInternal(t *testing.T) {
	f := newFixture(t)
	svc := service.NewShiftService(vanishingStore{f.store}, zerolog.Nop())

	_, err := svc.CreateShift(context.Background(), domain.CreateShiftInput{Name: "A", Date: "2024-01-01", StartTime: "09:00", EndTime: "10:00"})
	require.ErrorIs(t, err, domain.ErrInternal)

	// 事务回滚，没有留下班次
	shifts, err := f.shifts.ListShifts(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

// racyStore 模拟另一个请求在查询之后、插入之前抢先创建了同一周
type racyStore struct {
	service.Store
	misses int
}

func (r *racyStore) GetWeekByStartDate(ctx context.Context, startDate string) (*domain.Week, error) {
	if r.misses > 0 {
		r.misses--
		return nil, domain.ErrNoRecord
	}
	return r.Store.GetWeekByStartDate(ctx, startDate)
}

func TestCreateShiftWeekCreationRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := &domain.Week{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	require.NoError(t, f.store.CreateWeek(ctx, existing))

	svc := service.NewShiftService(&racyStore{Store: f.store, misses: 1}, zerolog.Nop())
	view, err := svc.CreateShift(ctx, domain.CreateShiftInput{Name: "A", Date: "2024-01-03", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)
	require.NotNil(t, view.Week.ID)
	assert.Equal(t, existing.ID, *view.Week.ID)
}
