package service

import (
	"context"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/scheduler"
)

type WeekRepository interface {
	GetWeekByID(ctx context.Context, id string) (*domain.Week, error)
	GetWeekByStartDate(ctx context.Context, startDate string) (*domain.Week, error)
	// CreateWeek 在 start_date 已存在时返回 domain.ErrWeekExists
	CreateWeek(ctx context.Context, week *domain.Week) error
	// LockWeek 在事务中锁住该周并返回最新的数据
	LockWeek(ctx context.Context, id string) (*domain.Week, error)
	MarkWeekPublished(ctx context.Context, id string, at time.Time) error
}

// ShiftFilter 的日期范围为闭区间，空字符串表示不限制
type ShiftFilter struct {
	From string
	To   string
}

type ShiftRepository interface {
	// GetShiftByID 返回的班次带有所属的周
	GetShiftByID(ctx context.Context, id string) (*domain.Shift, error)
	// ListShifts 按 date、start_time 升序返回，且带有所属的周
	ListShifts(ctx context.Context, filter ShiftFilter) ([]*domain.Shift, error)
	CreateShift(ctx context.Context, shift *domain.Shift) error
	UpdateShift(ctx context.Context, shift *domain.Shift) error
	DeleteShift(ctx context.Context, id string) error
	MarkShiftsPublished(ctx context.Context, weekID string, at time.Time) error
}

type Store interface {
	WeekRepository
	ShiftRepository
	// WithTx 中 fn 返回 nil 时提交，否则回滚
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// getOrCreateWeek 按 date 找到所属的周，不存在时创建。并发创建时唯一约束冲突的一方回退为查询
func getOrCreateWeek(ctx context.Context, repo WeekRepository, date string) (*domain.Week, error) {
	bounds, err := scheduler.WeekBounds(date)
	if err != nil {
		return nil, err
	}

	week, err := repo.GetWeekByStartDate(ctx, bounds.StartDate)
	switch {
	case err == nil:
		return week, nil
	case !errors.Is(err, domain.ErrNoRecord):
		return nil, err
	}

	week = &domain.Week{
		StartDate: bounds.StartDate,
		EndDate:   bounds.EndDate,
	}
	if err := repo.CreateWeek(ctx, week); err != nil {
		if errors.Is(err, domain.ErrWeekExists) {
			return repo.GetWeekByStartDate(ctx, bounds.StartDate)
		}
		return nil, err
	}

	return week, nil
}
