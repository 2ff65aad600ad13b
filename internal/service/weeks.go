package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/scheduler"
)

// WeekService 负责周的查询与发布，发布不可撤销
type WeekService struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewWeekService(store Store, logger zerolog.Logger, now func() time.Time) *WeekService {
	if now == nil {
		now = time.Now
	}
	return &WeekService{
		store:  store,
		logger: logger.With().Str("service", "week").Logger(),
		now:    now,
	}
}

// GetWeek 查询从未使用过的周不会报错，也不会创建记录
func (s *WeekService) GetWeek(ctx context.Context, weekStartDate string) (domain.WeekView, error) {
	bounds, err := scheduler.WeekBounds(weekStartDate)
	if err != nil {
		return domain.WeekView{}, err
	}

	week, err := s.store.GetWeekByStartDate(ctx, bounds.StartDate)
	if err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return domain.UnsavedWeekView(bounds.StartDate, bounds.EndDate), nil
		}
		return domain.WeekView{}, err
	}

	return domain.NewWeekView(week), nil
}

// PublishWeek 发布一周并返回发布后的周以及其中的班次数量
//
// 检查与写入在同一个事务中完成，并锁住周记录，使得并发的创建班次请求无法插入到检查和发布之间
func (s *WeekService) PublishWeek(ctx context.Context, weekStartDate string) (domain.WeekView, int, error) {
	bounds, err := scheduler.WeekBounds(weekStartDate)
	if err != nil {
		return domain.WeekView{}, 0, err
	}

	week, err := getOrCreateWeek(ctx, s.store, bounds.StartDate)
	if err != nil {
		return domain.WeekView{}, 0, err
	}

	var shiftCount int
	err = s.store.WithTx(ctx, func(tx Store) error {
		locked, err := tx.LockWeek(ctx, week.ID)
		if err != nil {
			return err
		}
		if locked.IsPublished {
			return domain.NewError(domain.KindAlreadyPublished, "week is already published")
		}

		shifts, err := tx.ListShifts(ctx, ShiftFilter{From: bounds.StartDate, To: bounds.EndDate})
		if err != nil {
			return err
		}
		if len(shifts) == 0 {
			return domain.NewError(domain.KindEmptyWeek, "cannot publish an empty week")
		}
		shiftCount = len(shifts)

		publishedAt := s.now().UTC()
		if err := tx.MarkWeekPublished(ctx, locked.ID, publishedAt); err != nil {
			return err
		}
		return tx.MarkShiftsPublished(ctx, locked.ID, publishedAt)
	})
	if err != nil {
		return domain.WeekView{}, 0, err
	}

	published, err := s.store.GetWeekByID(ctx, week.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return domain.WeekView{}, 0, domain.NewError(domain.KindInternal, "unable to load published week")
		}
		return domain.WeekView{}, 0, err
	}

	s.logger.Info().Str("startDate", published.StartDate).Int("shifts", shiftCount).Msg("week published")
	return domain.NewWeekView(published), shiftCount, nil
}

// WeekRoster 返回一周的信息以及按日期、开始时间排序的班次
func (s *WeekService) WeekRoster(ctx context.Context, weekStartDate string) (domain.WeekView, []domain.ShiftView, error) {
	week, err := s.GetWeek(ctx, weekStartDate)
	if err != nil {
		return domain.WeekView{}, nil, err
	}

	shifts, err := s.store.ListShifts(ctx, ShiftFilter{From: week.StartDate, To: week.EndDate})
	if err != nil {
		return domain.WeekView{}, nil, err
	}

	views := make([]domain.ShiftView, 0, len(shifts))
	for _, shift := range shifts {
		views = append(views, domain.NewShiftView(shift))
	}
	return week, views, nil
}
