package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/scheduler"
)

// ShiftService 负责班次的增删改查以及冲突检测
type ShiftService struct {
	store  Store
	logger zerolog.Logger
}

func NewShiftService(store Store, logger zerolog.Logger) *ShiftService {
	return &ShiftService{
		store:  store,
		logger: logger.With().Str("service", "shift").Logger(),
	}
}

func (s *ShiftService) ListShifts(ctx context.Context, weekStartDate string) ([]domain.ShiftView, error) {
	filter := ShiftFilter{}
	if weekStartDate != "" {
		bounds, err := scheduler.WeekBounds(weekStartDate)
		if err != nil {
			return nil, err
		}
		filter.From = bounds.StartDate
		filter.To = bounds.EndDate
	}

	shifts, err := s.store.ListShifts(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ShiftView, 0, len(shifts))
	for _, shift := range shifts {
		views = append(views, domain.NewShiftView(shift))
	}
	return views, nil
}

func (s *ShiftService) GetShift(ctx context.Context, id string) (domain.ShiftView, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return domain.ShiftView{}, err
	}
	return domain.NewShiftView(shift), nil
}

func (s *ShiftService) CreateShift(ctx context.Context, in domain.CreateShiftInput) (domain.ShiftView, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ShiftView{}, domain.NewError(domain.KindInvalidInput, "shift name is required")
	}
	if _, err := scheduler.CalculateInterval(in.Date, in.StartTime, in.EndTime); err != nil {
		return domain.ShiftView{}, err
	}

	// 周的创建必须在事务外完成，否则唯一约束冲突会使整个事务失效
	week, err := getOrCreateWeek(ctx, s.store, in.Date)
	if err != nil {
		return domain.ShiftView{}, err
	}

	startTime, _ := scheduler.NormalizeTime(in.StartTime)
	endTime, _ := scheduler.NormalizeTime(in.EndTime)

	var created *domain.Shift
	err = s.store.WithTx(ctx, func(tx Store) error {
		locked, err := tx.LockWeek(ctx, week.ID)
		if err != nil {
			return err
		}
		if locked.IsPublished {
			return domain.NewError(domain.KindWeekPublished, "cannot create shift in a published week")
		}

		clash, err := findClash(ctx, tx, in.Date, in.StartTime, in.EndTime, "")
		if err != nil {
			return err
		}
		if clash != nil && !in.IgnoreClash {
			return clashError(clash)
		}

		shift := &domain.Shift{
			Name:      in.Name,
			Date:      in.Date,
			StartTime: startTime,
			EndTime:   endTime,
			WeekID:    locked.ID,
		}
		if err := tx.CreateShift(ctx, shift); err != nil {
			return err
		}

		created, err = tx.GetShiftByID(ctx, shift.ID)
		if errors.Is(err, domain.ErrNoRecord) {
			return domain.NewError(domain.KindInternal, "unable to load created shift")
		}
		return err
	})
	if err != nil {
		return domain.ShiftView{}, err
	}

	s.logger.Info().Str("id", created.ID).Str("date", created.Date).Str("weekID", created.WeekID).Msg("shift created")
	return domain.NewShiftView(created), nil
}

func (s *ShiftService) UpdateShift(ctx context.Context, id string, in domain.UpdateShiftInput) (domain.ShiftView, error) {
	existing, err := s.getShift(ctx, id)
	if err != nil {
		return domain.ShiftView{}, err
	}
	if existing.Week != nil && existing.Week.IsPublished {
		return domain.ShiftView{}, domain.NewError(domain.KindWeekPublished, "cannot edit a published shift")
	}

	// 未提供的字段保持原值
	merged := *existing
	if in.Name != nil {
		merged.Name = *in.Name
	}
	if in.Date != nil {
		merged.Date = *in.Date
	}
	if in.StartTime != nil {
		merged.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		merged.EndTime = *in.EndTime
	}

	if strings.TrimSpace(merged.Name) == "" {
		return domain.ShiftView{}, domain.NewError(domain.KindInvalidInput, "shift name is required")
	}
	if _, err := scheduler.CalculateInterval(merged.Date, merged.StartTime, merged.EndTime); err != nil {
		return domain.ShiftView{}, err
	}

	target, err := getOrCreateWeek(ctx, s.store, merged.Date)
	if err != nil {
		return domain.ShiftView{}, err
	}

	merged.StartTime, _ = scheduler.NormalizeTime(merged.StartTime)
	merged.EndTime, _ = scheduler.NormalizeTime(merged.EndTime)
	merged.WeekID = target.ID
	merged.Week = nil

	var updated *domain.Shift
	err = s.store.WithTx(ctx, func(tx Store) error {
		current, locked, err := lockWeeks(ctx, tx, existing.WeekID, target.ID)
		if err != nil {
			return err
		}
		if current.IsPublished {
			return domain.NewError(domain.KindWeekPublished, "cannot edit a published shift")
		}
		if locked.IsPublished && locked.ID != existing.WeekID {
			return domain.NewError(domain.KindWeekPublished, "cannot move shift into a published week")
		}

		clash, err := findClash(ctx, tx, merged.Date, merged.StartTime, merged.EndTime, id)
		if err != nil {
			return err
		}
		if clash != nil && !in.IgnoreClash {
			return clashError(clash)
		}

		if err := tx.UpdateShift(ctx, &merged); err != nil {
			if errors.Is(err, domain.ErrNoRecord) {
				return domain.NewError(domain.KindNotFound, "shift not found")
			}
			return err
		}

		updated, err = tx.GetShiftByID(ctx, id)
		if errors.Is(err, domain.ErrNoRecord) {
			return domain.NewError(domain.KindInternal, "unable to load updated shift")
		}
		return err
	})
	if err != nil {
		return domain.ShiftView{}, err
	}

	s.logger.Info().Str("id", id).Str("date", updated.Date).Str("weekID", updated.WeekID).Msg("shift updated")
	return domain.NewShiftView(updated), nil
}

// DeleteShifts 对应以数组形式传入的 ID，无论数组长度如何都不支持
func (s *ShiftService) DeleteShifts(ctx context.Context, ids []string) error {
	s.logger.Debug().Int("count", len(ids)).Msg("bulk delete rejected")
	return domain.NewError(domain.KindUnsupportedOperation, "bulk delete is not supported")
}

func (s *ShiftService) DeleteShift(ctx context.Context, id string) error {
	existing, err := s.getShift(ctx, id)
	if err != nil {
		return err
	}
	if existing.Week != nil && existing.Week.IsPublished {
		return domain.NewError(domain.KindWeekPublished, "cannot delete a published shift")
	}

	err = s.store.WithTx(ctx, func(tx Store) error {
		week, err := tx.LockWeek(ctx, existing.WeekID)
		if err != nil {
			return err
		}
		if week.IsPublished {
			return domain.NewError(domain.KindWeekPublished, "cannot delete a published shift")
		}

		if err := tx.DeleteShift(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNoRecord) {
				return domain.NewError(domain.KindNotFound, "shift not found")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("id", id).Msg("shift deleted")
	return nil
}

func (s *ShiftService) getShift(ctx context.Context, id string) (*domain.Shift, error) {
	shift, err := s.store.GetShiftByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNoRecord) {
			return nil, domain.NewError(domain.KindNotFound, "shift not found")
		}
		return nil, err
	}
	return shift, nil
}

// lockWeeks 按 ID 顺序加锁，避免两个事务交叉加锁导致死锁
func lockWeeks(ctx context.Context, tx Store, currentID, targetID string) (current *domain.Week, target *domain.Week, err error) {
	ids := []string{currentID, targetID}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	locked := make(map[string]*domain.Week, len(ids))
	for _, id := range ids {
		week, err := tx.LockWeek(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = week
	}

	return locked[currentID], locked[targetID], nil
}

// findClash 在候选日期前后一天的范围内寻找冲突的班次
func findClash(ctx context.Context, repo ShiftRepository, date, startTime, endTime, excludeID string) (*domain.Shift, error) {
	candidate, err := scheduler.CalculateInterval(date, startTime, endTime)
	if err != nil {
		return nil, err
	}

	from, to, err := scheduler.ClashWindow(date)
	if err != nil {
		return nil, err
	}

	pool, err := repo.ListShifts(ctx, ShiftFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	return scheduler.FindClash(candidate, pool, excludeID)
}

func clashError(clash *domain.Shift) error {
	return &domain.Error{
		Kind:    domain.KindShiftClash,
		Message: "shift clash detected",
		Data:    domain.ClashData{ClashingShift: domain.NewShiftView(clash)},
	}
}
