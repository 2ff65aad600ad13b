// Package memstore 提供与 PostgreSQL 仓库行为一致的内存实现，用于本地开发和测试
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

type data struct {
	weeks  map[string]*domain.Week
	shifts map[string]*domain.Shift
	seq    map[string]int64 // 插入顺序，用于排序时的稳定性
	next   int64
}

func (d *data) clone() *data {
	c := &data{
		weeks:  make(map[string]*domain.Week, len(d.weeks)),
		shifts: make(map[string]*domain.Shift, len(d.shifts)),
		seq:    make(map[string]int64, len(d.seq)),
		next:   d.next,
	}
	for id, w := range d.weeks {
		c.weeks[id] = copyWeek(w)
	}
	for id, s := range d.shifts {
		c.shifts[id] = copyShift(s)
	}
	for id, n := range d.seq {
		c.seq[id] = n
	}
	return c
}

// Store 的事务是串行的：同一时间只有一个事务持有锁，回滚时恢复到事务开始前的快照
type Store struct {
	mu   *sync.Mutex
	data *data
	inTx bool
	now  func() time.Time
}

var _ service.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &data{
			weeks:  make(map[string]*domain.Week),
			shifts: make(map[string]*domain.Shift),
			seq:    make(map[string]int64),
		},
		now: time.Now,
	}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *Store) GetWeekByID(ctx context.Context, id string) (*domain.Week, error) {
	defer s.lock()()

	week, ok := s.data.weeks[id]
	if !ok {
		return nil, domain.ErrNoRecord
	}
	return copyWeek(week), nil
}

func (s *Store) GetWeekByStartDate(ctx context.Context, startDate string) (*domain.Week, error) {
	defer s.lock()()

	for _, week := range s.data.weeks {
		if week.StartDate == startDate {
			return copyWeek(week), nil
		}
	}
	return nil, domain.ErrNoRecord
}

func (s *Store) CreateWeek(ctx context.Context, week *domain.Week) error {
	defer s.lock()()

	for _, w := range s.data.weeks {
		if w.StartDate == week.StartDate {
			return domain.ErrWeekExists
		}
	}

	now := s.now().UTC()
	week.ID = uuid.NewString()
	week.CreatedAt = now
	week.UpdatedAt = now
	s.data.weeks[week.ID] = copyWeek(week)
	return nil
}

func (s *Store) LockWeek(ctx context.Context, id string) (*domain.Week, error) {
	return s.GetWeekByID(ctx, id)
}

func (s *Store) MarkWeekPublished(ctx context.Context, id string, at time.Time) error {
	defer s.lock()()

	week, ok := s.data.weeks[id]
	if !ok {
		return domain.ErrNoRecord
	}
	week.IsPublished = true
	week.PublishedAt = &at
	week.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	defer s.lock()()

	shift, ok := s.data.shifts[id]
	if !ok {
		return nil, domain.ErrNoRecord
	}
	return s.withWeek(shift), nil
}

func (s *Store) ListShifts(ctx context.Context, filter service.ShiftFilter) ([]*domain.Shift, error) {
	defer s.lock()()

	shifts := make([]*domain.Shift, 0)
	for _, shift := range s.data.shifts {
		if filter.From != "" && shift.Date < filter.From {
			continue
		}
		if filter.To != "" && shift.Date > filter.To {
			continue
		}
		shifts = append(shifts, s.withWeek(shift))
	}

	sort.Slice(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return s.data.seq[a.ID] < s.data.seq[b.ID]
	})

	return shifts, nil
}

func (s *Store) CreateShift(ctx context.Context, shift *domain.Shift) error {
	defer s.lock()()

	if _, ok := s.data.weeks[shift.WeekID]; !ok {
		return fmt.Errorf("week %q does not exist", shift.WeekID)
	}

	now := s.now().UTC()
	shift.ID = uuid.NewString()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	stored := copyShift(shift)
	stored.Week = nil
	s.data.shifts[shift.ID] = stored
	s.data.next++
	s.data.seq[shift.ID] = s.data.next
	return nil
}

func (s *Store) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	defer s.lock()()

	stored, ok := s.data.shifts[shift.ID]
	if !ok {
		return domain.ErrNoRecord
	}
	if _, ok := s.data.weeks[shift.WeekID]; !ok {
		return fmt.Errorf("week %q does not exist", shift.WeekID)
	}

	stored.Name = shift.Name
	stored.Date = shift.Date
	stored.StartTime = shift.StartTime
	stored.EndTime = shift.EndTime
	stored.WeekID = shift.WeekID
	stored.UpdatedAt = s.now().UTC()
	shift.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) DeleteShift(ctx context.Context, id string) error {
	defer s.lock()()

	if _, ok := s.data.shifts[id]; !ok {
		return domain.ErrNoRecord
	}
	delete(s.data.shifts, id)
	delete(s.data.seq, id)
	return nil
}

func (s *Store) MarkShiftsPublished(ctx context.Context, weekID string, at time.Time) error {
	defer s.lock()()

	for _, shift := range s.data.shifts {
		if shift.WeekID == weekID {
			shift.IsPublished = true
			publishedAt := at
			shift.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (s *Store) withWeek(shift *domain.Shift) *domain.Shift {
	c := copyShift(shift)
	if week, ok := s.data.weeks[shift.WeekID]; ok {
		c.Week = copyWeek(week)
	}
	return c
}

func copyWeek(w *domain.Week) *domain.Week {
	c := *w
	if w.PublishedAt != nil {
		at := *w.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}

func copyShift(s *domain.Shift) *domain.Shift {
	c := *s
	if s.PublishedAt != nil {
		at := *s.PublishedAt
		c.PublishedAt = &at
	}
	if s.Week != nil {
		c.Week = copyWeek(s.Week)
	}
	return &c
}
