package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

const shiftWithWeekColumns = `
	s.id::text,
	s.name,
	to_char(s.date, 'YYYY-MM-DD'),
	to_char(s.start_time, 'HH24:MI'),
	to_char(s.end_time, 'HH24:MI'),
	s.week_id::text,
	s.is_published,
	s.published_at,
	s.created_at,
	s.updated_at,
	w.id::text,
	to_char(w.start_date, 'YYYY-MM-DD'),
	to_char(w.end_date, 'YYYY-MM-DD'),
	w.is_published,
	w.published_at,
	w.created_at,
	w.updated_at
`

func scanShiftWithWeek(row rowScanner) (*domain.Shift, error) {
	var shift domain.Shift
	var week domain.Week
	dst := []any{
		&shift.ID,
		&shift.Name,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&shift.WeekID,
		&shift.IsPublished,
		&shift.PublishedAt,
		&shift.CreatedAt,
		&shift.UpdatedAt,
		&week.ID,
		&week.StartDate,
		&week.EndDate,
		&week.IsPublished,
		&week.PublishedAt,
		&week.CreatedAt,
		&week.UpdatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, mapNoRecord(err)
	}

	shift.Week = &week
	return &shift, nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	query := `
		SELECT ` + shiftWithWeekColumns + `
		FROM shifts s
		JOIN weeks w ON w.id = s.week_id
		WHERE s.id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShiftWithWeek(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) ListShifts(ctx context.Context, filter service.ShiftFilter) ([]*domain.Shift, error) {
	conditions := []string{}
	args := []any{}
	if filter.From != "" {
		args = append(args, filter.From)
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d::date", len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d::date", len(args)))
	}

	query := `
		SELECT ` + shiftWithWeekColumns + `
		FROM shifts s
		JOIN weeks w ON w.id = s.week_id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.date, s.start_time, s.created_at"

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		shift, err := scanShiftWithWeek(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (name, date, start_time, end_time, week_id)
		VALUES ($1, $2::date, $3::time, $4::time, $5)
		RETURNING id::text, created_at, updated_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		shift.Name,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.WeekID,
	}

	if err := r.db.QueryRowContext(ctx, query, params...).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			name = $1,
			date = $2::date,
			start_time = $3::time,
			end_time = $4::time,
			week_id = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	params := []any{
		shift.Name,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.WeekID,
		shift.ID,
	}

	if err := r.db.QueryRowContext(ctx, query, params...).Scan(&shift.UpdatedAt); err != nil {
		return mapNoRecord(err)
	}

	return nil
}

func (r *Repository) DeleteShift(ctx context.Context, id string) error {
	query := `DELETE FROM shifts WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapNoRecord(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNoRecord
	}

	return nil
}

// MarkShiftsPublished 将周的发布状态同步到班次记录上
func (r *Repository) MarkShiftsPublished(ctx context.Context, weekID string, at time.Time) error {
	query := `
		UPDATE shifts
		SET is_published = TRUE, published_at = $1, updated_at = NOW()
		WHERE week_id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, query, at, weekID); err != nil {
		return err
	}

	return nil
}
