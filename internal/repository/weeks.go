package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
)

const weekColumns = `
	id::text,
	to_char(start_date, 'YYYY-MM-DD'),
	to_char(end_date, 'YYYY-MM-DD'),
	is_published,
	published_at,
	created_at,
	updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWeek(row rowScanner) (*domain.Week, error) {
	var week domain.Week
	dst := []any{
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

	return &week, nil
}

func (r *Repository) GetWeekByID(ctx context.Context, id string) (*domain.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM weeks WHERE id = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanWeek(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetWeekByStartDate(ctx context.Context, startDate string) (*domain.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM weeks WHERE start_date = $1::date`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanWeek(r.db.QueryRowContext(ctx, query, startDate))
}

func (r *Repository) CreateWeek(ctx context.Context, week *domain.Week) error {
	query := `
		INSERT INTO weeks (start_date, end_date)
		VALUES ($1::date, $2::date)
		RETURNING id::text, is_published, published_at, created_at, updated_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	dst := []any{
		&week.ID,
		&week.IsPublished,
		&week.PublishedAt,
		&week.CreatedAt,
		&week.UpdatedAt,
	}
	if err := r.db.QueryRowContext(ctx, query, week.StartDate, week.EndDate).Scan(dst...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "weeks_start_date_key" {
			return domain.ErrWeekExists
		}
		return err
	}

	return nil
}

// LockWeek 使用 SELECT ... FOR UPDATE，只有在事务中调用才有意义
func (r *Repository) LockWeek(ctx context.Context, id string) (*domain.Week, error) {
	query := `SELECT ` + weekColumns + ` FROM weeks WHERE id = $1 FOR UPDATE`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanWeek(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) MarkWeekPublished(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE weeks
		SET is_published = TRUE, published_at = $1, updated_at = NOW()
		WHERE id = $2
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, at, id)
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
