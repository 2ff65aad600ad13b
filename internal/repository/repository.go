package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/config"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
)

// dbtx 是 *sql.DB 与 *sql.Tx 的公共部分
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	db     dbtx
	inTx   bool
}

var _ service.Store = (*Repository)(nil)

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		db:     dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// WithTx 中的所有操作共用同一个事务，嵌套调用直接复用外层事务
func (r *Repository) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	if r.inTx {
		return fn(r)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	txRepo := &Repository{
		cfg:    r.cfg,
		dbpool: r.dbpool,
		db:     tx,
		inTx:   true,
	}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return r.dbpool.PingContext(ctx)
}

// mapNoRecord 将找不到记录以及非法 UUID 统一转换为 domain.ErrNoRecord
func mapNoRecord(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNoRecord
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return domain.ErrNoRecord
	}

	return err
}
