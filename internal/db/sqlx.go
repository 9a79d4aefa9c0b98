package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// SQLX is a Conn backed by database/sql with the lib/pq driver.
type SQLX struct {
	db *sqlx.DB
}

func OpenSQLX(ctx context.Context, databaseURL string, maxConns int) (*SQLX, error) {
	d, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	d.SetConnMaxLifetime(5 * time.Minute)
	d.SetConnMaxIdleTime(1 * time.Minute)
	if maxConns > 0 {
		d.SetMaxOpenConns(maxConns)
	}

	s := &SQLX{db: d}
	if err := s.Ping(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLX) Close() {
	_ = s.db.Close()
}

func (s *SQLX) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLX) Exec(ctx context.Context, query string, args ...any) error {
	return sqlxQuerier{s.db}.Exec(ctx, query, args...)
}

func (s *SQLX) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlxQuerier{s.db}.QueryRow(ctx, query, args...)
}

func (s *SQLX) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return sqlxQuerier{s.db}.Query(ctx, query, args...)
}

func (s *SQLX) InTx(ctx context.Context, opts TxOptions, fn func(Querier) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: opts.ReadOnly})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fn(sqlxQuerier{tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// sqlxExt is satisfied by both *sqlx.DB and *sqlx.Tx.
type sqlxExt interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

type sqlxQuerier struct {
	ext sqlxExt
}

func (q sqlxQuerier) Exec(ctx context.Context, query string, args ...any) error {
	_, err := q.ext.ExecContext(ctx, query, args...)
	return err
}

func (q sqlxQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	return q.ext.QueryRowxContext(ctx, query, args...)
}

func (q sqlxQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.ext.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

type sqlRows struct {
	*sqlx.Rows
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}
