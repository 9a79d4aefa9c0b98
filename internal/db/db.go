// Package db wraps the Postgres connection used by the Calendar Store.
//
// Two drivers are supported behind the same Conn interface: a pgx connection pool (the default) and
// sqlx over lib/pq. Both run transactions at read-committed isolation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Querier is what both a connection and an open transaction can do.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) Row
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

type TxOptions struct {
	ReadOnly bool
}

// Conn is an open database handle.
type Conn interface {
	Querier

	// InTx runs fn in a read-committed transaction, committing on nil and rolling back otherwise.
	InTx(ctx context.Context, opts TxOptions, fn func(Querier) error) error
	Ping(ctx context.Context) error
	Close()
}

const (
	DriverPgx  = "pgx"
	DriverSQLX = "sqlx"
)

// Connect opens a Conn with the named driver.
func Connect(ctx context.Context, driver, databaseURL string, maxConns int) (Conn, error) {
	switch driver {
	case DriverPgx, "":
		d, err := Open(ctx, databaseURL, maxConns)
		if err != nil {
			return nil, err
		}
		return d, nil
	case DriverSQLX:
		d, err := OpenSQLX(ctx, databaseURL, maxConns)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("db: unknown driver %q", driver)
	}
}

var ErrNotFound = errors.New("not found")

const uniqueViolation = "23505"

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// WrapNotFound maps a driver's no-rows error to ErrNotFound and prefixes everything else.
func WrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("db: %w", err)
}

// IsUniqueViolation reports whether err is a Postgres unique_violation from either driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// ConstraintName returns the violated constraint, if the driver reported one.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}
