package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const (
	pgCodeUniqueViolation = "23505"
	pgCodeLockNotAvail    = "55P03"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation
}

func IsLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeLockNotAvail
}

// SetLocalLockTimeout bounds row lock waits for the current transaction so a
// contended cart surfaces a lock timeout instead of blocking indefinitely.
func (q *Queries) SetLocalLockTimeout(c context.Context, seconds int) error {
	if seconds < 1 {
		seconds = 3
	}
	_, err := q.db.Exec(c, fmt.Sprintf("SET LOCAL lock_timeout = '%ds'", seconds))
	return err
}
