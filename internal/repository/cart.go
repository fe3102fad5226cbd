package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, user_id, session_key, completed, completed_at, total_items, subtotal, tax, total, version, created_at, modified_at`

func scanCart(row interface{ Scan(...interface{}) error }) (Cart, error) {
	var i Cart
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SessionKey,
		&i.Completed,
		&i.CompletedAt,
		&i.TotalItems,
		&i.Subtotal,
		&i.Tax,
		&i.Total,
		&i.Version,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const insertActiveUserCart = `INSERT INTO carts (id, user_id)
VALUES ($1, $2)
ON CONFLICT (user_id) WHERE NOT completed AND user_id IS NOT NULL DO NOTHING
RETURNING ` + cartColumns

// InsertActiveUserCart creates the single active cart for a user. The partial
// unique index on (user_id) makes a concurrent creation a no-op instead of an
// aborted transaction; the loser sees pgx.ErrNoRows and re-queries for the
// winning row.
func (q *Queries) InsertActiveUserCart(c context.Context, id uuid.UUID, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, insertActiveUserCart, id, userID)
	return scanCart(row)
}

const insertActiveSessionCart = `INSERT INTO carts (id, session_key)
VALUES ($1, $2)
ON CONFLICT (session_key) WHERE NOT completed AND session_key IS NOT NULL DO NOTHING
RETURNING ` + cartColumns

func (q *Queries) InsertActiveSessionCart(c context.Context, id uuid.UUID, sessionKey string) (Cart, error) {
	row := q.db.QueryRow(c, insertActiveSessionCart, id, sessionKey)
	return scanCart(row)
}

const findActiveCartByUserId = `SELECT ` + cartColumns + `
FROM carts
WHERE user_id = $1 AND NOT completed`

func (q *Queries) FindActiveCartByUserId(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findActiveCartByUserId, userID)
	return scanCart(row)
}

const findActiveCartBySessionKey = `SELECT ` + cartColumns + `
FROM carts
WHERE session_key = $1 AND NOT completed`

func (q *Queries) FindActiveCartBySessionKey(c context.Context, sessionKey string) (Cart, error) {
	row := q.db.QueryRow(c, findActiveCartBySessionKey, sessionKey)
	return scanCart(row)
}

const findActiveCartByUserIdForUpdate = findActiveCartByUserId + `
FOR UPDATE`

func (q *Queries) FindActiveCartByUserIdForUpdate(
	c context.Context,
	userID uuid.UUID,
) (Cart, error) {
	row := q.db.QueryRow(c, findActiveCartByUserIdForUpdate, userID)
	return scanCart(row)
}

const findActiveCartBySessionKeyForUpdate = findActiveCartBySessionKey + `
FOR UPDATE`

func (q *Queries) FindActiveCartBySessionKeyForUpdate(
	c context.Context,
	sessionKey string,
) (Cart, error) {
	row := q.db.QueryRow(c, findActiveCartBySessionKeyForUpdate, sessionKey)
	return scanCart(row)
}

const getCartForUpdate = `SELECT ` + cartColumns + `
FROM carts
WHERE id = $1
FOR UPDATE`

// GetCartForUpdate acquires the row-level exclusive lock on the cart. The
// version comparison against the caller's expected version happens in the
// service layer so the mismatch maps to a domain error.
func (q *Queries) GetCartForUpdate(c context.Context, id uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, getCartForUpdate, id)
	return scanCart(row)
}

const getCartVersion = `SELECT version
FROM carts
WHERE id = $1`

func (q *Queries) GetCartVersion(c context.Context, id uuid.UUID) (int32, error) {
	var version int32
	err := q.db.QueryRow(c, getCartVersion, id).Scan(&version)
	return version, err
}

const incrementCartVersion = `UPDATE carts
SET version = version + 1, modified_at = now()
WHERE id = $1
RETURNING version`

func (q *Queries) IncrementCartVersion(c context.Context, id uuid.UUID) (int32, error) {
	var version int32
	err := q.db.QueryRow(c, incrementCartVersion, id).Scan(&version)
	return version, err
}

const updateCartTotals = `UPDATE carts
SET total_items = $2, subtotal = $3, tax = $4, total = $5, modified_at = now()
WHERE id = $1`

type UpdateCartTotalsParams struct {
	ID         uuid.UUID
	TotalItems int32
	Subtotal   pgtype.Numeric
	Tax        pgtype.Numeric
	Total      pgtype.Numeric
}

func (q *Queries) UpdateCartTotals(c context.Context, arg UpdateCartTotalsParams) error {
	_, err := q.db.Exec(c, updateCartTotals,
		arg.ID, arg.TotalItems, arg.Subtotal, arg.Tax, arg.Total)
	return err
}

const markCartCompleted = `UPDATE carts
SET completed = true, completed_at = now(), modified_at = now()
WHERE id = $1 AND NOT completed`

// MarkCartCompleted moves the cart to its terminal state. Idempotent: a cart
// that is already completed is left untouched.
func (q *Queries) MarkCartCompleted(c context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(c, markCartCompleted, id)
	return err
}

const findActiveCarts = `SELECT ` + cartColumns + `
FROM carts
WHERE NOT completed
ORDER BY created_at`

func (q *Queries) FindActiveCarts(c context.Context) ([]Cart, error) {
	rows, err := q.db.Query(c, findActiveCarts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Cart{}
	for rows.Next() {
		i, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const findExpiredCarts = `SELECT ` + cartColumns + `
FROM carts
WHERE NOT completed AND modified_at < $1
ORDER BY modified_at`

// FindExpiredCarts returns active carts untouched since the cutoff.
func (q *Queries) FindExpiredCarts(c context.Context, cutoff time.Time) ([]Cart, error) {
	rows, err := q.db.Query(c, findExpiredCarts, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Cart{}
	for rows.Next() {
		i, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
