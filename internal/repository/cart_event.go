package repository

import (
	"context"

	"github.com/google/uuid"
)

const cartEventColumns = `id, cart_id, product_id, event_type, quantity, created_at`

func scanCartEvent(row interface{ Scan(...interface{}) error }) (CartEvent, error) {
	var i CartEvent
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.EventType,
		&i.Quantity,
		&i.CreatedAt,
	)
	return i, err
}

const insertCartEvent = `INSERT INTO cart_events (id, cart_id, product_id, event_type, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + cartEventColumns

type InsertCartEventParams struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID *uuid.UUID
	EventType string
	Quantity  int32
}

func (q *Queries) InsertCartEvent(c context.Context, arg InsertCartEventParams) (CartEvent, error) {
	row := q.db.QueryRow(c, insertCartEvent,
		arg.ID, arg.CartID, arg.ProductID, arg.EventType, arg.Quantity)
	return scanCartEvent(row)
}

const findCartEvents = `SELECT ` + cartEventColumns + `
FROM cart_events
WHERE cart_id = $1
ORDER BY created_at DESC`

func (q *Queries) FindCartEvents(c context.Context, cartID uuid.UUID) ([]CartEvent, error) {
	rows, err := q.db.Query(c, findCartEvents, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartEvent{}
	for rows.Next() {
		i, err := scanCartEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
