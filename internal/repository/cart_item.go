package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartItemColumns = `id, cart_id, product_id, name, quantity, unit_price, version, created_at, modified_at`

func scanCartItem(row interface{ Scan(...interface{}) error }) (CartItem, error) {
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
		&i.Version,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const findCartItems = `SELECT ` + cartItemColumns + `
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at`

func (q *Queries) FindCartItems(c context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(c, findCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItem{}
	for rows.Next() {
		i, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertCartItem = `INSERT INTO cart_items (id, cart_id, product_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET name = EXCLUDED.name,
    quantity = EXCLUDED.quantity,
    unit_price = EXCLUDED.unit_price,
    version = cart_items.version + 1,
    modified_at = now()
RETURNING ` + cartItemColumns

type UpsertCartItemParams struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int32
	UnitPrice pgtype.Numeric
}

// UpsertCartItem enforces the unique (cart, product) pair: an existing line is
// rewritten with the merged quantity and a fresh unit price snapshot, bumping
// the line's own version.
func (q *Queries) UpsertCartItem(c context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(c, upsertCartItem,
		arg.ID, arg.CartID, arg.ProductID, arg.Name, arg.Quantity, arg.UnitPrice)
	return scanCartItem(row)
}

const updateCartItemQuantity = `UPDATE cart_items
SET quantity = $3, version = version + 1, modified_at = now()
WHERE cart_id = $1 AND product_id = $2
RETURNING ` + cartItemColumns

func (q *Queries) UpdateCartItemQuantity(
	c context.Context,
	cartID uuid.UUID,
	productID uuid.UUID,
	quantity int32,
) (CartItem, error) {
	row := q.db.QueryRow(c, updateCartItemQuantity, cartID, productID, quantity)
	return scanCartItem(row)
}

const deleteCartItem = `DELETE FROM cart_items
WHERE cart_id = $1 AND product_id = $2`

func (q *Queries) DeleteCartItem(
	c context.Context,
	cartID uuid.UUID,
	productID uuid.UUID,
) (int64, error) {
	tag, err := q.db.Exec(c, deleteCartItem, cartID, productID)
	return tag.RowsAffected(), err
}

const deleteCartItems = `DELETE FROM cart_items
WHERE cart_id = $1`

func (q *Queries) DeleteCartItems(c context.Context, cartID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(c, deleteCartItems, cartID)
	return tag.RowsAffected(), err
}
