package repository

import (
	"context"

	"github.com/google/uuid"
)

const productColumns = `id, name, price, stock, status, available, created_at, modified_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Stock,
		&i.Status,
		&i.Available,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const findProductById = `SELECT ` + productColumns + `
FROM products
WHERE id = $1`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductById, id)
	return scanProduct(row)
}
