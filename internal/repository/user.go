package repository

import (
	"context"
)

const userColumns = `id, username, email, password, created_at, modified_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.Email,
		&i.Password,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

const insertUser = `INSERT INTO users (username, email, password)
VALUES ($1, $2, $3)
RETURNING ` + userColumns

type InsertUserParams struct {
	Username string
	Email    string
	Password string
}

func (q *Queries) InsertUser(c context.Context, arg InsertUserParams) (User, error) {
	row := q.db.QueryRow(c, insertUser, arg.Username, arg.Email, arg.Password)
	return scanUser(row)
}

const findUserByEmail = `SELECT ` + userColumns + `
FROM users
WHERE email = $1`

func (q *Queries) FindUserByEmail(c context.Context, email string) (User, error) {
	row := q.db.QueryRow(c, findUserByEmail, email)
	return scanUser(row)
}
