package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Cart struct {
	ID          uuid.UUID
	UserID      *uuid.UUID
	SessionKey  pgtype.Text
	Completed   bool
	CompletedAt pgtype.Timestamptz
	TotalItems  int32
	Subtotal    pgtype.Numeric
	Tax         pgtype.Numeric
	Total       pgtype.Numeric
	Version     int32
	CreatedAt   pgtype.Timestamptz
	ModifiedAt  pgtype.Timestamptz
}

type CartItem struct {
	ID         uuid.UUID
	CartID     uuid.UUID
	ProductID  *uuid.UUID
	Name       string
	Quantity   int32
	UnitPrice  pgtype.Numeric
	Version    int32
	CreatedAt  pgtype.Timestamptz
	ModifiedAt pgtype.Timestamptz
}

type CartEvent struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID *uuid.UUID
	EventType string
	Quantity  int32
	CreatedAt pgtype.Timestamptz
}

type Product struct {
	ID         uuid.UUID
	Name       string
	Price      pgtype.Numeric
	Stock      int32
	Status     string
	Available  bool
	CreatedAt  pgtype.Timestamptz
	ModifiedAt pgtype.Timestamptz
}

type User struct {
	ID         uuid.UUID
	Username   string
	Email      string
	Password   string
	CreatedAt  pgtype.Timestamptz
	ModifiedAt pgtype.Timestamptz
}
