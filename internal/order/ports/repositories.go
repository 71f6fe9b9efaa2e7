package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/order/domain"
)

// ListOrdersParams pages through a user's orders.
type ListOrdersParams struct {
	UserID uuid.UUID
	Limit  int
	Offset int
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error)
	ListByUser(ctx context.Context, params ListOrdersParams) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error)
}
