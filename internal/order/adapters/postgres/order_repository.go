package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stoliar/commerce-mesh/internal/order/domain"
	"github.com/stoliar/commerce-mesh/internal/order/ports"
)

type orderModel struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id"`
	Description string    `gorm:"column:description"`
	AmountCents int64     `gorm:"column:amount_cents"`
	Currency    string    `gorm:"column:currency"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string { return "orders" }

func toOrderModel(o domain.Order) orderModel {
	return orderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		Description: o.Description,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toDomainOrder(m orderModel) domain.Order {
	return domain.Order{
		ID:          m.ID,
		UserID:      m.UserID,
		Description: m.Description,
		AmountCents: m.AmountCents,
		Currency:    m.Currency,
		Status:      domain.OrderStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

// OrderRepository is the GORM-backed implementation of ports.OrderRepository.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	model := toOrderModel(order)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return toDomainOrder(model), nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	var model orderModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order by id: %w", err)
	}
	return toDomainOrder(model), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, params ports.ListOrdersParams) ([]domain.Order, error) {
	var models []orderModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", params.UserID).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]domain.Order, 0, len(models))
	for _, m := range models {
		orders = append(orders, toDomainOrder(m))
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Order{}, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

var _ ports.OrderRepository = (*OrderRepository)(nil)
