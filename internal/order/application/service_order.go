package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/stoliar/commerce-mesh/internal/order/domain"
	"github.com/stoliar/commerce-mesh/internal/order/ports"
)

// CreateOrder places an order after verifying the user exists and is active.
// Creation does not degrade: placing an order against an unverifiable user
// would accept money for an account that may not exist.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest, callerToken string) (OrderView, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return OrderView{}, fmt.Errorf("%w: invalid user_id", domain.ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := domain.ValidateOrder(req.Description, req.AmountCents, currency); err != nil {
		return OrderView{}, err
	}

	user, err := s.users.GetUser(ctx, userID, callerToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OrderView{}, fmt.Errorf("%w: user does not exist", domain.ErrNotFound)
		}
		return OrderView{}, fmt.Errorf("verify order user: %w", err)
	}
	if !user.Active {
		return OrderView{}, fmt.Errorf("%w: user account is inactive", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	created, err := s.orders.Create(ctx, domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Description: strings.TrimSpace(req.Description),
		AmountCents: req.AmountCents,
		Currency:    currency,
		Status:      domain.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return OrderView{}, fmt.Errorf("create order: %w", err)
	}

	s.logOrder(ctx, "create_order", "success", created.ID)
	return toOrderView(created, user, false), nil
}

// GetOrder returns an order enriched with its user. When the user service is
// unavailable the read degrades to a placeholder user rather than failing.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID, callerToken string) (OrderView, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return OrderView{}, err
	}
	user, degraded := s.lookupUser(ctx, order.UserID, callerToken)
	return toOrderView(order, user, degraded), nil
}

func (s *Service) ListOrders(ctx context.Context, req ListOrdersRequest, callerToken string) ([]OrderView, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orders.ListByUser(ctx, ports.ListOrdersParams{UserID: req.UserID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return []OrderView{}, nil
	}

	// All orders in the page belong to one user, so a single lookup covers
	// the whole enrichment.
	user, degraded := s.lookupUser(ctx, req.UserID, callerToken)

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, toOrderView(order, user, degraded))
	}
	return views, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, callerToken string) (OrderView, error) {
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return OrderView{}, err
	}

	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return OrderView{}, err
	}

	user, degraded := s.lookupUser(ctx, updated.UserID, callerToken)
	s.logOrder(ctx, "update_order_status", "success", id)
	return toOrderView(updated, user, degraded), nil
}

// lookupUser fetches the owning user, degrading to the placeholder on
// dependency failure. ErrNotFound also degrades: the order is authoritative
// here and a deleted user must not hide their historical orders.
func (s *Service) lookupUser(ctx context.Context, userID uuid.UUID, callerToken string) (domain.UserSummary, bool) {
	user, err := s.users.GetUser(ctx, userID, callerToken)
	if err == nil {
		return user, false
	}

	slog.Default().WarnContext(ctx, "user lookup degraded",
		"module", "order.application",
		"layer", "application",
		"operation", "lookup_user",
		"outcome", "degraded",
		"user_id", userID,
		"error", err,
	)
	return domain.PlaceholderUser(userID), true
}

func (s *Service) logOrder(ctx context.Context, operation, outcome string, id uuid.UUID) {
	slog.Default().InfoContext(ctx, "order operation",
		"module", "order.application",
		"layer", "application",
		"operation", operation,
		"outcome", outcome,
		"order_id", id,
	)
}

func toOrderView(order domain.Order, user domain.UserSummary, degraded bool) OrderView {
	return OrderView{
		ID: order.ID,
		User: UserView{
			ID:      user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Surname: user.Surname,
			Active:  user.Active,
		},
		Description: order.Description,
		AmountCents: order.AmountCents,
		Currency:    order.Currency,
		Status:      string(order.Status),
		Degraded:    degraded,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}
