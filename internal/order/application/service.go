package application

import (
	"time"

	"github.com/stoliar/commerce-mesh/internal/order/ports"
)

type Config struct {
	ServiceName     string
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	cfg    Config
	orders ports.OrderRepository
	users  ports.UserClient
	nowFn  func() time.Time
}

type Dependencies struct {
	Config Config
	Orders ports.OrderRepository
	Users  ports.UserClient
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &Service{
		cfg:    cfg,
		orders: deps.Orders,
		users:  deps.Users,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}
