package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/ecom_api/internal/checkout"
	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/internal/util"
)

type OrderService struct {
	Repo            *repo.GormRepo
	Sequencer       *checkout.Sequencer
	CheckoutTimeout time.Duration
}

// NewOrderService wires the checkout sequencer onto r. Cart row locks are
// only taken where the dialect supports SELECT ... FOR UPDATE.
func NewOrderService(r *repo.GormRepo, rec checkout.Recorder, timeout time.Duration) *OrderService {
	return &OrderService{
		Repo: r,
		Sequencer: checkout.New(checkout.Deps{
			Tx:       r,
			Carts:    r,
			Stock:    r,
			Orders:   r,
			LockCart: r.Dialect() == "postgres",
			Metrics:  rec,
		}),
		CheckoutTimeout: timeout,
	}
}

// Checkout returns checkout's own error kinds unchanged.
func (s *OrderService) Checkout(ctx context.Context, userID uint) (*models.Order, error) {
	if s.CheckoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.CheckoutTimeout)
		defer cancel()
	}
	return s.Sequencer.Checkout(ctx, userID)
}

func (s *OrderService) List(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.Repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id, userID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrderForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context, page, size int) (*transport.OrderPage, error) {
	offset, limit, page := util.Calculate(page, size)
	total, orders, err := s.Repo.ListAllOrders(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &transport.OrderPage{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}
