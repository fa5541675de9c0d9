package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

// Add puts qty of a product in the caller's cart at the product's current
// price. The stock check here is advisory; checkout checks again.
func (s *CartService) Add(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}

	prod, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	if prod.Stock < qty {
		return nil, fmt.Errorf("%w: insufficient stock", ErrValidation)
	}

	return s.Repo.AddItem(ctx, userID, productID, qty, prod.Price)
}

func (s *CartService) Get(ctx context.Context, userID uint) (*transport.CartResponse, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return &transport.CartResponse{Items: []models.CartItem{}, Total: decimal.Zero}, nil
		}
		return nil, err
	}

	total := decimal.Zero
	for _, it := range cart.Items {
		total = total.Add(it.LineTotal())
	}
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &transport.CartResponse{Items: items, Total: total}, nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	if err := s.Repo.RemoveItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
