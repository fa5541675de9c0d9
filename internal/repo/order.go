package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/ecom_api/internal/models"
)

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.getDB(ctx).
		Preload("Items", orderItems).
		Preload("Items.Product", unscoped).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrderForUser(ctx context.Context, id, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.getDB(ctx).
		Preload("Items", orderItems).
		Preload("Items.Product", unscoped).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *GormRepo) ListAllOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.getDB(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	err := r.getDB(ctx).
		Preload("Items", orderItems).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// LoadCart reads the cart and its lines for checkout. A missing cart is
// reported as (nil, nil). lock takes a row lock on the cart so duplicate
// checkouts of one user queue behind each other.
func (r *GormRepo) LoadCart(ctx context.Context, userID uint, lock bool) (*models.Cart, error) {
	db := r.getDB(ctx)

	q := db.Where("user_id = ?", userID)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cart models.Cart
	if err := q.First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := db.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var prods []models.Product
	if len(ids) == 0 {
		return prods, nil
	}
	if err := r.getDB(ctx).Where("id IN ?", ids).Order("id ASC").Find(&prods).Error; err != nil {
		return nil, err
	}
	return prods, nil
}

// DecrementStock is a compare-and-set: it reports false when stock fell
// below qty since it was read.
func (r *GormRepo) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res := r.getDB(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.getDB(ctx).Create(order).Error
}

func (r *GormRepo) DeleteCartItems(ctx context.Context, cartID uint, itemIDs []uint) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := r.getDB(ctx).Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
