package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/ecom_api/internal/models"
)

// unscoped keeps soft-deleted products visible on existing lines.
func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// GetCart returns the caller's cart with products, or ErrNotFound when the
// caller never added anything.
func (r *GormRepo) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.getDB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product", unscoped).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

func (r *GormRepo) getOrCreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	db := r.getDB(ctx)

	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// a concurrent first add may win the insert; read back either way
	cart = models.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&cart).Error; err != nil {
		return nil, err
	}
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem merges quantity into a line holding the same product at the same
// price snapshot, or opens a new line priced at price.
func (r *GormRepo) AddItem(ctx context.Context, userID, productID uint, qty int, price decimal.Decimal) (*models.CartItem, error) {
	var item models.CartItem
	err := r.Transaction(ctx, func(ctx context.Context) error {
		cart, err := r.getOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}
		db := r.getDB(ctx)

		var lines []models.CartItem
		if err := db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Order("id ASC").Find(&lines).Error; err != nil {
			return err
		}
		for _, line := range lines {
			if !line.PriceAtAdd.Equal(price) {
				continue
			}
			if err := db.Model(&models.CartItem{}).Where("id = ?", line.ID).
				Update("quantity", gorm.Expr("quantity + ?", qty)).Error; err != nil {
				return err
			}
			return db.First(&item, line.ID).Error
		}

		item = models.CartItem{
			CartID:     cart.ID,
			ProductID:  productID,
			Quantity:   qty,
			PriceAtAdd: price,
		}
		return db.Omit("Product").Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a line only if it belongs to userID's cart.
func (r *GormRepo) RemoveItem(ctx context.Context, userID, itemID uint) error {
	owned := r.getDB(ctx).Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
	res := r.getDB(ctx).Where("id = ? AND cart_id IN (?)", itemID, owned).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
