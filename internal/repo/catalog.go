package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/ecom_api/internal/models"
)

var ErrInUse = errors.New("record is still referenced")

type ProductFilter struct {
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	CategoryID *uint
	Search     string
	Offset     int
	Limit      int
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.getDB(ctx).Create(cat).Error
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.getDB(ctx).First(&cat, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &cat, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.getDB(ctx).Order("id ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.getDB(ctx).Save(cat).Error
}

// DeleteCategory refuses while any product, including soft-deleted ones
// kept for order history, still points at the category.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		db := r.getDB(ctx)

		var refs int64
		if err := db.Unscoped().Model(&models.Product{}).Where("category_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrInUse
		}

		res := db.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.getDB(ctx).Create(prod).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var prod models.Product
	if err := r.getDB(ctx).Preload("Category").First(&prod, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &prod, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	var total int64
	if err := f.apply(r.getDB(ctx).Model(&models.Product{})).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, f.Limit)
	if err := f.apply(r.getDB(ctx)).Preload("Category").Order("id ASC").Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	return q
}

func (r *GormRepo) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.getDB(ctx).Preload("Category").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateProduct loads the product, lets patch mutate it and writes back only
// the columns patch changed, so a concurrent stock decrement survives an edit
// that does not touch stock. On postgres the row stays locked until commit.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, patch func(*models.Product) error) (*models.Product, error) {
	var prod models.Product
	err := r.Transaction(ctx, func(ctx context.Context) error {
		db := r.getDB(ctx)
		q := db
		if r.Dialect() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&prod, id).Error; err != nil {
			return notFound(err)
		}
		before := prod
		if err := patch(&prod); err != nil {
			return err
		}

		cols := productChanges(before, prod)
		if len(cols) == 0 {
			return nil
		}
		if err := db.Model(&models.Product{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}
		prod = models.Product{}
		return db.First(&prod, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func productChanges(before, after models.Product) map[string]any {
	cols := map[string]any{}
	if after.Name != before.Name {
		cols["name"] = after.Name
	}
	if after.Description != before.Description {
		cols["description"] = after.Description
	}
	if !after.Price.Equal(before.Price) {
		cols["price"] = after.Price
	}
	if after.Stock != before.Stock {
		cols["stock"] = after.Stock
	}
	if after.ImageURL != before.ImageURL {
		cols["image_url"] = after.ImageURL
	}
	if after.CategoryID != before.CategoryID {
		cols["category_id"] = after.CategoryID
	}
	return cols
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.getDB(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SetProductImage(ctx context.Context, id uint, url string) error {
	res := r.getDB(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
