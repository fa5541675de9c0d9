package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/internal/util"
	"github.com/Skotchmaster/ecom_api/pkg/imagestore"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
)

type CatalogService struct {
	Repo   *repo.GormRepo
	Images imagestore.Store
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrInUse):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	cat := &models.Category{Name: name, Description: req.Description}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req transport.CategoryRequest) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		cat.Name = name
	}
	if req.Description != "" {
		cat.Description = req.Description
	}
	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return mapRepoErr(s.Repo.DeleteCategory(ctx, id))
}

func (s *CatalogService) requireCategory(ctx context.Context, id uint) error {
	if _, err := s.Repo.GetCategory(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: category %d does not exist", ErrValidation, id)
		}
		return err
	}
	return nil
}

// Upload is an image file sent along with a product create or update.
type Upload struct {
	Filename string
	Body     io.Reader
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	return s.createProduct(ctx, req, nil)
}

// CreateProductWithImage validates the product, uploads img and creates the
// product pointing at it.
func (s *CatalogService) CreateProductWithImage(ctx context.Context, req transport.CreateProductRequest, img Upload) (*models.Product, error) {
	return s.createProduct(ctx, req, &img)
}

func (s *CatalogService) createProduct(ctx context.Context, req transport.CreateProductRequest, img *Upload) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	case !req.Price.IsPositive():
		return nil, fmt.Errorf("%w: price must be > 0", ErrValidation)
	case req.Stock < 0:
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}
	if img != nil {
		uploaded, err := s.UploadImage(ctx, img.Filename, img.Body)
		if err != nil {
			return nil, err
		}
		prod.ImageURL = uploaded.URL
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	return s.updateProduct(ctx, id, req, nil)
}

// UpdateProductWithImage applies req and replaces the product image with img.
func (s *CatalogService) UpdateProductWithImage(ctx context.Context, id uint, req transport.PatchProductRequest, img Upload) (*models.Product, error) {
	return s.updateProduct(ctx, id, req, &img)
}

func (s *CatalogService) updateProduct(ctx context.Context, id uint, req transport.PatchProductRequest, img *Upload) (*models.Product, error) {
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be > 0", ErrValidation)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if req.CategoryID != nil {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	var imageURL string
	if img != nil {
		if _, err := s.Repo.GetProduct(ctx, id); err != nil {
			return nil, mapRepoErr(err)
		}
		uploaded, err := s.UploadImage(ctx, img.Filename, img.Body)
		if err != nil {
			return nil, err
		}
		imageURL = uploaded.URL
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, func(p *models.Product) error {
		if imageURL != "" {
			p.ImageURL = imageURL
		}
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Price != nil {
			p.Price = req.Price.Round(2)
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		if req.CategoryID != nil {
			p.CategoryID = *req.CategoryID
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	return mapRepoErr(s.Repo.DeleteProduct(ctx, id))
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return prod, nil
}

func (s *CatalogService) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListAllProducts(ctx)
}

func (s *CatalogService) ListProducts(ctx context.Context, q transport.ProductQuery) (*transport.ProductPage, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, fmt.Errorf("%w: minPrice is greater than maxPrice", ErrValidation)
	}
	offset, limit, page := util.Calculate(q.Page, q.Limit)

	total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		CategoryID: q.CategoryID,
		Search:     q.Search,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{Products: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *CatalogService) UploadImage(ctx context.Context, filename string, r io.Reader) (*imagestore.Image, error) {
	img, err := s.Images.Upload(ctx, filename, r)
	if err != nil {
		logging.FromContext(ctx).Error("image_upload_error", "svc", "catalog.upload_image", "filename", filename, "error", err)
		return nil, err
	}
	return img, nil
}

// SetProductImage uploads the image and points the product at it. The
// product is checked first so a bad id never reaches the asset host.
func (s *CatalogService) SetProductImage(ctx context.Context, id uint, filename string, r io.Reader) (*models.Product, error) {
	if _, err := s.Repo.GetProduct(ctx, id); err != nil {
		return nil, mapRepoErr(err)
	}
	img, err := s.UploadImage(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetProductImage(ctx, id, img.URL); err != nil {
		return nil, mapRepoErr(err)
	}
	return s.GetProduct(ctx, id)
}
