package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_api/internal/models"
)

type SignupRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	AccessExp    time.Time `json:"expires_at"`
	RefreshExp   time.Time `json:"-"`
	Role         string    `json:"role"`
}

// CategoryRequest fields left empty keep their stored value on update.
type CategoryRequest struct {
	Name        string `json:"name"        validate:"max=255"`
	Description string `json:"description"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"       validate:"min=0"`
	CategoryID  uint            `json:"category_id" validate:"required"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"       validate:"omitempty,min=0"`
	CategoryID  *uint            `json:"category_id" validate:"omitempty,min=1"`
}

type ProductQuery struct {
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	CategoryID *uint
	Search     string
	Page       int
	Limit      int
}

type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"required,min=1"`
}

type CartResponse struct {
	Items []models.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type CheckoutResponse struct {
	OrderID uint          `json:"orderId"`
	Order   *models.Order `json:"order"`
}

type InsufficientStockResponse struct {
	Error      string `json:"error"`
	ProductIDs []uint `json:"product_ids"`
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}
