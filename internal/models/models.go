package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"

	OrderStatusPending = "pending"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"             json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                             json:"-"`
	Role         string    `gorm:"size:16;not null;default:customer"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                 json:"id"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"index;not null"             json:"user_id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"not null"                   json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"     json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null"        json:"name"`
	Description string    `gorm:"type:text"                json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"              json:"id"`
	Name        string          `gorm:"size:255;not null;index"               json:"name"`
	Description string          `gorm:"type:text"                             json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"           json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"   json:"stock"`
	ImageURL    string          `gorm:"size:1024"                             json:"image_url"`
	CategoryID  uint            `gorm:"index;not null"                        json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:RESTRICT"          json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"                                 json:"-"`
}

// Cart is created on the first add and kept after checkout drains it.
type Cart struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"     json:"user_id"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem.PriceAtAdd is written once and never re-derived from Product.Price.
type CartItem struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	CartID     uint            `gorm:"index;not null"                    json:"cart_id"`
	ProductID  uint            `gorm:"index;not null"                    json:"product_id"`
	Product    *Product        `json:"product,omitempty"`
	Quantity   int             `gorm:"not null;check:quantity >= 1"      json:"quantity"`
	PriceAtAdd decimal.Decimal `gorm:"type:decimal(12,2);not null"       json:"price_at_add"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.PriceAtAdd.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"             json:"id"`
	UserID    uint            `gorm:"index;not null"                       json:"user_id"`
	Status    string          `gorm:"size:32;not null;default:pending"     json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"          json:"total"`
	Items     []OrderItem     `gorm:"constraint:OnDelete:CASCADE"          json:"items"`
	CreatedAt time.Time       `gorm:"index"                                json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"       json:"id"`
	OrderID      uint            `gorm:"index;not null"                 json:"order_id"`
	ProductID    uint            `gorm:"index;not null"                 json:"product_id"`
	Product      *Product        `json:"product,omitempty"`
	Quantity     int             `gorm:"not null;check:quantity >= 1"      json:"quantity"`
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(12,2);not null"    json:"price_at_order"`
}

// All lists every table in migration order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
