package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/pkg/hash"
)

const PostgresEnv = "CHECKOUT_TEST_DATABASE_URL"

func config() *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// New opens a migrated sqlite database in a temp dir. One connection
// means concurrent transactions run one after another.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "shop.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), config())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Postgres connects to CHECKOUT_TEST_DATABASE_URL and truncates all tables,
// or skips the test when the variable is unset.
func Postgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skip(PostgresEnv + " is required for tests")
	}

	db, err := gorm.Open(postgres.Open(dsn), config())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	truncate := func() {
		db.Exec("TRUNCATE TABLE order_items, orders, cart_items, carts, products, categories, refresh_tokens, users RESTART IDENTITY CASCADE")
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func User(t testing.TB, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	pw, err := hash.HashPassword("Secret123")
	require.NoError(t, err)
	u := &models.User{Email: email, PasswordHash: pw, Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func Category(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()

	c := &models.Category{Name: name, Description: name + " goods"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func Product(t testing.TB, db *gorm.DB, categoryID uint, name, price string, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: categoryID,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CartLine puts a line straight into userID's cart with a fixed snapshot.
func CartLine(t testing.TB, db *gorm.DB, userID, productID uint, qty int, priceAtAdd string) *models.CartItem {
	t.Helper()

	cart := models.Cart{UserID: userID}
	require.NoError(t, db.Where("user_id = ?", userID).FirstOrCreate(&cart).Error)

	item := &models.CartItem{
		CartID:     cart.ID,
		ProductID:  productID,
		Quantity:   qty,
		PriceAtAdd: decimal.RequireFromString(priceAtAdd),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.Unscoped().First(&p, productID).Error)
	return p.Stock
}

func Count(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func Ctx(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func Email() string {
	return fmt.Sprintf("u_%s@example.com", uuid.NewString())
}
