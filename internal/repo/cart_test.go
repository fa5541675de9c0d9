package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/testdb"
)

func TestCart_AddMergesOnSamePrice(t *testing.T) {
	db := testdb.New(t)
	r := repo.New(db)
	ctx := testdb.Ctx(t)

	cat := testdb.Category(t, db, "c")
	p := testdb.Product(t, db, cat.ID, "p", "10", 50)
	u := testdb.User(t, db, testdb.Email(), models.RoleCustomer)

	_, err := r.GetCart(ctx, u.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	first, err := r.AddItem(ctx, u.ID, p.ID, 2, dec("10"))
	require.NoError(t, err)
	merged, err := r.AddItem(ctx, u.ID, p.ID, 3, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	repriced, err := r.AddItem(ctx, u.ID, p.ID, 1, dec("12"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, repriced.ID)

	cart, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, dec("10").Equal(cart.Items[0].PriceAtAdd))
	assert.True(t, dec("12").Equal(cart.Items[1].PriceAtAdd))
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, "p", cart.Items[0].Product.Name)
	assert.EqualValues(t, 1, testdb.Count(t, db, &models.Cart{}))
}

func TestCart_ShowsSoftDeletedProducts(t *testing.T) {
	db := testdb.New(t)
	r := repo.New(db)
	ctx := testdb.Ctx(t)

	cat := testdb.Category(t, db, "c")
	p := testdb.Product(t, db, cat.ID, "retired", "1", 5)
	u := testdb.User(t, db, testdb.Email(), models.RoleCustomer)
	testdb.CartLine(t, db, u.ID, p.ID, 1, "1")
	require.NoError(t, r.DeleteProduct(ctx, p.ID))

	cart, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, "retired", cart.Items[0].Product.Name)
}

func TestCart_RemoveItemOwnership(t *testing.T) {
	db := testdb.New(t)
	r := repo.New(db)
	ctx := testdb.Ctx(t)

	cat := testdb.Category(t, db, "c")
	p := testdb.Product(t, db, cat.ID, "p", "1", 5)
	owner := testdb.User(t, db, testdb.Email(), models.RoleCustomer)
	other := testdb.User(t, db, testdb.Email(), models.RoleCustomer)
	item := testdb.CartLine(t, db, owner.ID, p.ID, 1, "1")

	assert.ErrorIs(t, r.RemoveItem(ctx, other.ID, item.ID), repo.ErrNotFound)
	require.NoError(t, r.RemoveItem(ctx, owner.ID, item.ID))
	assert.ErrorIs(t, r.RemoveItem(ctx, owner.ID, item.ID), repo.ErrNotFound)
}

func TestCheckoutStorage(t *testing.T) {
	db := testdb.New(t)
	r := repo.New(db)
	ctx := testdb.Ctx(t)

	cat := testdb.Category(t, db, "c")
	p := testdb.Product(t, db, cat.ID, "p", "2", 3)
	u := testdb.User(t, db, testdb.Email(), models.RoleCustomer)

	cart, err := r.LoadCart(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Nil(t, cart)

	a := testdb.CartLine(t, db, u.ID, p.ID, 1, "2")
	b := testdb.CartLine(t, db, u.ID, p.ID, 1, "1")

	cart, err = r.LoadCart(ctx, u.ID, false)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, a.ID, cart.Items[0].ID)

	ok, err := r.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.DecrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, testdb.Stock(t, db, p.ID))

	prods, err := r.ProductsByIDs(ctx, []uint{p.ID, 999})
	require.NoError(t, err)
	assert.Len(t, prods, 1)

	n, err := r.DeleteCartItems(ctx, cart.ID, []uint{a.ID, b.ID, 12345})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = r.DeleteCartItems(ctx, cart.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrders_Queries(t *testing.T) {
	db := testdb.New(t)
	r := repo.New(db)
	ctx := testdb.Ctx(t)

	cat := testdb.Category(t, db, "c")
	p := testdb.Product(t, db, cat.ID, "p", "2", 3)
	u := testdb.User(t, db, testdb.Email(), models.RoleCustomer)
	other := testdb.User(t, db, testdb.Email(), models.RoleCustomer)

	for _, uid := range []uint{u.ID, u.ID, other.ID} {
		require.NoError(t, r.CreateOrder(ctx, &models.Order{
			UserID: uid,
			Status: models.OrderStatusPending,
			Total:  dec("4"),
			Items:  []models.OrderItem{{ProductID: p.ID, Quantity: 2, PriceAtOrder: dec("2")}},
		}))
	}

	mine, err := r.ListOrdersByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Greater(t, mine[0].ID, mine[1].ID)
	require.Len(t, mine[0].Items, 1)
	require.NotNil(t, mine[0].Items[0].Product)

	got, err := r.GetOrderForUser(ctx, mine[0].ID, u.ID)
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(got.Total))

	_, err = r.GetOrderForUser(ctx, mine[0].ID, other.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	total, page, err := r.ListAllOrders(ctx, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 2)
}
