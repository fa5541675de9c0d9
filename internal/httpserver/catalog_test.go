package httpserver

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/pkg/imagestore"
)

func TestCatalogAdminFlow(t *testing.T) {
	s := newTestServer(t, nil)
	_, admin := s.user(t, models.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/categories", echo.Map{"description": "no name"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/categories", echo.Map{"name": "Books", "description": "paper"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decode[models.Category](t, rec)
	catPath := "/api/categories/" + strconv.FormatUint(uint64(cat.ID), 10)

	rec = s.do(t, http.MethodPut, catPath, echo.Map{"description": "paper and ink"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Books", decode[models.Category](t, rec).Name)

	rec = s.do(t, http.MethodPost, "/api/products", echo.Map{"name": "Novel", "price": "0", "stock": 1, "category_id": cat.ID}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/products", echo.Map{"name": "Novel", "price": "9.99", "stock": 1, "category_id": 999}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/products", echo.Map{"name": "Novel", "description": "a story", "price": "9.99", "stock": 4, "category_id": cat.ID}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prod := decode[models.Product](t, rec)
	assert.True(t, decimal.RequireFromString("9.99").Equal(prod.Price))
	prodPath := "/api/products/" + strconv.FormatUint(uint64(prod.ID), 10)

	rec = s.do(t, http.MethodPut, prodPath, echo.Map{"stock": 12}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 12, decode[models.Product](t, rec).Stock)

	rec = s.do(t, http.MethodPut, "/api/products/999", echo.Map{"stock": 1}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPut, "/api/products/abc", echo.Map{"stock": 1}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, catPath, nil, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, prodPath, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Product](t, rec)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Books", got.Category.Name)

	rec = s.do(t, http.MethodGet, "/api/products", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = s.do(t, http.MethodDelete, prodPath, nil, admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, prodPath, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts_Query(t *testing.T) {
	s := newTestServer(t, nil)
	_, admin := s.user(t, models.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/categories", echo.Map{"name": "Toys"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	toys := decode[models.Category](t, rec)
	rec = s.do(t, http.MethodPost, "/api/categories", echo.Map{"name": "Tools"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	tools := decode[models.Category](t, rec)

	for _, p := range []struct {
		name  string
		price string
		cat   uint
	}{
		{"Red Car", "15", toys.ID},
		{"Blue Car", "25", toys.ID},
		{"Car Jack", "80", tools.ID},
		{"Hammer", "30", tools.ID},
	} {
		rec := s.do(t, http.MethodPost, "/api/products", echo.Map{"name": p.name, "price": p.price, "stock": 1, "category_id": p.cat}, admin)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/products/list?search=CAR&minPrice=20&limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[transport.ProductPage](t, rec)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Blue Car", page.Products[0].Name)

	rec = s.do(t, http.MethodGet, "/api/products/list?categoryId="+strconv.FormatUint(uint64(tools.ID), 10)+"&maxPrice=50", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[transport.ProductPage](t, rec)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 10, page.Limit)

	for _, bad := range []string{"minPrice=abc", "maxPrice=-1", "categoryId=x", "minPrice=50&maxPrice=10"} {
		rec = s.do(t, http.MethodGet, "/api/products/list?"+bad, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestImages(t *testing.T) {
	s := newTestServer(t, nil)
	_, admin := s.user(t, models.RoleAdmin)
	_, customer := s.user(t, models.RoleCustomer)

	rec := s.upload(t, "/api/upload-image", "cat.png", []byte("png"), admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	img := decode[imagestore.Image](t, rec)
	assert.Equal(t, "https://cdn.example/cat.png", img.URL)
	assert.Equal(t, "ecom/cat.png", img.PublicID)

	rec = s.upload(t, "/api/upload-image", "cat.png", []byte("png"), customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/upload-image", echo.Map{}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/categories", echo.Map{"name": "c"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[models.Category](t, rec)
	rec = s.do(t, http.MethodPost, "/api/products", echo.Map{"name": "p", "price": "1", "stock": 1, "category_id": cat.ID}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	prod := decode[models.Product](t, rec)

	rec = s.upload(t, "/api/products/"+strconv.FormatUint(uint64(prod.ID), 10)+"/image", "p.jpg", []byte("jpg"), admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn.example/p.jpg", decode[models.Product](t, rec).ImageURL)

	rec = s.upload(t, "/api/products/999/image", "p.jpg", []byte("jpg"), admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.catalog.Images = imagestore.Disabled{}
	rec = s.upload(t, "/api/upload-image", "cat.png", []byte("png"), admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProductMultipartWithImage(t *testing.T) {
	s := newTestServer(t, nil)
	_, admin := s.user(t, models.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/api/categories", echo.Map{"name": "c"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	catID := strconv.FormatUint(uint64(decode[models.Category](t, rec).ID), 10)

	rec = s.form(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Kite", "description": "red", "price": "12.50", "stock": "4", "category_id": catID,
	}, "kite.png", []byte("png"), admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	prod := decode[models.Product](t, rec)
	assert.Equal(t, "Kite", prod.Name)
	assert.Equal(t, 4, prod.Stock)
	assert.True(t, decimal.RequireFromString("12.5").Equal(prod.Price))
	assert.Equal(t, "https://cdn.example/kite.png", prod.ImageURL)

	rec = s.form(t, http.MethodPost, "/api/products", map[string]string{
		"name": "NoImage", "price": "1", "category_id": catID,
	}, "", nil, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, decode[models.Product](t, rec).ImageURL)

	rec = s.form(t, http.MethodPost, "/api/products", map[string]string{
		"name": "Bad", "price": "1", "stock": "many", "category_id": catID,
	}, "", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/api/products/" + strconv.FormatUint(uint64(prod.ID), 10)
	rec = s.form(t, http.MethodPut, path, map[string]string{"price": "15"}, "kite2.png", []byte("png"), admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	upd := decode[models.Product](t, rec)
	assert.True(t, decimal.NewFromInt(15).Equal(upd.Price))
	assert.Equal(t, "Kite", upd.Name)
	assert.Equal(t, 4, upd.Stock)
	assert.Equal(t, "https://cdn.example/kite2.png", upd.ImageURL)

	s.catalog.Images = imagestore.Disabled{}
	rec = s.form(t, http.MethodPut, path, map[string]string{"name": "Other"}, "kite3.png", []byte("png"), admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
