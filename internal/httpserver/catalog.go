package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/service"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/internal/util"
	"github.com/Skotchmaster/ecom_api/pkg/imagestore"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

// catalogError maps service errors onto responses and logs them at the
// level the status deserves.
func catalogError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, "category still has products")
	case errors.Is(err, imagestore.ErrNotConfigured):
		l.Error(event, "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "image storage is not configured")
	case errors.Is(err, imagestore.ErrUpload):
		l.Error(event, "status", 502, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "image upload failed")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	var req transport.CategoryRequest
	if err := bind(c, &req); err != nil {
		l.Warn("category_create_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return catalogError(l, "category_create_error", err)
	}
	l.Info("category_create_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return catalogError(l, "category_list_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.update")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := bind(c, &req); err != nil {
		l.Warn("category_update_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return catalogError(l, "category_update_error", err)
	}
	l.Info("category_update_success", "category_id", id)
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return catalogError(l, "category_delete_error", err)
	}
	l.Info("category_delete_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var (
		req  transport.CreateProductRequest
		prod *models.Product
		err  error
	)
	if !isMultipart(c) {
		if err := bind(c, &req); err != nil {
			l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
			return err
		}
		prod, err = h.Svc.CreateProduct(ctx, req)
	} else {
		if err := bindCreateForm(c, &req); err != nil {
			l.Warn("product_create_error", "status", 400, "reason", "invalid form", "error", err)
			return err
		}
		img, closeImg, ferr := formImage(c)
		if ferr != nil {
			l.Warn("product_create_error", "status", 400, "reason", "cannot read image", "error", ferr)
			return ferr
		}
		if img == nil {
			prod, err = h.Svc.CreateProduct(ctx, req)
		} else {
			prod, err = h.Svc.CreateProductWithImage(ctx, req, *img)
			closeImg()
		}
	}
	if err != nil {
		return catalogError(l, "product_create_error", err)
	}
	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var (
		req  transport.PatchProductRequest
		prod *models.Product
	)
	if !isMultipart(c) {
		if err := bind(c, &req); err != nil {
			l.Warn("product_update_error", "status", 400, "reason", "invalid body", "error", err)
			return err
		}
		prod, err = h.Svc.UpdateProduct(ctx, id, req)
	} else {
		if err := bindPatchForm(c, &req); err != nil {
			l.Warn("product_update_error", "status", 400, "reason", "invalid form", "error", err)
			return err
		}
		img, closeImg, ferr := formImage(c)
		if ferr != nil {
			l.Warn("product_update_error", "status", 400, "reason", "cannot read image", "error", ferr)
			return ferr
		}
		if img == nil {
			prod, err = h.Svc.UpdateProduct(ctx, id, req)
		} else {
			prod, err = h.Svc.UpdateProductWithImage(ctx, id, req, *img)
			closeImg()
		}
	}
	if err != nil {
		return catalogError(l, "product_update_error", err)
	}
	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return catalogError(l, "product_delete_error", err)
	}
	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	prod, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return catalogError(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) ListAllProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_all")

	prods, err := h.Svc.ListAllProducts(ctx)
	if err != nil {
		return catalogError(l, "list_all_products_error", err)
	}
	return c.JSON(http.StatusOK, prods)
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative number")
	}
	return &d, nil
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	q := transport.ProductQuery{
		Search: c.QueryParam("search"),
		Page:   util.ParseIntDefault(c.QueryParam("page"), 1),
		Limit:  util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	}
	var err error
	if q.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		l.Warn("list_products_error", "status", 400, "error", err)
		return err
	}
	if q.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		l.Warn("list_products_error", "status", 400, "error", err)
		return err
	}
	if raw := c.QueryParam("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			l.Warn("list_products_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "categoryId must be an integer")
		}
		cid := uint(id)
		q.CategoryID = &cid
	}

	page, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		return catalogError(l, "list_products_error", err)
	}
	l.Info("list_products_success", "total", page.Total)
	return c.JSON(http.StatusOK, page)
}

// UploadImage stores a multipart "image" file on the asset host.
func (h *CatalogHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image.upload")

	fh, err := c.FormFile("image")
	if err != nil {
		l.Warn("image_upload_error", "status", 400, "reason", "image file required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image file required")
	}
	f, err := fh.Open()
	if err != nil {
		l.Warn("image_upload_error", "status", 400, "reason", "cannot read image", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
	}
	defer f.Close()

	img, err := h.Svc.UploadImage(ctx, fh.Filename, f)
	if err != nil {
		return catalogError(l, "image_upload_error", err)
	}
	l.Info("image_upload_success", "public_id", img.PublicID)
	return c.JSON(http.StatusCreated, img)
}

func (h *CatalogHTTP) SetProductImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.set_image")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("image")
	if err != nil {
		l.Warn("product_image_error", "status", 400, "reason", "image file required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "image file required")
	}
	f, err := fh.Open()
	if err != nil {
		l.Warn("product_image_error", "status", 400, "reason", "cannot read image", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
	}
	defer f.Close()

	prod, err := h.Svc.SetProductImage(ctx, id, fh.Filename, f)
	if err != nil {
		return catalogError(l, "product_image_error", err)
	}
	l.Info("product_image_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formImage returns the optional "image" part of a multipart body. img is
// nil when the part is absent; closeImg must be called once it is consumed.
func formImage(c echo.Context) (img *service.Upload, closeImg func(), err error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read image")
	}
	return &service.Upload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

func bindCreateForm(c echo.Context, req *transport.CreateProductRequest) error {
	err := echo.FormFieldBinder(c).
		String("name", &req.Name).
		String("description", &req.Description).
		TextUnmarshaler("price", &req.Price).
		Int("stock", &req.Stock).
		Uint("category_id", &req.CategoryID).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	return validate(c, req)
}

// bindPatchForm sets only the fields present in the form, like a JSON patch.
func bindPatchForm(c echo.Context, req *transport.PatchProductRequest) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	has := func(key string) bool {
		_, ok := form.Value[key]
		return ok
	}

	b := echo.FormFieldBinder(c)
	if has("name") {
		req.Name = new(string)
		b.String("name", req.Name)
	}
	if has("description") {
		req.Description = new(string)
		b.String("description", req.Description)
	}
	if has("price") {
		req.Price = new(decimal.Decimal)
		b.TextUnmarshaler("price", req.Price)
	}
	if has("stock") {
		req.Stock = new(int)
		b.Int("stock", req.Stock)
	}
	if has("category_id") {
		req.CategoryID = new(uint)
		b.Uint("category_id", req.CategoryID)
	}
	if err := b.BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	return validate(c, req)
}
