package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_api/internal/checkout"
	"github.com/Skotchmaster/ecom_api/internal/service"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/internal/util"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
	authmw "github.com/Skotchmaster/ecom_api/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Checkout(ctx, userID)
	if err != nil {
		var short *checkout.InsufficientStockError
		switch {
		case errors.As(err, &short):
			l.Warn("checkout_error", "status", 409, "reason", "insufficient stock", "product_ids", short.ProductIDs)
			return c.JSON(http.StatusConflict, transport.InsufficientStockResponse{
				Error:      "insufficient stock",
				ProductIDs: short.ProductIDs,
			})
		case errors.Is(err, checkout.ErrEmptyCart):
			l.Warn("checkout_error", "status", 400, "reason", "cart is empty")
			return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
		default:
			l.Error("checkout_error", "status", 503, "reason", "storage failure", "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "checkout temporarily unavailable, retry")
		}
	}

	l.Info("checkout_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, transport.CheckoutResponse{OrderID: order.ID, Order: order})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.List(ctx, userID)
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "order_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.ListAll(ctx, page, limit)
	if err != nil {
		l.Error("list_all_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, res)
}
