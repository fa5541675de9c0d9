package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_api/internal/service"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
	authmw "github.com/Skotchmaster/ecom_api/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.Get(ctx, userID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req transport.AddToCartRequest
	if err := bind(c, &req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	item, err := h.Svc.Add(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotFound):
			l.Warn("add_to_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", req.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return err
	}

	if err := h.Svc.Remove(ctx, userID, itemID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("remove_from_cart_error", "status", 404, "item_id", itemID)
			return echo.NewHTTPError(http.StatusNotFound, "item not found")
		}
		l.Error("remove_from_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("remove_from_cart_success", "item_id", itemID)
	return c.NoContent(http.StatusNoContent)
}
