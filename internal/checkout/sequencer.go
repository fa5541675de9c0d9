package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
)

// maxAttempts covers the first run plus one retry after a lost stock race.
const maxAttempts = 2

type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Carts interface {
	// LoadCart returns (nil, nil) when the user has no cart.
	LoadCart(ctx context.Context, userID uint, lock bool) (*models.Cart, error)
	DeleteCartItems(ctx context.Context, cartID uint, itemIDs []uint) (int64, error)
}

type Stock interface {
	ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	// DecrementStock reports false when stock < qty at update time.
	DecrementStock(ctx context.Context, productID uint, qty int) (bool, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, order *models.Order) error
}

type Recorder interface {
	ObserveCheckout(outcome string)
	ObserveCheckoutRetry()
}

type Deps struct {
	Tx     Transactor
	Carts  Carts
	Stock  Stock
	Orders Orders

	// LockCart takes a row lock on the cart. Only dialects with
	// SELECT ... FOR UPDATE support it.
	LockCart bool
	Metrics  Recorder
	// OnState, if set, sees every state an attempt passes through.
	OnState func(State)
}

type Sequencer struct {
	d Deps
}

func New(d Deps) *Sequencer {
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	return &Sequencer{d: d}
}

// Checkout turns userID's cart into a pending order. Either the order, its
// items, every stock decrement and the cart drain commit together, or
// nothing changes.
func (s *Sequencer) Checkout(ctx context.Context, userID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", userID)

	var race *raceError
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			s.d.Metrics.ObserveCheckoutRetry()
			l.Info("checkout_retry", "attempt", attempt, "reason", race.Error())
		}

		order, err := s.attempt(ctx, userID)
		if err == nil {
			s.d.Metrics.ObserveCheckout(Outcome(nil))
			l.Info("checkout_committed", "order_id", order.ID, "lines", len(order.Items), "total", order.Total.String())
			return order, nil
		}
		if !errors.As(err, &race) {
			return nil, s.abort(l, err)
		}
	}
	return nil, s.abort(l, race.final())
}

func (s *Sequencer) abort(l *slog.Logger, err error) error {
	outcome := Outcome(err)
	s.d.Metrics.ObserveCheckout(outcome)
	if errors.Is(err, ErrStorage) {
		l.Error("checkout_aborted", "outcome", outcome, "error", err)
	} else {
		l.Warn("checkout_aborted", "outcome", outcome, "error", err)
	}
	return err
}

func (s *Sequencer) attempt(ctx context.Context, userID uint) (*models.Order, error) {
	s.enter(Started)

	var order *models.Order
	err := s.d.Tx.Transaction(ctx, func(ctx context.Context) error {
		cart, err := s.d.Carts.LoadCart(ctx, userID, s.d.LockCart)
		if err != nil {
			return storage("load cart", err)
		}
		if cart == nil || len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		s.enter(Validating)
		need, ids := aggregate(cart.Items)
		if err := s.validate(ctx, need, ids); err != nil {
			return err
		}

		s.enter(Materializing)
		order, err = s.materialize(ctx, userID, cart.Items, need, ids)
		if err != nil {
			return err
		}

		s.enter(Draining)
		return s.drain(ctx, cart)
	})
	if err != nil {
		s.enter(Aborted)
		return nil, classify(ctx, err)
	}

	s.enter(Committed)
	return order, nil
}

// aggregate sums quantities per product; lines of one product may differ
// only by price snapshot. ids come back ascending so every checkout takes
// product rows in the same order.
func aggregate(items []models.CartItem) (map[uint]int, []uint) {
	need := make(map[uint]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	ids := make([]uint, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return need, ids
}

func (s *Sequencer) validate(ctx context.Context, need map[uint]int, ids []uint) error {
	prods, err := s.d.Stock.ProductsByIDs(ctx, ids)
	if err != nil {
		return storage("read stock", err)
	}
	stock := make(map[uint]int, len(prods))
	for _, p := range prods {
		stock[p.ID] = p.Stock
	}

	var short []uint
	for _, id := range ids {
		have, ok := stock[id]
		if !ok || have < need[id] {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{ProductIDs: short}
	}
	return nil
}

func (s *Sequencer) materialize(ctx context.Context, userID uint, lines []models.CartItem, need map[uint]int, ids []uint) (*models.Order, error) {
	var lost []uint
	for _, id := range ids {
		ok, err := s.d.Stock.DecrementStock(ctx, id, need[id])
		if err != nil {
			return nil, storage("decrement stock", err)
		}
		if !ok {
			lost = append(lost, id)
		}
	}
	if len(lost) > 0 {
		return nil, &raceError{productIDs: lost}
	}

	order := &models.Order{
		UserID: userID,
		Status: models.OrderStatusPending,
		Total:  decimal.Zero,
		Items:  make([]models.OrderItem, 0, len(lines)),
	}
	for _, it := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtAdd,
		})
		order.Total = order.Total.Add(it.LineTotal())
	}

	if err := s.d.Orders.CreateOrder(ctx, order); err != nil {
		return nil, storage("create order", err)
	}
	return order, nil
}

func (s *Sequencer) drain(ctx context.Context, cart *models.Cart) error {
	ids := make([]uint, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ID)
	}
	n, err := s.d.Carts.DeleteCartItems(ctx, cart.ID, ids)
	if err != nil {
		return storage("drain cart", err)
	}
	if n != int64(len(ids)) {
		return &raceError{drain: true}
	}
	return nil
}

func (s *Sequencer) enter(st State) {
	if s.d.OnState != nil {
		s.d.OnState(st)
	}
}

// classify maps whatever ended the transaction onto the public error kinds.
func classify(ctx context.Context, err error) error {
	var race *raceError
	switch {
	case errors.As(err, &race):
		return race
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInsufficientStock):
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return &StorageError{Op: "transaction", Err: fmt.Errorf("%w: %v", ctxErr, err)}
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: "commit", Err: err}
}

func storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string) {}
func (nopRecorder) ObserveCheckoutRetry()  {}
