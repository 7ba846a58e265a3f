package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/stall-orders/internal/adapter/logger"
	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

const DefaultSaveTimeout = 5 * time.Second

// Service owns the order list and its counters. It is not safe for concurrent
// use: the hub calls it from its single event loop.
type Service struct {
	store  interfaces.OrderStore
	logger logger.Logger
	policy domain.TransitionPolicy
	now    func() time.Time

	// bounds each save so a stalled backend cannot hold the hub loop
	saveTimeout time.Duration

	orders        []*domain.Order
	byID          map[int]*domain.Order
	nextID        int
	displayNumber int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(s *Service) { s.saveTimeout = d }
}

func WithTransitionPolicy(p domain.TransitionPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// New loads the persisted list and seeds the counters from it.
func New(ctx context.Context, store interfaces.OrderStore, logger logger.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		store:  store,
		logger: logger,
		policy: domain.PolicyStrict,
		now:    time.Now,

		saveTimeout: DefaultSaveTimeout,
		byID:   make(map[int]*domain.Order),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	for i := range loaded {
		o := loaded[i].Clone()
		if _, dup := s.byID[o.ID]; dup {
			return nil, fmt.Errorf("duplicate order id %d in persisted data", o.ID)
		}
		s.orders = append(s.orders, &o)
		s.byID[o.ID] = &o
		if o.ID >= s.nextID {
			s.nextID = o.ID + 1
		}
		if o.DisplayNumber > s.displayNumber {
			s.displayNumber = o.DisplayNumber
		}
	}

	s.logger.Info("orders_loaded", fmt.Sprintf("Loaded %d orders", len(s.orders)), "", map[string]interface{}{
		"next_id":        s.nextID,
		"display_number": s.displayNumber,
	})

	return s, nil
}

func (s *Service) Create(items []domain.OrderItem) (domain.Order, error) {
	if err := domain.ValidateItems(items); err != nil {
		return domain.Order{}, err
	}

	display := domain.NextDisplayNumber(s.displayNumber)
	order, err := domain.NewOrder(s.nextID, display, items, s.now())
	if err != nil {
		return domain.Order{}, err
	}

	// Номер ещё висит на табло у активного заказа: не блокируем, только предупреждаем
	if holder := s.activeHolder(display); holder != nil {
		s.logger.Warn("display_number_collision", fmt.Sprintf("Display number %02d reused while order %d is active", display, holder.ID), "", map[string]interface{}{
			"display_number": display,
			"active_order":   holder.ID,
			"new_order":      order.ID,
		})
	}

	s.displayNumber = display
	s.nextID++
	s.orders = append(s.orders, order)
	s.byID[order.ID] = order

	s.persist()

	s.logger.Debug("order_created", fmt.Sprintf("Order %d created", order.ID), "", map[string]interface{}{
		"order_id":       order.ID,
		"display_number": order.DisplayNumber,
		"total":          order.Total(),
	})

	return order.Clone(), nil
}

func (s *Service) AdvanceStatus(orderID int, status domain.Status) (domain.Order, error) {
	order, ok := s.byID[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: id %d", domain.ErrNotFound, orderID)
	}

	if err := order.TransitionTo(status, s.policy); err != nil {
		return domain.Order{}, err
	}

	s.persist()

	return order.Clone(), nil
}

// Cancel always re-persists, even when the order was already cancelled.
func (s *Service) Cancel(orderID int) (domain.Order, error) {
	order, ok := s.byID[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: id %d", domain.ErrNotFound, orderID)
	}

	order.Cancel()
	s.persist()

	return order.Clone(), nil
}

// Orders returns a copy of the list in creation order
func (s *Service) Orders() []domain.Order {
	out := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

func (s *Service) activeHolder(display int) *domain.Order {
	for _, o := range s.orders {
		if o.DisplayNumber == display && o.IsActive() {
			return o
		}
	}
	return nil
}

// persist writes the full list. Failures leave memory ahead of disk.
func (s *Service) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	if err := s.store.Save(ctx, s.Orders()); err != nil {
		s.logger.Error("persist_failed", "Failed to save orders", "", map[string]interface{}{
			"orders": len(s.orders),
		}, err)
	}
}

// IsSilent reports whether err is one of the outcomes the hub drops without a reply.
func IsSilent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNoOp) || errors.Is(err, domain.ErrValidation)
}
