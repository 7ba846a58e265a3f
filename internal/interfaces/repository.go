package interfaces

import (
	"context"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

// OrderStore persists the whole order list. There are no incremental writes:
// every Save replaces what Load would return.
type OrderStore interface {
	Load(ctx context.Context) ([]domain.Order, error)
	Save(ctx context.Context, orders []domain.Order) error
	Close() error
}
