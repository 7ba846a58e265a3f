package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

const schema = `
	CREATE TABLE IF NOT EXISTS stall_orders (
		id         INTEGER PRIMARY KEY,
		document   JSONB   NOT NULL,
		saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type orderStore struct {
	db DB
}

// NewOrderStore keeps each order as a JSONB document. Save replaces the whole
// table inside one transaction, so readers see either the old or the new list.
func NewOrderStore(ctx context.Context, db DB) (interfaces.OrderStore, error) {
	if err := db.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &orderStore{db: db}, nil
}

func (s *orderStore) Load(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, `SELECT document FROM stall_orders ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		var order domain.Order
		if err := json.Unmarshal(doc, &order); err != nil {
			return nil, fmt.Errorf("failed to decode order document: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}

func (s *orderStore) Save(ctx context.Context, orders []domain.Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.Exec(ctx, `DELETE FROM stall_orders`); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}

	batch := &pgx.Batch{}
	for _, order := range orders {
		doc, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("failed to encode order %d: %w", order.ID, err)
		}
		batch.Queue(`INSERT INTO stall_orders (id, document) VALUES ($1, $2)`, order.ID, doc)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert orders: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit orders: %w", err)
	}
	return nil
}

func (s *orderStore) Close() error {
	s.db.Close()
	return nil
}
