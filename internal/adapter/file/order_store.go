package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
	"github.com/YelzhanWeb/stall-orders/internal/interfaces"
)

type orderStore struct {
	path string
}

// NewOrderStore keeps the whole order list as one pretty-printed JSON array.
func NewOrderStore(path string) interfaces.OrderStore {
	return &orderStore{path: path}
}

func (s *orderStore) Load(_ context.Context) ([]domain.Order, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse orders file: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

const fileMode os.FileMode = 0o644

// Save overwrites the file. It writes a sibling temp file and renames it so a
// crash mid-write never leaves half a document behind.
func (s *orderStore) Save(_ context.Context, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// CreateTemp opens 0600; the data file stays readable like a plain write
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write orders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace orders file: %w", err)
	}
	return nil
}

func (s *orderStore) Close() error {
	return nil
}
