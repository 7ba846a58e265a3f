package file

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/stall-orders/internal/domain"
)

func sampleOrders() []domain.Order {
	ts := time.Date(2024, 5, 1, 10, 30, 15, 123000000, time.UTC)
	return []domain.Order{
		{
			ID:            1,
			DisplayNumber: 1,
			Items: []domain.OrderItem{
				{ProductID: "A", Name: "Item A", UnitPrice: 100, Quantity: 2},
				{ProductID: "C", Name: "Item C", UnitPrice: 200, Quantity: 1},
			},
			Status:    domain.StatusInPreparation,
			Timestamp: ts,
		},
		{
			ID:            2,
			DisplayNumber: 2,
			Items:         []domain.OrderItem{{ProductID: "B", Name: "Item B", UnitPrice: 100, Quantity: 1}},
			Status:        domain.StatusReceived,
			Timestamp:     ts.Add(time.Minute),
			Cancelled:     true,
		},
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := NewOrderStore(filepath.Join(t.TempDir(), "orders.json"))

	orders, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	store := NewOrderStore(path)
	ctx := context.Background()

	want := sampleOrders()
	require.NoError(t, store.Save(ctx, want))

	got, err := NewOrderStore(path).Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].DisplayNumber, got[i].DisplayNumber)
		assert.Equal(t, want[i].Items, got[i].Items)
		assert.Equal(t, want[i].Status, got[i].Status)
		assert.Equal(t, want[i].Cancelled, got[i].Cancelled)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestSaveOverwritesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	store := NewOrderStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleOrders()))
	require.NoError(t, store.Save(ctx, sampleOrders()[:1]))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestPersistedLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, NewOrderStore(path).Save(context.Background(), sampleOrders()[1:]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": 2,
		"displayNumber": 2,
		"items": [{"id": "B", "name": "Item B", "price": 100, "quantity": 1}],
		"status": "received",
		"timestamp": "2024-05-01T10:31:15.123Z",
		"cancelled": true
	}]`, string(data))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewOrderStore(path).Load(context.Background())
	require.Error(t, err)
}

func TestSaveIntoMissingDirectoryFails(t *testing.T) {
	store := NewOrderStore(filepath.Join(t.TempDir(), "missing", "orders.json"))
	require.Error(t, store.Save(context.Background(), sampleOrders()))
}

func TestSavedFileIsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, NewOrderStore(path).Save(context.Background(), sampleOrders()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
