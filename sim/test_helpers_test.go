package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	frozenRange  = TempRange{Min: -20, Max: -10}
	chilledRange = TempRange{Min: 0, Max: 5}
	ambientRange = TempRange{Min: 10, Max: 25}
)

// testWorld is a small fixture: warehouses W1 (ambient) and W2 (chilled),
// trucks T1 (ambient, at W1) and T2 (chilled, at W2), no goods.
func testWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld()
	require.NoError(t, w.RegisterWarehouse(&Warehouse{ID: "W1", Temp: ambientRange}))
	require.NoError(t, w.RegisterWarehouse(&Warehouse{ID: "W2", X: 1, Temp: chilledRange}))
	require.NoError(t, w.RegisterTruck(&Truck{ID: "T1", Temp: ambientRange}, "W1"))
	require.NoError(t, w.RegisterTruck(&Truck{ID: "T2", Temp: chilledRange}, "W2"))
	return w
}

// checkWorldInvariants fails the test if any goods item is at other than
// exactly one location, or any truck aggregate differs from the union of its cargo.
func checkWorldInvariants(t *testing.T, w *World) {
	t.Helper()
	seen := make(map[string]int)
	for _, loc := range append(w.TruckIDs(), w.WarehouseIDs()...) {
		goods, err := w.GoodsAt(loc)
		require.NoError(t, err)
		for _, g := range goods {
			seen[g.ID]++
		}
	}
	for _, id := range w.GoodsIDs() {
		if seen[id] != 1 {
			t.Errorf("goods %s found at %d locations, want 1", id, seen[id])
		}
	}
	for _, truckID := range w.TruckIDs() {
		goods, err := w.GoodsAt(truckID)
		require.NoError(t, err)
		want := make(CategorySet)
		for _, g := range goods {
			want.Add(g.Categories)
		}
		got, err := w.OnboardCategories(truckID)
		require.NoError(t, err)
		if got.String() != want.String() {
			t.Errorf("truck %s aggregate = %s, want %s", truckID, got, want)
		}
		if _, err := w.WarehouseOf(truckID); err != nil {
			t.Errorf("truck %s not docked: %v", truckID, err)
		}
	}
}
