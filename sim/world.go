package sim

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/samber/oops"
)

// Location is where a goods item currently is: on a truck or in a warehouse.
type Location struct {
	Kind OriginKind
	ID   string
}

// World is the authoritative location assignment for every goods item and
// truck, plus the entity records themselves.
//
// Invariants, held after every mutator returns:
//   - each registered goods id is in exactly one of goodsInTruck / goodsInWarehouse
//   - each registered truck id has exactly one dock in truckDock
//   - onboard[truck] is the union of categories of the goods in goodsInTruck for that truck
//
// All methods are safe for concurrent use. Mutation is expected to come from the
// single simulation goroutine; readers on other goroutines should prefer Snapshot.
type World struct {
	mu sync.RWMutex

	goods      map[string]*Goods
	trucks     map[string]*Truck
	warehouses map[string]*Warehouse

	// warehouseOrder keeps creation order; the first entry is the default warehouse.
	warehouseOrder []string

	goodsInTruck     map[string]string // goods id -> truck id
	goodsInWarehouse map[string]string // goods id -> warehouse id
	truckDock        map[string]string // truck id -> warehouse id

	occupants map[string]map[string]struct{} // location id -> goods ids
	onboard   map[string]CategorySet         // truck id -> onboard-category aggregate
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{
		goods:            make(map[string]*Goods),
		trucks:           make(map[string]*Truck),
		warehouses:       make(map[string]*Warehouse),
		goodsInTruck:     make(map[string]string),
		goodsInWarehouse: make(map[string]string),
		truckDock:        make(map[string]string),
		occupants:        make(map[string]map[string]struct{}),
		onboard:          make(map[string]CategorySet),
	}
}

func (w *World) idTaken(id string) bool {
	_, g := w.goods[id]
	_, t := w.trucks[id]
	_, wh := w.warehouses[id]
	return g || t || wh
}

func duplicateEntity(kind, id string) error {
	return oops.Code("DUPLICATE_ENTITY").With("kind", kind).With("id", id).Errorf("%s %q already registered", kind, id)
}

// RegisterWarehouse adds a warehouse. Ids are unique across all entity kinds.
func (w *World) RegisterWarehouse(wh *Warehouse) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.idTaken(wh.ID) {
		return duplicateEntity("warehouse", wh.ID)
	}
	w.warehouses[wh.ID] = wh
	w.warehouseOrder = append(w.warehouseOrder, wh.ID)
	w.occupants[wh.ID] = make(map[string]struct{})
	return nil
}

// RegisterTruck adds an empty truck docked at warehouseID.
func (w *World) RegisterTruck(t *Truck, warehouseID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.idTaken(t.ID) {
		return duplicateEntity("truck", t.ID)
	}
	if _, ok := w.warehouses[warehouseID]; !ok {
		return unknownEntity("warehouse", warehouseID)
	}
	w.trucks[t.ID] = t
	w.truckDock[t.ID] = warehouseID
	w.occupants[t.ID] = make(map[string]struct{})
	w.onboard[t.ID] = make(CategorySet)
	return nil
}

// RegisterGoods adds goods at locationID, which may be a truck or a warehouse.
func (w *World) RegisterGoods(g *Goods, locationID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.idTaken(g.ID) {
		return duplicateEntity("goods", g.ID)
	}
	_, isTruck := w.trucks[locationID]
	_, isWarehouse := w.warehouses[locationID]
	if !isTruck && !isWarehouse {
		return unknownEntity("location", locationID)
	}
	w.goods[g.ID] = g
	if isTruck {
		w.placeOnTruck(g, locationID)
	} else {
		w.placeInWarehouse(g.ID, locationID)
	}
	return nil
}

// PlaceGoods registers g in a warehouse chosen uniformly from those whose
// temperature control is compatible with g (all warehouses when enforceTemp is
// false). With no compatible warehouse g goes to the first created warehouse and
// fallback is true. A nil rng picks the first candidate in creation order.
func (w *World) PlaceGoods(g *Goods, enforceTemp bool, rng *rand.Rand) (warehouseID string, fallback bool, err error) {
	w.mu.RLock()
	if len(w.warehouseOrder) == 0 {
		w.mu.RUnlock()
		return "", false, invalidConfig("no warehouses registered")
	}
	candidates := make([]string, 0, len(w.warehouseOrder))
	for _, id := range w.warehouseOrder {
		if !enforceTemp || TemperatureCompatible(g.Temp, w.warehouses[id].Temp) {
			candidates = append(candidates, id)
		}
	}
	def := w.warehouseOrder[0]
	w.mu.RUnlock()

	choice, ok := chooseUniform(rng, candidates)
	if !ok {
		choice, fallback = def, true
	}
	if err := w.RegisterGoods(g, choice); err != nil {
		return "", false, err
	}
	return choice, fallback, nil
}

// DefaultWarehouse returns the first created warehouse, or "" if none exist.
func (w *World) DefaultWarehouse() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.warehouseOrder) == 0 {
		return ""
	}
	return w.warehouseOrder[0]
}

// AssignGoodsToWarehouse moves goods into a warehouse, dropping any prior assignment.
func (w *World) AssignGoodsToWarehouse(goodsID, warehouseID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.goods[goodsID]; !ok {
		return unknownEntity("goods", goodsID)
	}
	if _, ok := w.warehouses[warehouseID]; !ok {
		return unknownEntity("warehouse", warehouseID)
	}
	w.unassign(goodsID)
	w.placeInWarehouse(goodsID, warehouseID)
	return nil
}

// AssignGoodsToTruck moves goods onto a truck, dropping any prior assignment,
// and folds the goods' categories into the truck's onboard aggregate.
func (w *World) AssignGoodsToTruck(goodsID, truckID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	g, ok := w.goods[goodsID]
	if !ok {
		return unknownEntity("goods", goodsID)
	}
	if _, ok := w.trucks[truckID]; !ok {
		return unknownEntity("truck", truckID)
	}
	w.unassign(goodsID)
	w.placeOnTruck(g, truckID)
	return nil
}

// MoveTruck docks a truck at a warehouse. Its cargo moves with it.
func (w *World) MoveTruck(truckID, warehouseID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.trucks[truckID]; !ok {
		return unknownEntity("truck", truckID)
	}
	if _, ok := w.warehouses[warehouseID]; !ok {
		return unknownEntity("warehouse", warehouseID)
	}
	w.truckDock[truckID] = warehouseID
	return nil
}

// unassign removes goods from wherever they are. Leaving a truck recomputes
// that truck's aggregate from what is still on board. Caller holds the write lock.
func (w *World) unassign(goodsID string) {
	if truckID, ok := w.goodsInTruck[goodsID]; ok {
		delete(w.goodsInTruck, goodsID)
		delete(w.occupants[truckID], goodsID)
		agg := make(CategorySet)
		for id := range w.occupants[truckID] {
			agg.Add(w.goods[id].Categories)
		}
		w.onboard[truckID] = agg
	}
	if warehouseID, ok := w.goodsInWarehouse[goodsID]; ok {
		delete(w.goodsInWarehouse, goodsID)
		delete(w.occupants[warehouseID], goodsID)
	}
}

func (w *World) placeInWarehouse(goodsID, warehouseID string) {
	w.goodsInWarehouse[goodsID] = warehouseID
	w.occupants[warehouseID][goodsID] = struct{}{}
}

func (w *World) placeOnTruck(g *Goods, truckID string) {
	w.goodsInTruck[g.ID] = truckID
	w.occupants[truckID][g.ID] = struct{}{}
	w.onboard[truckID].Add(g.Categories)
}

// LocationOf returns where goods currently are.
func (w *World) LocationOf(goodsID string) (Location, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id, ok := w.goodsInTruck[goodsID]; ok {
		return Location{Kind: OriginTruck, ID: id}, nil
	}
	if id, ok := w.goodsInWarehouse[goodsID]; ok {
		return Location{Kind: OriginWarehouse, ID: id}, nil
	}
	return Location{}, unknownEntity("goods", goodsID)
}

// WarehouseOf returns the warehouse a truck is docked at.
func (w *World) WarehouseOf(truckID string) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.truckDock[truckID]
	if !ok {
		return "", unknownEntity("truck", truckID)
	}
	return id, nil
}

// GoodsAt returns the goods currently at a truck or warehouse, sorted by id.
func (w *World) GoodsAt(locationID string) ([]*Goods, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	occ, ok := w.occupants[locationID]
	if !ok {
		return nil, unknownEntity("location", locationID)
	}
	return w.sortedGoods(occ), nil
}

func (w *World) sortedGoods(occ map[string]struct{}) []*Goods {
	out := make([]*Goods, 0, len(occ))
	for id := range occ {
		out = append(out, w.goods[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OnboardCategories returns a copy of the truck's onboard-category aggregate.
func (w *World) OnboardCategories(truckID string) (CategorySet, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	agg, ok := w.onboard[truckID]
	if !ok {
		return nil, unknownEntity("truck", truckID)
	}
	return agg.Clone(), nil
}

// Goods returns the goods record for id.
func (w *World) Goods(id string) (*Goods, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	g, ok := w.goods[id]
	if !ok {
		return nil, unknownEntity("goods", id)
	}
	return g, nil
}

// Truck returns the truck record for id.
func (w *World) Truck(id string) (*Truck, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.trucks[id]
	if !ok {
		return nil, unknownEntity("truck", id)
	}
	return t, nil
}

// Warehouse returns the warehouse record for id.
func (w *World) Warehouse(id string) (*Warehouse, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	wh, ok := w.warehouses[id]
	if !ok {
		return nil, unknownEntity("warehouse", id)
	}
	return wh, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GoodsIDs returns every goods id, sorted.
func (w *World) GoodsIDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.goods)
}

// TruckIDs returns every truck id, sorted.
func (w *World) TruckIDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.trucks)
}

// WarehouseIDs returns every warehouse id, sorted.
func (w *World) WarehouseIDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.warehouses)
}

// GoodsOnTrucks returns the ids of goods currently loaded on any truck, sorted.
func (w *World) GoodsOnTrucks() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.goodsInTruck)
}

// GoodsInWarehouses returns the ids of goods currently in any warehouse, sorted.
func (w *World) GoodsInWarehouses() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return sortedKeys(w.goodsInWarehouse)
}

// TrucksAt returns the trucks docked at warehouseID, sorted.
func (w *World) TrucksAt(warehouseID string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []string
	for truckID, dock := range w.truckDock {
		if dock == warehouseID {
			out = append(out, truckID)
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot is an immutable occupancy view of the world at one instant.
type Snapshot struct {
	Tick      int64
	occupants map[string][]*Goods
}

// Snapshot copies the current occupancy of every location.
func (w *World) Snapshot(tick int64) *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	occ := make(map[string][]*Goods, len(w.occupants))
	for loc, ids := range w.occupants {
		occ[loc] = w.sortedGoods(ids)
	}
	return &Snapshot{Tick: tick, occupants: occ}
}

// GoodsAt returns the goods at locationID when the snapshot was taken.
func (s *Snapshot) GoodsAt(locationID string) ([]*Goods, error) {
	goods, ok := s.occupants[locationID]
	if !ok {
		return nil, unknownEntity("location", locationID)
	}
	return goods, nil
}

// chooseUniform picks one candidate uniformly at random. ok is false when
// there are no candidates. A nil rng returns the first candidate.
func chooseUniform(rng *rand.Rand, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if rng == nil {
		return candidates[0], true
	}
	return candidates[rng.Intn(len(candidates))], true
}
