// Defines the Goods, Truck and Warehouse records the simulation moves around,
// and the category and temperature vocabulary they are described with.

package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Category is a tag describing how goods must be handled.
type Category string

// Hazard classes, loosely following the UN dangerous-goods classes.
const (
	CatExplosive       Category = "explosive"
	CatGas             Category = "gas"
	CatFlammableLiquid Category = "flammable-liquid"
	CatFlammableSolid  Category = "flammable-solid"
	CatOxidizer        Category = "oxidizer"
	CatToxic           Category = "toxic"
	CatRadioactive     Category = "radioactive"
	CatCorrosive       Category = "corrosive"
	CatMiscHazard      Category = "misc-hazard"
)

// Handling classes.
const (
	CatFragile    Category = "fragile"
	CatPerishable Category = "perishable"
	CatEdible     Category = "edible"
	CatMedicinal  Category = "medicinal"
	CatBulky      Category = "bulky"
)

// Temperature classes. Every goods item, truck and warehouse belongs to exactly one.
const (
	CatFrozen  Category = "frozen"
	CatChilled Category = "chilled"
	CatAmbient Category = "ambient"
)

// HazardCategories lists every hazard class in declaration order.
var HazardCategories = []Category{
	CatExplosive, CatGas, CatFlammableLiquid, CatFlammableSolid, CatOxidizer,
	CatToxic, CatRadioactive, CatCorrosive, CatMiscHazard,
}

// HandlingCategories lists every handling class in declaration order.
var HandlingCategories = []Category{CatFragile, CatPerishable, CatEdible, CatMedicinal, CatBulky}

// TemperatureClasses lists the temperature classes in declaration order.
var TemperatureClasses = []Category{CatFrozen, CatChilled, CatAmbient}

var hazardSet = func() map[Category]bool {
	m := make(map[Category]bool, len(HazardCategories))
	for _, c := range HazardCategories {
		m[c] = true
	}
	return m
}()

// IsHazard reports whether c is a hazard class.
func IsHazard(c Category) bool {
	return hazardSet[c]
}

// TempRange is a closed temperature interval in degrees Celsius.
type TempRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r TempRange) String() string {
	return fmt.Sprintf("[%g,%g]", r.Min, r.Max)
}

// Contains reports whether v lies inside the closed interval.
func (r TempRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var classRanges = map[Category]TempRange{
	CatFrozen:  {Min: -20, Max: -10},
	CatChilled: {Min: 0, Max: 5},
	CatAmbient: {Min: 10, Max: 25},
}

// RangeForClass returns the control range of a temperature class.
// ok is false for categories that are not temperature classes.
func RangeForClass(c Category) (r TempRange, ok bool) {
	r, ok = classRanges[c]
	return r, ok
}

// CategorySet is an unordered set of categories.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cats ...Category) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is a member.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Add inserts every member of other into s.
func (s CategorySet) Add(other CategorySet) {
	for c := range other {
		s[c] = struct{}{}
	}
}

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (s CategorySet) Clone() CategorySet {
	out := make(CategorySet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s CategorySet) Sorted() []Category {
	out := make([]Category, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the members as sorted strings.
func (s CategorySet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, c := range sorted {
		out[i] = string(c)
	}
	return out
}

func (s CategorySet) String() string {
	return "{" + strings.Join(s.Strings(), ",") + "}"
}

// Goods is a tracked item. Its location is owned by World, not stored here.
type Goods struct {
	ID         string
	Categories CategorySet
	Temp       TempRange       // temperature tolerance
	Hazardous  bool            // true when any category is a hazard class
	Tolerances map[Metric]Band // sensor tolerance per metric; missing metric = no constraint
}

// NewGoods builds a goods record, deriving the hazard flag and the tolerance
// bands from its categories and temperature range.
func NewGoods(id string, temp TempRange, cats ...Category) *Goods {
	set := NewCategorySet(cats...)
	hazardous := false
	for c := range set {
		if IsHazard(c) {
			hazardous = true
			break
		}
	}
	return &Goods{
		ID:         id,
		Categories: set,
		Temp:       temp,
		Hazardous:  hazardous,
		Tolerances: TolerancesFor(set, temp),
	}
}

// Truck carries goods between warehouses under a temperature control range.
type Truck struct {
	ID   string
	Temp TempRange
}

// Warehouse is a fixed grid location with a temperature control range.
type Warehouse struct {
	ID   string
	X, Y int
	Temp TempRange
}
