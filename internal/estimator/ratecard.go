// internal/estimator/ratecard.go
package estimator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

const (
	DefaultPricingVersion = "2025.1"
	DefaultCurrency       = "GBP"
	DefaultLocale         = "en-GB"
	DefaultBaseRatePerM2  = 50.0
	DefaultMinRoomFee     = 200.0
	DefaultTaxRate        = 0.20
)

// CostShares splits a pre-tax amount into categories. Shares must sum to 1.
type CostShares struct {
	Materials   float64 `json:"materials"`
	Labor       float64 `json:"labor"`
	Overhead    float64 `json:"overhead"`
	Contingency float64 `json:"contingency"`
}

func DefaultCostShares() CostShares {
	return CostShares{
		Materials:   0.45,
		Labor:       0.35,
		Overhead:    0.10,
		Contingency: 0.10,
	}
}

// RateCard is the full pricing configuration for one pricing version. It is
// built once and shared read-only; WithTable and the With* helpers return copies.
type RateCard struct {
	Version       string
	Currency      string
	Locale        string
	BaseRatePerM2 float64
	MinRoomFee    float64
	TaxRate       float64
	Shares        CostShares

	tables map[string]MultiplierTable
}

// DefaultRateCard returns a fresh copy of the built-in rate card.
func DefaultRateCard() *RateCard {
	card := &RateCard{
		Version:       DefaultPricingVersion,
		Currency:      DefaultCurrency,
		Locale:        DefaultLocale,
		BaseRatePerM2: DefaultBaseRatePerM2,
		MinRoomFee:    DefaultMinRoomFee,
		TaxRate:       DefaultTaxRate,
		Shares:        DefaultCostShares(),
		tables:        make(map[string]MultiplierTable, len(Categories)),
	}
	for _, t := range defaultTables() {
		card.tables[t.Category()] = t
	}
	return card
}

func defaultTables() []MultiplierTable {
	return []MultiplierTable{
		mustTable(CategoryLocation,
			Entry{"Urban Core", 1.3},
			Entry{"Urban", 1.2},
			Entry{"Suburban", 1.0},
			Entry{"Rural", 0.9},
			Entry{"Remote", 1.15},
		),
		mustTable(CategoryPropertyAge,
			Entry{"0-10 years", 1.0},
			Entry{"11-30 years", 1.05},
			Entry{"31-60 years", 1.15},
			Entry{"60+ years", 1.3},
			Entry{"Listed/Heritage", 1.5},
		),
		mustTable(CategoryPropertyType,
			Entry{"Apartment", 0.95},
			Entry{"Terraced House", 1.0},
			Entry{"Semi-Detached House", 1.05},
			Entry{"Detached House", 1.1},
			Entry{"Bungalow", 1.0},
			Entry{"Commercial", 1.25},
		),
		mustTable(CategoryCondition,
			Entry{"Excellent", 0.9},
			Entry{"Good", 1.0},
			Entry{"Fair", 1.15},
			Entry{"Poor", 1.35},
			Entry{"Derelict", 1.6},
		),
		mustTable(CategoryAccess,
			Entry{"Easy", 1.0},
			Entry{"Moderate", 1.08},
			Entry{"Difficult", 1.2},
			Entry{"Very Difficult", 1.35},
		),
		mustTable(CategoryUrgency,
			Entry{"Flexible", 0.95},
			Entry{"Standard", 1.0},
			Entry{"Priority", 1.15},
			Entry{"Emergency", 1.4},
		),
		mustTable(CategoryRoomType,
			Entry{"Kitchen", 1.5},
			Entry{"Bathroom", 1.6},
			Entry{"En-suite", 1.55},
			Entry{"Living Room", 1.0},
			Entry{"Bedroom", 0.9},
			Entry{"Dining Room", 0.95},
			Entry{"Hallway", 0.8},
			Entry{"Utility Room", 1.1},
			Entry{"Home Office", 0.95},
			Entry{"Loft Conversion", 1.8},
			Entry{"Basement", 1.7},
			Entry{"Garage", 0.85},
			Entry{EntirePropertyRoomType, 1.2},
		),
		mustTable(CategoryFloorFinish,
			Entry{"None", 1.0},
			Entry{"Carpet", 1.0},
			Entry{"Vinyl", 1.0},
			Entry{"Laminate", 1.05},
			Entry{"Engineered Wood", 1.1},
			Entry{"Ceramic Tile", 1.15},
			Entry{"Porcelain Tile", 1.2},
			Entry{"Solid Hardwood", 1.25},
			Entry{"Polished Concrete", 1.3},
			Entry{"Natural Stone", 1.35},
		),
		mustTable(CategoryWallFinish,
			Entry{"None", 1.0},
			Entry{"Paint", 1.0},
			Entry{"Wallpaper", 1.05},
			Entry{"Plaster Skim", 1.08},
			Entry{"Feature Wall", 1.1},
			Entry{"Tiles", 1.2},
			Entry{"Wood Panelling", 1.25},
		),
		mustTable(CategoryFurniture,
			Entry{DefaultFurniture, 1.0},
			Entry{"Basic", 1.15},
			Entry{"Mid-Range", 1.3},
			Entry{"Premium", 1.5},
			Entry{"Bespoke", 1.8},
		),
		mustTable(CategoryCeilingHeight,
			Entry{"Standard (2.4m)", 1.0},
			Entry{"High (2.7m)", 1.08},
			Entry{"Very High (3m+)", 1.18},
			Entry{"Vaulted", 1.25},
		),
	}
}

// Table returns the table for a category.
func (c *RateCard) Table(category string) (MultiplierTable, bool) {
	t, ok := c.tables[category]
	return t, ok
}

// Resolve looks a label up in the named table.
func (c *RateCard) Resolve(category, label string) (float64, error) {
	t, ok := c.tables[category]
	if !ok {
		return 0, &ConfigurationError{Category: category, Label: label}
	}
	return t.Resolve(label)
}

// WithTable returns a copy of the card with one table replaced.
func (c *RateCard) WithTable(t MultiplierTable) *RateCard {
	cp := *c
	cp.tables = make(map[string]MultiplierTable, len(c.tables))
	for k, v := range c.tables {
		cp.tables[k] = v
	}
	cp.tables[t.Category()] = t
	return &cp
}

// Validate checks scalar settings and that every category has a table.
func (c *RateCard) Validate() error {
	var errs []error
	if c.Version == "" {
		errs = append(errs, fmt.Errorf("version is required"))
	}
	if c.Currency == "" {
		errs = append(errs, fmt.Errorf("currency is required"))
	}
	if !(c.BaseRatePerM2 > 0) || math.IsInf(c.BaseRatePerM2, 0) {
		errs = append(errs, fmt.Errorf("baseRatePerM2 must be positive, got %v", c.BaseRatePerM2))
	}
	if !(c.MinRoomFee >= 0) || math.IsInf(c.MinRoomFee, 0) {
		errs = append(errs, fmt.Errorf("minRoomFee must not be negative, got %v", c.MinRoomFee))
	}
	if !(c.TaxRate >= 0) || math.IsInf(c.TaxRate, 0) {
		errs = append(errs, fmt.Errorf("taxRate must not be negative, got %v", c.TaxRate))
	}
	if err := c.Shares.validate(); err != nil {
		errs = append(errs, err)
	}
	for _, cat := range Categories {
		if t, ok := c.tables[cat]; !ok || t.Len() == 0 {
			errs = append(errs, fmt.Errorf("missing multiplier table %q", cat))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid rate card: %w", errors.Join(errs...))
	}
	return nil
}

func (s CostShares) validate() error {
	for name, v := range map[string]float64{
		CategoryMaterials: s.Materials,
		CategoryLabor:     s.Labor,
		CategoryOverhead:  s.Overhead,
	} {
		if !(v >= 0) {
			return fmt.Errorf("%s share must not be negative, got %v", name, v)
		}
	}
	if !(s.Contingency > 0) {
		return fmt.Errorf("contingency share must be positive, got %v", s.Contingency)
	}
	sum := s.Materials + s.Labor + s.Overhead + s.Contingency
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("cost shares must sum to 1, got %v", sum)
	}
	return nil
}

// CheckLabels resolves every label in the project and reports all misses at
// once. Each miss carries the field path of the offending label.
func (c *RateCard) CheckLabels(p ProjectInput) error {
	var errs []error
	check := func(field, category, label string) {
		if _, err := c.Resolve(category, label); err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				cfgErr.Field = field
			}
			errs = append(errs, err)
		}
	}
	optional := func(field, category, label string) {
		if label != "" {
			check(field, category, label)
		}
	}

	check("location", CategoryLocation, p.Location)
	check("propertyAge", CategoryPropertyAge, p.PropertyAge)
	optional("propertyType", CategoryPropertyType, p.PropertyType)
	optional("condition", CategoryCondition, p.Condition)
	optional("access", CategoryAccess, p.Access)
	optional("urgency", CategoryUrgency, p.Urgency)

	for i, r := range p.Rooms {
		field := func(name string) string {
			return fmt.Sprintf("rooms[%d].%s", i, name)
		}
		check(field("roomType"), CategoryRoomType, r.RoomType)
		check(field("floorFinish"), CategoryFloorFinish, r.FloorFinish)
		check(field("wallFinish"), CategoryWallFinish, r.WallFinish)
		check(field("furniture"), CategoryFurniture, furnitureOrDefault(r.Furniture))
		optional(field("ceilingHeight"), CategoryCeilingHeight, r.CeilingHeight)
	}
	return errors.Join(errs...)
}

type rateCardFile struct {
	Version       string             `json:"version"`
	Currency      string             `json:"currency"`
	Locale        string             `json:"locale"`
	BaseRatePerM2 float64            `json:"baseRatePerM2"`
	MinRoomFee    float64            `json:"minRoomFee"`
	TaxRate       float64            `json:"taxRate"`
	Shares        CostShares         `json:"shares"`
	Tables        map[string][]Entry `json:"tables"`
}

// ParseRateCard decodes a JSON rate card and validates it.
func ParseRateCard(data []byte) (*RateCard, error) {
	var f rateCardFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal rate card: %w", err)
	}

	card := &RateCard{
		Version:       f.Version,
		Currency:      f.Currency,
		Locale:        f.Locale,
		BaseRatePerM2: f.BaseRatePerM2,
		MinRoomFee:    f.MinRoomFee,
		TaxRate:       f.TaxRate,
		Shares:        f.Shares,
		tables:        make(map[string]MultiplierTable, len(f.Tables)),
	}
	if card.Locale == "" {
		card.Locale = DefaultLocale
	}
	for category, entries := range f.Tables {
		t, err := NewMultiplierTable(category, entries)
		if err != nil {
			return nil, err
		}
		card.tables[category] = t
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// LoadRateCard reads a rate card file. It is meant to be called once at startup.
func LoadRateCard(path string) (*RateCard, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate card: %w", err)
	}
	return ParseRateCard(b)
}

// MarshalJSON writes the card in the same layout ParseRateCard reads.
func (c *RateCard) MarshalJSON() ([]byte, error) {
	f := rateCardFile{
		Version:       c.Version,
		Currency:      c.Currency,
		Locale:        c.Locale,
		BaseRatePerM2: c.BaseRatePerM2,
		MinRoomFee:    c.MinRoomFee,
		TaxRate:       c.TaxRate,
		Shares:        c.Shares,
		Tables:        make(map[string][]Entry, len(c.tables)),
	}
	for k, t := range c.tables {
		f.Tables[k] = t.Entries()
	}
	return json.Marshal(f)
}
