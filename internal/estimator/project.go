// internal/estimator/project.go
package estimator

import (
	"errors"
	"fmt"
	"math"
)

type options struct {
	footprint FootprintFunc
}

// Option tweaks a single CalculateEstimate call.
type Option func(*options)

// WithFootprint replaces the square footprint used for Entire Property rooms.
func WithFootprint(f FootprintFunc) Option {
	return func(o *options) {
		if f != nil {
			o.footprint = f
		}
	}
}

// ValidateProject checks the shape of a submission before any pricing runs.
// Every problem is reported; the returned error joins *InvalidInputError values.
func ValidateProject(p ProjectInput) error {
	var errs []error
	if p.Location == "" {
		errs = append(errs, invalid("location", "is required"))
	}
	if p.PropertyAge == "" {
		errs = append(errs, invalid("propertyAge", "is required"))
	}
	if len(p.Rooms) == 0 {
		errs = append(errs, invalid("rooms", "at least one room required"))
	}
	for i, r := range p.Rooms {
		errs = append(errs, validateRoom(i, r)...)
	}
	return errors.Join(errs...)
}

func validateRoom(i int, r RoomInput) []error {
	var errs []error
	field := func(name string) string {
		return fmt.Sprintf("rooms[%d].%s", i, name)
	}

	if r.RoomType == "" {
		errs = append(errs, invalid(field("roomType"), "is required"))
	}
	if r.FloorFinish == "" {
		errs = append(errs, invalid(field("floorFinish"), "is required"))
	}
	if r.WallFinish == "" {
		errs = append(errs, invalid(field("wallFinish"), "is required"))
	}

	if r.RoomType == EntirePropertyRoomType && r.TotalArea != nil {
		if !positive(*r.TotalArea) {
			errs = append(errs, invalid(field("totalArea"), "must be a positive number, got %v", *r.TotalArea))
		}
		return errs
	}
	if r.TotalArea != nil {
		errs = append(errs, invalid(field("totalArea"), "only allowed for %q rooms", EntirePropertyRoomType))
	}
	if !positive(r.Width) {
		errs = append(errs, invalid(field("width"), "must be a positive number, got %v", r.Width))
	}
	if !positive(r.Length) {
		errs = append(errs, invalid(field("length"), "must be a positive number, got %v", r.Length))
	}
	if positive(r.Width) && positive(r.Length) && math.IsInf(r.Width*r.Length, 0) {
		errs = append(errs, invalid(field("area"), "width %v x length %v overflows", r.Width, r.Length))
	}
	return errs
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func resolveProjectMultipliers(card *RateCard, p ProjectInput) (ProjectMultipliers, error) {
	var pm ProjectMultipliers
	var err error

	if pm.Location, err = card.Resolve(CategoryLocation, p.Location); err != nil {
		return pm, err
	}
	if pm.PropertyAge, err = card.Resolve(CategoryPropertyAge, p.PropertyAge); err != nil {
		return pm, err
	}

	optional := []struct {
		category string
		label    string
		dst      **float64
	}{
		{CategoryPropertyType, p.PropertyType, &pm.PropertyType},
		{CategoryCondition, p.Condition, &pm.Condition},
		{CategoryAccess, p.Access, &pm.Access},
		{CategoryUrgency, p.Urgency, &pm.Urgency},
	}
	for _, o := range optional {
		if o.label == "" {
			continue
		}
		m, err := card.Resolve(o.category, o.label)
		if err != nil {
			return pm, err
		}
		*o.dst = &m
	}
	return pm, nil
}

// CalculateEstimate prices a whole project. Rooms keep their input order and
// any failure aborts the estimate. Subtotal and total are rounded to cents
// here and nowhere else.
func CalculateEstimate(card *RateCard, project ProjectInput, opts ...Option) (*EstimateResult, error) {
	if card == nil {
		return nil, fmt.Errorf("calculate estimate: nil rate card")
	}
	o := options{footprint: SquareFootprint}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ValidateProject(project); err != nil {
		return nil, err
	}

	pm, err := resolveProjectMultipliers(card, project)
	if err != nil {
		return nil, err
	}

	rooms := make([]RoomBreakdown, 0, len(project.Rooms))
	var subtotal, total float64
	for _, in := range project.Rooms {
		rb, err := CalculateRoom(card, NormalizeRoom(in, o.footprint), pm)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rb)
		subtotal += rb.AdjustedCost
		total += rb.FinalCost
	}
	// Totals are itemized in whole cents; beyond this they stop being exact.
	if !(total <= MaxEstimateTotal) {
		return nil, invalid("rooms", "estimate total %v exceeds the supported maximum of %v", total, MaxEstimateTotal)
	}

	result := &EstimateResult{
		Rooms:          rooms,
		Multipliers:    pm,
		City:           project.City,
		BaseRatePerM2:  card.BaseRatePerM2,
		MinRoomFee:     card.MinRoomFee,
		TaxRate:        card.TaxRate,
		PricingVersion: card.Version,
		Subtotal:       RoundCurrency(subtotal),
		Total:          RoundCurrency(total),
		Currency:       card.Currency,
	}
	result.Summary, result.LineItems = itemize(card, rooms, result.Total)
	return result, nil
}

// MaxEstimateTotal is the largest total CalculateEstimate prices. Its cent
// value stays below 2^53, so cents convert to and from float64 exactly.
const MaxEstimateTotal = 1e13

// RoundCurrency rounds to two decimal places, half away from zero.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}
