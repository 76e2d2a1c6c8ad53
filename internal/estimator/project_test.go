// internal/estimator/project_test.go
package estimator

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func kitchenProject() ProjectInput {
	return ProjectInput{
		Location:    "Urban",
		City:        "Leeds",
		PropertyAge: "0-10 years",
		Rooms: []RoomInput{
			{RoomType: "Kitchen", Width: 3, Length: 4, FloorFinish: "Engineered Wood", WallFinish: "Paint", Furniture: "None"},
		},
	}
}

func mixedProject() ProjectInput {
	area := 100.0
	return ProjectInput{
		Location:     "Suburban",
		PropertyAge:  "31-60 years",
		PropertyType: "Detached House",
		Condition:    "Fair",
		Access:       "Moderate",
		Urgency:      "Priority",
		Rooms: []RoomInput{
			{RoomType: "Kitchen", Width: 3.3, Length: 4.1, FloorFinish: "Porcelain Tile", WallFinish: "Tiles", Furniture: "Premium", CeilingHeight: "High (2.7m)"},
			{RoomType: "Hallway", Width: 1, Length: 1, FloorFinish: "Carpet", WallFinish: "Paint"},
			{RoomType: "Bathroom", Width: 2.2, Length: 2.7, FloorFinish: "Natural Stone", WallFinish: "Tiles", Furniture: "Bespoke"},
			{RoomType: EntirePropertyRoomType, TotalArea: &area, FloorFinish: "Laminate", WallFinish: "Plaster Skim"},
		},
	}
}

func sumCents(items []LineItem) int64 {
	var c int64
	for _, li := range items {
		c += toCents(li.Amount)
	}
	return c
}

// ==========================
// Core Functionality Tests
// ==========================

func TestCalculateEstimate_KitchenScenario(t *testing.T) {
	result, err := CalculateEstimate(DefaultRateCard(), kitchenProject())
	require.NoError(t, err)

	require.Len(t, result.Rooms, 1)
	room := result.Rooms[0]
	assert.InDelta(t, 12.0, room.Area, 1e-9)
	assert.InDelta(t, 600.0, room.BaseCost, 1e-9)
	assert.InDelta(t, 1188.0, room.AdjustedCost, 1e-9)
	assert.InDelta(t, 1188.0, room.FinalCost, 1e-9)
	assert.False(t, room.MinimumFeeApplied)

	assert.Equal(t, 1188.0, result.Subtotal)
	assert.Equal(t, 1188.0, result.Total)
	assert.Equal(t, "GBP", result.Currency)
	assert.Equal(t, "Leeds", result.City)
	assert.Equal(t, DefaultPricingVersion, result.PricingVersion)
	assert.Equal(t, 1.2, result.Multipliers.Location)
	assert.Nil(t, result.Multipliers.PropertyType)
	assert.Nil(t, result.Multipliers.Urgency)

	// 1188.00 incl. 20% tax: 198.00 tax, 990.00 split by share.
	assert.Equal(t, 198.0, result.Summary.TaxTotal)
	assert.Equal(t, 445.5, result.Summary.Materials)
	assert.Equal(t, 346.5, result.Summary.Labor)
	assert.Equal(t, 99.0, result.Summary.Overhead)
	assert.Equal(t, 99.0, result.Summary.Contingency)
	assert.Equal(t, result.Total, result.Summary.Total)
}

func TestCalculateEstimate_MinimumFee(t *testing.T) {
	p := kitchenProject()
	p.Rooms[0] = RoomInput{RoomType: "Bedroom", Width: 1, Length: 1, FloorFinish: "Carpet", WallFinish: "Paint"}

	result, err := CalculateEstimate(DefaultRateCard(), p)
	require.NoError(t, err)

	room := result.Rooms[0]
	assert.True(t, room.MinimumFeeApplied)
	assert.Equal(t, 200.0, room.FinalCost)
	assert.Less(t, room.AdjustedCost, room.FinalCost)
	assert.Equal(t, 200.0, result.Total)
	assert.Greater(t, result.Total, result.Subtotal)
}

func TestCalculateEstimate_Invariants(t *testing.T) {
	card := DefaultRateCard()
	projects := map[string]ProjectInput{
		"kitchen": kitchenProject(),
		"mixed":   mixedProject(),
	}

	for name, p := range projects {
		t.Run(name, func(t *testing.T) {
			result, err := CalculateEstimate(card, p)
			require.NoError(t, err)

			require.Len(t, result.Rooms, len(p.Rooms))
			floored := false
			for i, room := range result.Rooms {
				assert.Equal(t, p.Rooms[i].RoomType, room.RoomType, "order preserved")
				assert.GreaterOrEqual(t, room.FinalCost, card.MinRoomFee)
				floored = floored || room.MinimumFeeApplied
			}

			assert.GreaterOrEqual(t, result.Total, result.Subtotal)
			if !floored {
				assert.Equal(t, result.Subtotal, result.Total)
			}

			assert.Equal(t, result.Total, result.Summary.Total)
			assert.Equal(t, toCents(result.Total), sumCents(result.LineItems))
			assert.Len(t, result.LineItems, len(p.Rooms)*5)

			summaryCents := toCents(result.Summary.Materials) + toCents(result.Summary.Labor) +
				toCents(result.Summary.Overhead) + toCents(result.Summary.Contingency) +
				toCents(result.Summary.TaxTotal)
			assert.Equal(t, toCents(result.Total), summaryCents)

			for _, li := range result.LineItems {
				assert.GreaterOrEqual(t, li.Amount, 0.0, li.Description)
			}
		})
	}
}

func TestCalculateEstimate_AdjustedIsProductOfMultipliers(t *testing.T) {
	result, err := CalculateEstimate(DefaultRateCard(), mixedProject())
	require.NoError(t, err)

	pm := result.Multipliers
	require.NotNil(t, pm.PropertyType)
	require.NotNil(t, pm.Condition)
	require.NotNil(t, pm.Access)
	require.NotNil(t, pm.Urgency)

	for _, room := range result.Rooms {
		want := room.BaseCost * pm.Product() * room.RoomTypeMultiplier * room.FloorMultiplier *
			room.WallMultiplier * room.FurnitureMultiplier
		if room.CeilingHeightMultiplier != nil {
			want *= *room.CeilingHeightMultiplier
		}
		assert.InDelta(t, want, room.AdjustedCost, 1e-9, room.RoomType)
		assert.InDelta(t, room.Area*result.BaseRatePerM2, room.BaseCost, 1e-9)
	}
}

func TestCalculateEstimate_Idempotent(t *testing.T) {
	card := DefaultRateCard()
	p := mixedProject()

	first, err := CalculateEstimate(card, p)
	require.NoError(t, err)
	second, err := CalculateEstimate(card, p)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b))
}

func TestCalculateEstimate_EntirePropertyMatchesExplicitSquare(t *testing.T) {
	area := 100.0
	card := DefaultRateCard()

	byArea := kitchenProject()
	byArea.Rooms[0] = RoomInput{RoomType: EntirePropertyRoomType, TotalArea: &area, FloorFinish: "Carpet", WallFinish: "Paint"}
	explicit := kitchenProject()
	explicit.Rooms[0] = RoomInput{RoomType: EntirePropertyRoomType, Width: 10, Length: 10, FloorFinish: "Carpet", WallFinish: "Paint"}

	a, err := CalculateEstimate(card, byArea)
	require.NoError(t, err)
	b, err := CalculateEstimate(card, explicit)
	require.NoError(t, err)

	assert.Equal(t, b.Total, a.Total)
	assert.InDelta(t, 10.0, a.Rooms[0].Width, 1e-9)
	assert.InDelta(t, 10.0, a.Rooms[0].Length, 1e-9)
}

func TestCalculateEstimate_WithFootprint(t *testing.T) {
	area := 50.0
	p := kitchenProject()
	p.Rooms[0] = RoomInput{RoomType: EntirePropertyRoomType, TotalArea: &area, FloorFinish: "Carpet", WallFinish: "Paint"}

	halves := func(a float64) (float64, float64) { return a / 5, 5 }
	result, err := CalculateEstimate(DefaultRateCard(), p, WithFootprint(halves))
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Rooms[0].Width)
	assert.Equal(t, 5.0, result.Rooms[0].Length)
	assert.InDelta(t, 50.0, result.Rooms[0].Area, 1e-9)
}

// ==========================
// Error Handling Tests
// ==========================

func TestCalculateEstimate_UnknownLabel(t *testing.T) {
	p := kitchenProject()
	p.Rooms[0].RoomType = "Dungeon"

	result, err := CalculateEstimate(DefaultRateCard(), p)
	assert.Nil(t, result)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, CategoryRoomType, cfgErr.Category)
	assert.Equal(t, "Dungeon", cfgErr.Label)
}

func TestCalculateEstimate_UnknownOptionalAxis(t *testing.T) {
	p := kitchenProject()
	p.Condition = "Haunted"

	_, err := CalculateEstimate(DefaultRateCard(), p)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestCalculateEstimate_NoPartialResults(t *testing.T) {
	p := mixedProject()
	p.Rooms[2].WallFinish = "Gold Leaf"

	result, err := CalculateEstimate(DefaultRateCard(), p)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestValidateProject(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name   string
		mutate func(p *ProjectInput)
		fields []string
	}{
		{"no rooms", func(p *ProjectInput) { p.Rooms = nil }, []string{"rooms"}},
		{"missing location", func(p *ProjectInput) { p.Location = "" }, []string{"location"}},
		{"missing age", func(p *ProjectInput) { p.PropertyAge = "" }, []string{"propertyAge"}},
		{"zero width", func(p *ProjectInput) { p.Rooms[0].Width = 0 }, []string{"rooms[0].width"}},
		{"negative length", func(p *ProjectInput) { p.Rooms[0].Length = -2 }, []string{"rooms[0].length"}},
		{"NaN width", func(p *ProjectInput) { p.Rooms[0].Width = math.NaN() }, []string{"rooms[0].width"}},
		{"infinite width", func(p *ProjectInput) { p.Rooms[0].Width = math.Inf(1) }, []string{"rooms[0].width"}},
		{"area overflows", func(p *ProjectInput) {
			p.Rooms[0].Width = 1e200
			p.Rooms[0].Length = 1e200
		}, []string{"rooms[0].area"}},
		{"zero total area", func(p *ProjectInput) {
			p.Rooms[0] = RoomInput{RoomType: EntirePropertyRoomType, TotalArea: &zero, FloorFinish: "Carpet", WallFinish: "Paint"}
		}, []string{"rooms[0].totalArea"}},
		{"total area on a normal room", func(p *ProjectInput) {
			area := 12.0
			p.Rooms[0].TotalArea = &area
		}, []string{"rooms[0].totalArea"}},
		{"several problems", func(p *ProjectInput) {
			p.Location = ""
			p.Rooms[0].FloorFinish = ""
			p.Rooms[0].Width = 0
		}, []string{"location", "rooms[0].floorFinish", "rooms[0].width"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := kitchenProject()
			tt.mutate(&p)

			err := ValidateProject(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			for _, f := range tt.fields {
				assert.Contains(t, err.Error(), f)
			}

			_, calcErr := CalculateEstimate(DefaultRateCard(), p)
			assert.True(t, errors.Is(calcErr, ErrInvalidInput))
		})
	}

	t.Run("at least one room message", func(t *testing.T) {
		err := ValidateProject(ProjectInput{Location: "Urban", PropertyAge: "0-10 years"})
		var inputErr *InvalidInputError
		require.ErrorAs(t, err, &inputErr)
		assert.Equal(t, "rooms", inputErr.Field)
		assert.Equal(t, "at least one room required", inputErr.Message)
	})
}

func TestCalculateEstimate_RejectsTotalsBeyondCents(t *testing.T) {
	tests := []struct {
		name          string
		width, length float64
	}{
		{"overflows int64 cents", 1e9, 1e9},
		{"beyond the maximum", 1e7, 1e5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := kitchenProject()
			p.Rooms[0].Width, p.Rooms[0].Length = tt.width, tt.length
			require.NoError(t, ValidateProject(p))

			result, err := CalculateEstimate(DefaultRateCard(), p)
			assert.Nil(t, result)
			var inputErr *InvalidInputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, "rooms", inputErr.Field)
		})
	}

	t.Run("largest accepted total stays exact", func(t *testing.T) {
		p := kitchenProject()
		p.Rooms[0].RoomType = "Living Room"
		p.Rooms[0].FloorFinish = "Carpet"
		p.Rooms[0].Width, p.Rooms[0].Length = 1e6, 1e5

		result, err := CalculateEstimate(DefaultRateCard(), p)
		require.NoError(t, err)
		assert.LessOrEqual(t, result.Total, MaxEstimateTotal)
		assert.Equal(t, toCents(result.Total), toCents(result.Summary.Total))
		assert.Equal(t, toCents(result.Total), sumCents(result.LineItems))

		_, err = json.Marshal(result)
		assert.NoError(t, err)
	})
}

func TestCalculateEstimate_NilCard(t *testing.T) {
	_, err := CalculateEstimate(nil, kitchenProject())
	assert.Error(t, err)
}

// ==========================
// Rounding Tests
// ==========================

func TestRoundCurrency(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1188, 1188},
		{10.004, 10},
		{10.006, 10.01},
		{2.5, 2.5},
		{0.125, 0.13},
		{-0.125, -0.13},
	}
	for _, tt := range tests {
		got := RoundCurrency(tt.in)
		assert.Equal(t, tt.want, got, "round(%v)", tt.in)
		assert.Equal(t, got, RoundCurrency(got), "idempotent for %v", tt.in)
	}
}

func TestApportion(t *testing.T) {
	rooms := []RoomBreakdown{{FinalCost: 1}, {FinalCost: 1}, {FinalCost: 1}}
	parts := apportion(100, rooms)
	assert.Equal(t, []int64{34, 33, 33}, parts)

	var sum int64
	for _, p := range apportion(123457, []RoomBreakdown{{FinalCost: 200}, {FinalCost: 733.3}, {FinalCost: 301.27}}) {
		sum += p
	}
	assert.Equal(t, int64(123457), sum)
}
