// internal/estimator/models.go
package estimator

// EntirePropertyRoomType is the room type whose footprint is given as a total area.
const EntirePropertyRoomType = "Entire Property"

// DefaultFurniture is used when a room does not name a built-in furniture option.
const DefaultFurniture = "None"

type RoomInput struct {
	RoomType      string   `json:"roomType"`
	Width         float64  `json:"width,omitempty"`
	Length        float64  `json:"length,omitempty"`
	TotalArea     *float64 `json:"totalArea,omitempty"`
	CeilingHeight string   `json:"ceilingHeight,omitempty"`
	FloorFinish   string   `json:"floorFinish"`
	WallFinish    string   `json:"wallFinish"`
	Furniture     string   `json:"furniture,omitempty"`
}

// ProjectInput is one survey submission. PropertyType, Condition, Access and
// Urgency are optional axes; an empty label means the factor is not applied.
type ProjectInput struct {
	Location     string      `json:"location"`
	City         string      `json:"city,omitempty"`
	PropertyAge  string      `json:"propertyAge"`
	PropertyType string      `json:"propertyType,omitempty"`
	Condition    string      `json:"condition,omitempty"`
	Access       string      `json:"access,omitempty"`
	Urgency      string      `json:"urgency,omitempty"`
	Rooms        []RoomInput `json:"rooms"`
}

// ProjectMultipliers holds the project-level factors resolved once per estimate.
type ProjectMultipliers struct {
	Location     float64  `json:"location"`
	PropertyAge  float64  `json:"propertyAge"`
	PropertyType *float64 `json:"propertyType,omitempty"`
	Condition    *float64 `json:"condition,omitempty"`
	Access       *float64 `json:"access,omitempty"`
	Urgency      *float64 `json:"urgency,omitempty"`
}

// Product multiplies every factor that was supplied.
func (m ProjectMultipliers) Product() float64 {
	p := m.Location * m.PropertyAge
	for _, opt := range []*float64{m.PropertyType, m.Condition, m.Access, m.Urgency} {
		if opt != nil {
			p *= *opt
		}
	}
	return p
}

type RoomBreakdown struct {
	RoomType                string   `json:"roomType"`
	RoomTypeMultiplier      float64  `json:"roomTypeMultiplier"`
	Width                   float64  `json:"width"`
	Length                  float64  `json:"length"`
	Area                    float64  `json:"area"`
	FloorFinish             string   `json:"floorFinish"`
	FloorMultiplier         float64  `json:"floorMultiplier"`
	WallFinish              string   `json:"wallFinish"`
	WallMultiplier          float64  `json:"wallMultiplier"`
	Furniture               string   `json:"furniture"`
	FurnitureMultiplier     float64  `json:"furnitureMultiplier"`
	CeilingHeight           string   `json:"ceilingHeight,omitempty"`
	CeilingHeightMultiplier *float64 `json:"ceilingHeightMultiplier,omitempty"`
	BaseCost                float64  `json:"baseCost"`
	AdjustedCost            float64  `json:"adjustedCost"`
	FinalCost               float64  `json:"finalCost"`
	MinimumFeeApplied       bool     `json:"minimumFeeApplied"`
}

// Cost categories used by the itemised summary and line items.
const (
	CategoryMaterials   = "materials"
	CategoryLabor       = "labor"
	CategoryOverhead    = "overhead"
	CategoryContingency = "contingency"
	CategoryTax         = "tax"
)

type LineItem struct {
	RoomIndex   int     `json:"roomIndex"`
	RoomType    string  `json:"roomType"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Summary is a decomposition of Total; its fields always add up to it.
type Summary struct {
	Materials   float64 `json:"materials"`
	Labor       float64 `json:"labor"`
	Overhead    float64 `json:"overhead"`
	Contingency float64 `json:"contingency"`
	TaxTotal    float64 `json:"taxTotal"`
	Total       float64 `json:"total"`
}

type EstimateResult struct {
	Rooms          []RoomBreakdown    `json:"rooms"`
	Multipliers    ProjectMultipliers `json:"multipliers"`
	City           string             `json:"city,omitempty"`
	BaseRatePerM2  float64            `json:"baseRatePerM2"`
	MinRoomFee     float64            `json:"minRoomFee"`
	TaxRate        float64            `json:"taxRate"`
	PricingVersion string             `json:"pricingVersion"`
	Subtotal       float64            `json:"subtotal"`
	Total          float64            `json:"total"`
	Currency       string             `json:"currency"`
	Summary        Summary            `json:"summary"`
	LineItems      []LineItem         `json:"lineItems"`
}
