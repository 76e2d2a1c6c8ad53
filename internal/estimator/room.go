// internal/estimator/room.go
package estimator

import "math"

// FootprintFunc derives width and length from a total floor area.
type FootprintFunc func(totalArea float64) (width, length float64)

// SquareFootprint treats the area as a square.
func SquareFootprint(totalArea float64) (float64, float64) {
	side := math.Sqrt(totalArea)
	return side, side
}

// NormalizeRoom fills in width and length for an Entire Property room that
// was submitted with a total area. Other rooms are returned unchanged.
func NormalizeRoom(room RoomInput, footprint FootprintFunc) RoomInput {
	if room.RoomType != EntirePropertyRoomType || room.TotalArea == nil || *room.TotalArea <= 0 {
		return room
	}
	if footprint == nil {
		footprint = SquareFootprint
	}
	room.Width, room.Length = footprint(*room.TotalArea)
	return room
}

func furnitureOrDefault(label string) string {
	if label == "" {
		return DefaultFurniture
	}
	return label
}

// CalculateRoom prices a single room. Dimensions are taken as given and
// nothing is rounded.
func CalculateRoom(card *RateCard, room RoomInput, pm ProjectMultipliers) (RoomBreakdown, error) {
	furniture := furnitureOrDefault(room.Furniture)

	roomMult, err := card.Resolve(CategoryRoomType, room.RoomType)
	if err != nil {
		return RoomBreakdown{}, err
	}
	floorMult, err := card.Resolve(CategoryFloorFinish, room.FloorFinish)
	if err != nil {
		return RoomBreakdown{}, err
	}
	wallMult, err := card.Resolve(CategoryWallFinish, room.WallFinish)
	if err != nil {
		return RoomBreakdown{}, err
	}
	furnitureMult, err := card.Resolve(CategoryFurniture, furniture)
	if err != nil {
		return RoomBreakdown{}, err
	}

	var ceilingMult *float64
	if room.CeilingHeight != "" {
		m, err := card.Resolve(CategoryCeilingHeight, room.CeilingHeight)
		if err != nil {
			return RoomBreakdown{}, err
		}
		ceilingMult = &m
	}

	area := room.Width * room.Length
	baseCost := area * card.BaseRatePerM2

	factor := pm.Product() * roomMult * floorMult * wallMult * furnitureMult
	if ceilingMult != nil {
		factor *= *ceilingMult
	}
	adjusted := baseCost * factor

	final := adjusted
	floored := false
	if adjusted < card.MinRoomFee {
		final = card.MinRoomFee
		floored = true
	}

	return RoomBreakdown{
		RoomType:                room.RoomType,
		RoomTypeMultiplier:      roomMult,
		Width:                   room.Width,
		Length:                  room.Length,
		Area:                    area,
		FloorFinish:             room.FloorFinish,
		FloorMultiplier:         floorMult,
		WallFinish:              room.WallFinish,
		WallMultiplier:          wallMult,
		Furniture:               furniture,
		FurnitureMultiplier:     furnitureMult,
		CeilingHeight:           room.CeilingHeight,
		CeilingHeightMultiplier: ceilingMult,
		BaseCost:                baseCost,
		AdjustedCost:            adjusted,
		FinalCost:               final,
		MinimumFeeApplied:       floored,
	}, nil
}
