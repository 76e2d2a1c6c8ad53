// internal/estimator/itemize.go
package estimator

import (
	"math"
	"sort"
)

// itemize splits the rounded total into per-room line items and a summary.
// All arithmetic is in whole cents so the pieces add back to total exactly.
func itemize(card *RateCard, rooms []RoomBreakdown, total float64) (Summary, []LineItem) {
	totalCents := toCents(total)
	perRoom := apportion(totalCents, rooms)

	var sum struct{ materials, labor, overhead, contingency, tax int64 }
	items := make([]LineItem, 0, len(rooms)*5)

	for i, c := range perRoom {
		tax := int64(math.Round(float64(c) * card.TaxRate / (1 + card.TaxRate)))
		pre := c - tax
		materials := shareOf(pre, card.Shares.Materials)
		labor := shareOf(pre, card.Shares.Labor)
		overhead := shareOf(pre, card.Shares.Overhead)
		contingency := pre - materials - labor - overhead

		sum.materials += materials
		sum.labor += labor
		sum.overhead += overhead
		sum.contingency += contingency
		sum.tax += tax

		rt := rooms[i].RoomType
		for _, part := range []struct {
			category string
			label    string
			cents    int64
		}{
			{CategoryMaterials, "materials", materials},
			{CategoryLabor, "labour", labor},
			{CategoryOverhead, "overhead", overhead},
			{CategoryContingency, "contingency", contingency},
			{CategoryTax, "tax", tax},
		} {
			items = append(items, LineItem{
				RoomIndex:   i,
				RoomType:    rt,
				Category:    part.category,
				Description: rt + " " + part.label,
				Amount:      fromCents(part.cents),
			})
		}
	}

	return Summary{
		Materials:   fromCents(sum.materials),
		Labor:       fromCents(sum.labor),
		Overhead:    fromCents(sum.overhead),
		Contingency: fromCents(sum.contingency),
		TaxTotal:    fromCents(sum.tax),
		Total:       fromCents(totalCents),
	}, items
}

// shareOf floors cents*share, tolerating binary noise such as 34649.9999999.
func shareOf(cents int64, share float64) int64 {
	return int64(math.Floor(float64(cents)*share + 1e-6))
}

// apportion distributes totalCents over rooms in proportion to their final
// cost using the largest remainder method. Ties go to the earlier room.
func apportion(totalCents int64, rooms []RoomBreakdown) []int64 {
	out := make([]int64, len(rooms))
	if len(rooms) == 0 {
		return out
	}

	var weight float64
	for _, r := range rooms {
		weight += r.FinalCost
	}
	if weight <= 0 {
		out[0] = totalCents
		return out
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(rooms))
	var assigned int64
	for i, r := range rooms {
		exact := float64(totalCents) * r.FinalCost / weight
		whole := math.Floor(exact)
		out[i] = int64(whole)
		assigned += out[i]
		rems[i] = rem{idx: i, frac: exact - whole}
	}

	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})
	for left, k := totalCents-assigned, 0; left > 0; left, k = left-1, k+1 {
		out[rems[k%len(rems)].idx]++
	}
	return out
}
