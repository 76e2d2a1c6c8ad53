// internal/export/workbook.go
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"renovation-estimator/internal/estimator"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary   = "Summary"
	SheetRooms     = "Rooms"
	SheetLineItems = "Line Items"
)

var roomHeaders = []interface{}{
	"#", "Room type", "Width (m)", "Length (m)", "Area (m2)",
	"Floor finish", "Floor x", "Wall finish", "Wall x",
	"Furniture", "Furniture x", "Ceiling height", "Ceiling x",
	"Base cost", "Adjusted cost", "Final cost", "Minimum fee",
}

var lineItemHeaders = []interface{}{"Room #", "Room type", "Category", "Description", "Amount"}

// Estimate is everything written to one workbook.
type Estimate struct {
	ID      string
	Project estimator.ProjectInput
	Result  *estimator.EstimateResult
}

// Workbook builds the summary, rooms and line item sheets for e.
// The caller owns the returned file and must Close it.
func Workbook(e Estimate) (*excelize.File, error) {
	if e.Result == nil {
		return nil, fmt.Errorf("export: estimate result is required")
	}

	f := excelize.NewFile()
	// NewFile starts with Sheet1; rename it so no empty sheet is left behind.
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetRooms, SheetLineItems} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	st, err := newStyles(f, e.Result.Currency)
	if err != nil {
		f.Close()
		return nil, err
	}

	for _, write := range []func(*excelize.File, Estimate, styles) error{
		writeSummary, writeRooms, writeLineItems,
	} {
		if err := write(f, e, st); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the workbook for e to w.
func Write(w io.Writer, e Estimate) error {
	f, err := Workbook(e)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveFile writes the workbook to path, creating parent directories.
func SaveFile(path string, e Estimate) error {
	f, err := Workbook(e)
	if err != nil {
		return err
	}
	defer f.Close()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// FileName is the default name for an exported estimate.
func FileName(e Estimate) string {
	id := e.ID
	if id == "" {
		id = "draft"
	}
	return fmt.Sprintf("estimate_%s.xlsx", id)
}

type styles struct {
	header int
	money  int
	total  int
}

func newStyles(f *excelize.File, currency string) (styles, error) {
	var s styles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}

	numFmt := fmt.Sprintf(`"%s" #,##0.00`, currency)
	s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return s, fmt.Errorf("money style: %w", err)
	}
	s.total, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return s, fmt.Errorf("total style: %w", err)
	}
	return s, nil
}

func writeSummary(f *excelize.File, e Estimate, st styles) error {
	r := e.Result
	rows := [][]interface{}{
		{"Estimate ID", e.ID},
		{"Pricing version", r.PricingVersion},
		{"Currency", r.Currency},
		{"Location", e.Project.Location},
		{"City", e.Project.City},
		{"Property age", e.Project.PropertyAge},
		{"Property type", e.Project.PropertyType},
		{"Rooms", len(r.Rooms)},
		{"Project multiplier", r.Multipliers.Product()},
		{},
		{"Materials", r.Summary.Materials},
		{"Labour", r.Summary.Labor},
		{"Overhead", r.Summary.Overhead},
		{"Contingency", r.Summary.Contingency},
		{"Tax", r.Summary.TaxTotal},
		{"Subtotal", r.Subtotal},
		{"Total", r.Total},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("summary row %d: %w", i+1, err)
		}
	}

	firstMoney, lastMoney := 11, len(rows)
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", lastMoney), st.header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("B%d", firstMoney), fmt.Sprintf("B%d", lastMoney-1), st.money); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, fmt.Sprintf("B%d", lastMoney), fmt.Sprintf("B%d", lastMoney), st.total); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "B", 22)
}

func writeRooms(f *excelize.File, e Estimate, st styles) error {
	if err := f.SetSheetRow(SheetRooms, "A1", &roomHeaders); err != nil {
		return fmt.Errorf("rooms header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(roomHeaders))
	if err := f.SetCellStyle(SheetRooms, "A1", last+"1", st.header); err != nil {
		return err
	}

	for i, room := range e.Result.Rooms {
		var ceiling interface{}
		if room.CeilingHeightMultiplier != nil {
			ceiling = *room.CeilingHeightMultiplier
		}
		row := []interface{}{
			i + 1, room.RoomType, room.Width, room.Length, room.Area,
			room.FloorFinish, room.FloorMultiplier, room.WallFinish, room.WallMultiplier,
			room.Furniture, room.FurnitureMultiplier, room.CeilingHeight, ceiling,
			room.BaseCost, room.AdjustedCost, room.FinalCost, room.MinimumFeeApplied,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetRooms, cell, &row); err != nil {
			return fmt.Errorf("room row %d: %w", i+1, err)
		}
	}

	if n := len(e.Result.Rooms); n > 0 {
		if err := f.SetCellStyle(SheetRooms, "N2", fmt.Sprintf("P%d", n+1), st.money); err != nil {
			return err
		}
	}
	if err := f.SetPanes(SheetRooms, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return err
	}
	return f.SetColWidth(SheetRooms, "B", last, 14)
}

func writeLineItems(f *excelize.File, e Estimate, st styles) error {
	if err := f.SetSheetRow(SheetLineItems, "A1", &lineItemHeaders); err != nil {
		return fmt.Errorf("line items header: %w", err)
	}
	if err := f.SetCellStyle(SheetLineItems, "A1", "E1", st.header); err != nil {
		return err
	}

	items := e.Result.LineItems
	for i, item := range items {
		row := []interface{}{item.RoomIndex + 1, item.RoomType, item.Category, item.Description, item.Amount}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetLineItems, cell, &row); err != nil {
			return fmt.Errorf("line item row %d: %w", i+1, err)
		}
	}

	totalRow := len(items) + 2
	if err := f.SetCellValue(SheetLineItems, fmt.Sprintf("D%d", totalRow), "Total"); err != nil {
		return err
	}
	if len(items) > 0 {
		if err := f.SetCellFormula(SheetLineItems, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("SUM(E2:E%d)", totalRow-1)); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetLineItems, "E2", fmt.Sprintf("E%d", totalRow-1), st.money); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetLineItems, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("E%d", totalRow), st.total); err != nil {
		return err
	}
	return f.SetColWidth(SheetLineItems, "B", "D", 20)
}
