// cmd/tools/estimate/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/database"
	"renovation-estimator/internal/estimator"
	"renovation-estimator/internal/export"
	"renovation-estimator/internal/models"
)

// estimateSource loads stored estimates for "export -id".
type estimateSource interface {
	Get(ctx context.Context, id string) (*models.EstimateRecord, error)
}

// openStore connects with the application config. Tests replace it.
var openStore = func(ctx context.Context) (estimateSource, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return database.NewEstimateStore(pg.DB), pg.Close, nil
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout}
	if err := c.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) run(args []string) error {
	if len(args) < 1 {
		c.help()
		return fmt.Errorf("a command is required")
	}

	switch args[0] {
	case "calc":
		return c.calc(args[1:])
	case "export":
		return c.export(args[1:])
	case "tables":
		return c.tables(args[1:])
	case "help", "-h", "--help":
		c.help()
		return nil
	default:
		c.help()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *cli) calc(args []string) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	input := fs.String("input", "-", "Project JSON file, - for stdin")
	rateCard := fs.String("rate-card", "", "Rate card JSON file (default: built-in card)")
	format := fs.String("format", "text", "Output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	card, err := loadCard(*rateCard)
	if err != nil {
		return err
	}
	project, err := c.readProject(*input)
	if err != nil {
		return err
	}
	result, err := estimator.CalculateEstimate(card, project)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		c.printEstimate(card, result)
		return nil
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func (c *cli) export(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	input := fs.String("input", "", "Project JSON file, - for stdin")
	id := fs.String("id", "", "Export a stored estimate by id instead of calculating one")
	rateCard := fs.String("rate-card", "", "Rate card JSON file (default: built-in card)")
	out := fs.String("out", "", "Workbook path (default: reports/estimate_<id>.xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*input == "") == (*id == "") {
		fs.Usage()
		return fmt.Errorf("exactly one of -input or -id is required")
	}

	var e export.Estimate
	if *id != "" {
		stored, err := loadStored(context.Background(), *id)
		if err != nil {
			return err
		}
		e = *stored
	} else {
		card, err := loadCard(*rateCard)
		if err != nil {
			return err
		}
		project, err := c.readProject(*input)
		if err != nil {
			return err
		}
		result, err := estimator.CalculateEstimate(card, project)
		if err != nil {
			return err
		}
		e = export.Estimate{Project: project, Result: result}
	}

	path := *out
	if path == "" {
		path = filepath.Join("reports", export.FileName(e))
	}
	if err := export.SaveFile(path, e); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Wrote %s\n", path)
	return nil
}

func loadStored(ctx context.Context, id string) (*export.Estimate, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to estimate store: %w", err)
	}
	defer closeStore()

	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var doc models.StoredEstimate
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode stored estimate %s: %w", id, err)
	}
	if doc.Estimate == nil {
		return nil, fmt.Errorf("stored estimate %s has no result", id)
	}
	return &export.Estimate{ID: rec.ID, Project: doc.Project, Result: doc.Estimate}, nil
}

func (c *cli) tables(args []string) error {
	fs := flag.NewFlagSet("tables", flag.ContinueOnError)
	rateCard := fs.String("rate-card", "", "Rate card JSON file (default: built-in card)")
	category := fs.String("category", "", "Only print this category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	card, err := loadCard(*rateCard)
	if err != nil {
		return err
	}

	categories := estimator.Categories
	if *category != "" {
		if _, ok := card.Table(*category); !ok {
			return fmt.Errorf("unknown category %q", *category)
		}
		categories = []string{*category}
	}

	fmt.Fprintf(c.stdout, "Rate card %s (%s), base rate %.2f/m2, minimum room fee %.2f, tax %.0f%%\n",
		card.Version, card.Currency, card.BaseRatePerM2, card.MinRoomFee, card.TaxRate*100)
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	for _, cat := range categories {
		t, _ := card.Table(cat)
		fmt.Fprintf(tw, "\n[%s]\t\n", cat)
		for _, e := range t.Entries() {
			fmt.Fprintf(tw, "  %s\t%.2f\n", e.Label, e.Multiplier)
		}
	}
	return tw.Flush()
}

func (c *cli) printEstimate(card *estimator.RateCard, r *estimator.EstimateResult) {
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tROOM\tAREA (m2)\tFLOOR\tWALL\tCOST\tMIN FEE")
	for i, room := range r.Rooms {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\t%s\t%t\n",
			i+1, room.RoomType, room.Area, room.FloorFinish, room.WallFinish,
			card.FormatCurrency(room.FinalCost), room.MinimumFeeApplied)
	}
	tw.Flush()

	fmt.Fprintf(c.stdout, "\nProject multiplier: %.4f\n", r.Multipliers.Product())
	fmt.Fprintf(c.stdout, "Tax included:       %s\n", card.FormatCurrency(r.Summary.TaxTotal))
	fmt.Fprintf(c.stdout, "Total:              %s\n", card.FormatCurrency(r.Total))
	fmt.Fprintf(c.stdout, "Pricing version:    %s\n", r.PricingVersion)
}

func (c *cli) readProject(path string) (estimator.ProjectInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return estimator.ProjectInput{}, fmt.Errorf("read project: %w", err)
	}

	var project estimator.ProjectInput
	if err := json.Unmarshal(data, &project); err != nil {
		return estimator.ProjectInput{}, fmt.Errorf("parse project: %w", err)
	}
	return project, nil
}

func loadCard(path string) (*estimator.RateCard, error) {
	if path == "" {
		return estimator.DefaultRateCard(), nil
	}
	return estimator.LoadRateCard(path)
}

func (c *cli) help() {
	fmt.Fprintln(c.stdout, `
Usage: estimate <command> [flags]

Commands:
  calc    Calculate an estimate for a project JSON document
  export  Write an estimate to an .xlsx workbook
  tables  Print the multiplier tables of a rate card
  help    Show this help message

Examples:
  estimate calc -input project.json
  estimate calc -input - -format json < project.json
  estimate export -input project.json -out reports/kitchen.xlsx
  estimate export -id 5f1c2d9e-8a41-4c6b-9f0e-3b7a2d1c4e55
  estimate tables -category floorFinish`)
}
