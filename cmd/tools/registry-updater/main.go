// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"renovation-estimator/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, now func() time.Time) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("a command is required")
	}

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listPath := listCmd.String("path", defaultRegistryPath, "Path to registry file")
	listStatus := listCmd.String("status", "", "Only show activities with this implementation status")

	statusCmd := flag.NewFlagSet("set-status", flag.ContinueOnError)
	statusPath := statusCmd.String("path", defaultRegistryPath, "Path to registry file")
	statusID := statusCmd.String("id", "", "Activity ID to update")
	statusValue := statusCmd.String("status", "", "New status (planned, in-progress, completed, verified)")

	switch args[0] {
	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))

	case "list":
		if err := listCmd.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*listPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		list(out, reg, *listStatus)

	case "set-status":
		if err := statusCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *statusID == "" || *statusValue == "" {
			statusCmd.Usage()
			return fmt.Errorf("id and status are required for set-status")
		}
		reg, err := registry.LoadRegistry(*statusPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.SetStatus(*statusID, *statusValue); err != nil {
			return err
		}
		if err := reg.Save(*statusPath, now()); err != nil {
			return fmt.Errorf("failed to write registry file: %w", err)
		}
		fmt.Fprintf(out, "Updated activity %s status to %s\n", *statusID, *statusValue)

	case "help", "-h", "--help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func list(out io.Writer, reg *registry.ActivityRegistry, status string) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTASK TYPE\tSTATUS\tTIMEOUT\tRETRIES\tERROR CODES")
	for _, a := range reg.Activities {
		if status != "" && a.ImplementationStatus != status {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			a.ID, a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries, strings.Join(a.ErrorCodes, ","))
	}
	tw.Flush()
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: registry-updater <command> [flags]

Commands:
  validate    Validate the registry file
  list        List registered activities
  set-status  Change an activity's implementation status
  help        Show this help message

Examples:
  registry-updater validate -path configs/activity-registry.json
  registry-updater list -status completed
  registry-updater set-status -id notify-renovation-estimate -status verified

Use 'registry-updater <command> -h' for more information about a command.`)
}
