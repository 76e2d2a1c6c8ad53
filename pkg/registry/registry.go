// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"renovation-estimator/internal/common/validation"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Save writes the registry with a fresh LastUpdated stamp.
func (r *ActivityRegistry) Save(path string, now time.Time) error {
	r.LastUpdated = now.UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

func (r *ActivityRegistry) SetStatus(id, status string) error {
	if !validStatuses[status] {
		return fmt.Errorf("unknown implementation status %q", status)
	}
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			r.Activities[i].ImplementationStatus = status
			return nil
		}
	}
	return fmt.Errorf("activity %s not found", id)
}

// TimeoutDuration parses Timeout, returning def when it is empty.
func (a Activity) TimeoutDuration(def time.Duration) (time.Duration, error) {
	if a.Timeout == "" {
		return def, nil
	}
	return time.ParseDuration(a.Timeout)
}

// Validate reports every structural problem in the registry.
func (r *ActivityRegistry) Validate() error {
	var errs []error
	if r.Version == "" {
		errs = append(errs, errors.New("registry version is required"))
	}

	ids := make(map[string]bool, len(r.Activities))
	taskTypes := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" {
			errs = append(errs, errors.New("activity with empty id"))
			continue
		}
		if ids[a.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id", a.ID))
		}
		ids[a.ID] = true

		if taskTypes[a.TaskType] {
			errs = append(errs, fmt.Errorf("%s: duplicate task type %s", a.ID, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if err := validation.ValidateTaskTypeNaming(a.TaskType); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.ID, err))
		}
		if !validStatuses[a.ImplementationStatus] {
			errs = append(errs, fmt.Errorf("%s: unknown implementation status %q", a.ID, a.ImplementationStatus))
		}
		if _, err := a.TimeoutDuration(0); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid timeout: %w", a.ID, err))
		}
		if a.Retries < 0 {
			errs = append(errs, fmt.Errorf("%s: retries must not be negative", a.ID))
		}
		for name, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid %s: %w", a.ID, name, err))
			}
		}
	}
	return errors.Join(errs...)
}
