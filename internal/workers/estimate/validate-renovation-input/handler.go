// internal/workers/estimate/validate-renovation-input/handler.go
package validaterenovationinput

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/common/metrics"
	"renovation-estimator/internal/common/validation"
	"renovation-estimator/internal/estimator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-renovation-input"
)

// Handler checks a submitted project before any pricing happens. Invalid
// input completes the job with inputValid=false so the process can branch.
type Handler struct {
	config     *Config
	card       *estimator.RateCard
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, card *estimator.RateCard, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:     config,
		card:       card,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		logger.FieldJobKey: job.Key,
		"workflowKey":      job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.fail(ctx, client, job, errors.NewInternalError(err))
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, variables string) (*Output, error) {
	schema := h.config.InputSchema
	if schema == nil {
		schema = ProjectInputSchema()
	}

	result, err := validation.ValidateJSON(schema, variables)
	if err != nil {
		return nil, errors.NewInputSchemaInvalidError(err.Error())
	}
	if !result.Valid {
		return h.invalid(result.Errors), nil
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputSchemaInvalidError(err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewEstimateTimeoutError(err)
	}

	if issues := projectIssues(input.Project); len(issues) > 0 {
		return h.invalid(issues), nil
	}
	if issues := labelIssues(h.card, input.Project); len(issues) > 0 {
		return h.invalid(issues), nil
	}

	h.logger.Debug("project input valid", map[string]interface{}{
		"rooms":    len(input.Project.Rooms),
		"location": input.Project.Location,
	})
	return &Output{InputValid: true, ValidationErrors: []validation.ValidationError{}}, nil
}

func (h *Handler) invalid(issues []validation.ValidationError) *Output {
	h.logger.Info("project input rejected", map[string]interface{}{
		"issues": len(issues),
		"first":  issues[0].Field,
	})
	return &Output{InputValid: false, ValidationErrors: issues}
}

func projectIssues(p estimator.ProjectInput) []validation.ValidationError {
	var out []validation.ValidationError
	for _, err := range estimator.Flatten(estimator.ValidateProject(p)) {
		var inputErr *estimator.InvalidInputError
		if stderrors.As(err, &inputErr) {
			out = append(out, validation.ValidationError{
				Field:   "project." + inputErr.Field,
				Message: inputErr.Message,
				Code:    CodeInvalidValue,
			})
		}
	}
	return out
}

func labelIssues(card *estimator.RateCard, p estimator.ProjectInput) []validation.ValidationError {
	var out []validation.ValidationError
	for _, err := range estimator.Flatten(card.CheckLabels(p)) {
		var cfgErr *estimator.ConfigurationError
		if stderrors.As(err, &cfgErr) {
			field := cfgErr.Field
			if field == "" {
				field = cfgErr.Category
			}
			out = append(out, validation.ValidationError{
				Field:   "project." + field,
				Message: cfgErr.Error(),
				Code:    CodeUnknownLabel,
			})
		}
	}
	return out
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.FromEstimatorError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

// completeJob returns an error only when output cannot be encoded as job
// variables; the caller must then fail the job so it does not stay active.
func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("encode job variables: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, variables string) (*Output, error) {
	return h.execute(ctx, variables)
}
