// internal/workers/estimate/persist-renovation-estimate/handler.go
package persistrenovationestimate

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"renovation-estimator/internal/common/database"
	"renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/common/metrics"
	"renovation-estimator/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "persist-renovation-estimate"
)

// Store is satisfied by *database.EstimateStore.
type Store interface {
	Insert(ctx context.Context, rec *models.EstimateRecord) error
}

type Handler struct {
	config     *Config
	store      Store
	now        func() time.Time
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:     config,
		store:      store,
		now:        time.Now,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInputSchemaInvalidError(fmt.Sprintf("parse input: %v", err)))
		return
	}
	input.processInstance = job.ProcessInstanceKey
	input.elementInstance = job.ElementInstanceKey

	output, err := h.execute(ctx, &input)
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

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.FromEstimatorError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Estimate == nil {
		return nil, errors.NewEstimateInvalidInputError("estimate is required")
	}

	id := input.EstimateID
	if id == "" {
		id = EstimateIDFor(input.processInstance, input.elementInstance)
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, errors.NewEstimateInvalidInputError(fmt.Sprintf("estimateId %q is not a UUID", id))
	}

	now := h.now().UTC()
	rec, err := models.NewEstimateRecord(id, input.Project, input.Estimate, input.processInstance, now)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	log := h.logger.WithFields(map[string]interface{}{logger.FieldEstimateID: id})
	output := &Output{EstimateID: id, PersistedAt: now.Format(time.RFC3339)}

	if err := h.store.Insert(ctx, rec); err != nil {
		switch {
		case stderrors.Is(err, database.ErrDuplicateEstimate):
			if h.config.RejectDuplicates {
				return nil, errors.NewDuplicateEstimateError(id)
			}
			// A retried job whose first attempt already committed.
			log.Info("estimate already stored", nil)
			output.Duplicate = true
			return output, nil
		case stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
			return nil, errors.NewQueryTimeoutError("insert estimate")
		default:
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
	}

	log.Info("estimate stored", map[string]interface{}{
		"total":    rec.Total,
		"currency": rec.Currency,
	})
	return output, nil
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

// estimateNamespace scopes the name-based ids minted by EstimateIDFor.
var estimateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:renovation-estimator:estimate"))

// EstimateIDFor returns a version 5 UUID for one activation of the persist
// task. Without a process instance there is nothing stable to derive from,
// so a random id is returned.
func EstimateIDFor(processInstance, elementInstance int64) string {
	if processInstance == 0 {
		return uuid.NewString()
	}
	name := fmt.Sprintf("%d/%d", processInstance, elementInstance)
	return uuid.NewSHA1(estimateNamespace, []byte(name)).String()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
