// internal/workers/estimate/index-renovation-estimate/handler.go
package indexrenovationestimate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/common/metrics"
	"renovation-estimator/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "index-renovation-estimate"
)

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	now        func() time.Time
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:     config,
		client:     client,
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
	if input.EstimateID == "" {
		return nil, errors.NewEstimateInvalidInputError("estimateId is required")
	}
	if input.Estimate == nil {
		return nil, errors.NewEstimateInvalidInputError("estimate is required")
	}

	doc := models.NewEstimateDocument(input.EstimateID, input.Project, input.Estimate, h.now())
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(input.EstimateID),
		h.client.Index.WithRefresh(h.config.Refresh),
	)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, errors.NewIndexNotFoundError(h.config.Index)
		}
		return nil, errors.NewSearchIndexFailedError(h.config.Index, fmt.Errorf("%s", res.String()))
	}

	var ack struct {
		ID     string `json:"_id"`
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		h.logger.Warn("unreadable index response", map[string]interface{}{"error": err.Error()})
	}

	h.logger.Info("estimate indexed", map[string]interface{}{
		logger.FieldEstimateID: input.EstimateID,
		"index":                h.config.Index,
		"result":               ack.Result,
	})
	return &Output{
		Indexed:    true,
		IndexName:  h.config.Index,
		DocumentID: input.EstimateID,
		Result:     ack.Result,
	}, nil
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
