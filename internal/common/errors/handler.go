// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler fails or throws a job based on the normalized error code.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision describes what HandleJobError did with a job.
type Decision struct {
	Retry   bool
	Retries int
	BPMN    *BPMNError
}

// Decide normalizes err and chooses between a retrying fail and a BPMN throw.
func (h *ErrorHandler) Decide(job entities.Job, err error) (*StandardError, Decision) {
	stdErr := FromEstimatorError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := bpmnErr.Retries
	if retries > 0 && job.Retries > 0 {
		// job.Retries is what the broker has left; never raise it.
		if int(job.Retries) < retries {
			retries = int(job.Retries)
		}
		return stdErr, Decision{Retry: true, Retries: retries, BPMN: bpmnErr}
	}
	return stdErr, Decision{BPMN: bpmnErr}
}

// HandleJobError reports err back to the broker for the given job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr, d := h.Decide(job, err)
	h.logError(job, stdErr, d)

	if d.Retry {
		h.failJobWithRetries(ctx, client, job, d.BPMN, d.Retries)
		return
	}
	h.throwBPMNError(ctx, client, job, d.BPMN)
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, d Decision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    d.BPMN.Code,
		"message":          d.BPMN.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retry":            d.Retry,
		"retries":          d.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
