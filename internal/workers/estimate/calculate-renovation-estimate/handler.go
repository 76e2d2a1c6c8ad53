// internal/workers/estimate/calculate-renovation-estimate/handler.go
package calculaterenovationestimate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/common/metrics"
	"renovation-estimator/internal/common/observability"
	"renovation-estimator/internal/estimator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TaskType = "calculate-renovation-estimate"
)

type Handler struct {
	config     *Config
	card       *estimator.RateCard
	redis      *redis.Client
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the handler. redis may be nil, which disables caching.
func NewHandler(config *Config, card *estimator.RateCard, redis *redis.Client, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{
		logger.FieldTaskType:       TaskType,
		logger.FieldPricingVersion: card.Version,
	})
	return &Handler{
		config:     config,
		card:       card,
		redis:      redis,
		obs:        obs,
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
		h.fail(ctx, client, job, errors.NewInputSchemaInvalidError(fmt.Sprintf("parse input: %v", err)), startTime)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.fail(ctx, client, job, errors.NewInternalError(err), startTime)
		return
	}
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "completed")
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	stdErr := errors.FromEstimatorError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "failed")
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := h.obs.StartSpan(ctx, TaskType,
		attribute.String("pricing.version", h.card.Version),
		attribute.Int("estimate.rooms", len(input.Project.Rooms)),
	)
	defer span.End()

	key, err := CacheKey(h.card.Version, input.Project)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	if cached, ok := h.lookup(ctx, key); ok {
		metrics.EstimateCacheHits.Inc()
		span.SetAttributes(attribute.Bool("estimate.cached", true))
		return h.output(cached, true), nil
	}
	metrics.EstimateCacheMisses.Inc()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewEstimateTimeoutError(err)
	}

	result, err := estimator.CalculateEstimate(h.card, input.Project)
	if err != nil {
		stdErr := errors.FromEstimatorError(err)
		metrics.EstimateFailures.WithLabelValues(string(stdErr.Code)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stdErr.Code))
		h.logger.Warn("estimate rejected", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		return nil, stdErr
	}

	metrics.EstimatesCalculated.WithLabelValues(result.PricingVersion, result.Currency).Inc()
	metrics.EstimateTotalAmount.WithLabelValues(result.Currency).Observe(result.Total)
	metrics.EstimateRooms.Observe(float64(len(result.Rooms)))
	span.SetAttributes(attribute.Float64("estimate.total", result.Total))

	h.store(ctx, key, result)

	h.logger.Info("estimate calculated", map[string]interface{}{
		"rooms":    len(result.Rooms),
		"subtotal": result.Subtotal,
		"total":    result.Total,
	})
	return h.output(result, false), nil
}

func (h *Handler) output(result *estimator.EstimateResult, cached bool) *Output {
	return &Output{
		Estimate:       result,
		EstimateTotal:  result.Total,
		FormattedTotal: h.card.FormatCurrency(result.Total),
		Currency:       result.Currency,
		PricingVersion: result.PricingVersion,
		Cached:         cached,
	}
}

// CacheKey identifies a project priced under one rate card version.
func CacheKey(version string, project estimator.ProjectInput) (string, error) {
	b, err := json.Marshal(project)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.New()
	sum.Write([]byte(version))
	sum.Write([]byte{0})
	sum.Write(b)
	return "estimate:" + version + ":" + hex.EncodeToString(sum.Sum(nil)), nil
}

// lookup never fails the job; an unreachable cache only costs a recalculation.
func (h *Handler) lookup(ctx context.Context, key string) (*estimator.EstimateResult, bool) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return nil, false
	}
	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			h.cacheUnavailable("get", err)
		}
		return nil, false
	}
	var result estimator.EstimateResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		h.logger.Warn("discarding unreadable cached estimate", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return &result, true
}

func (h *Handler) store(ctx context.Context, key string, result *estimator.EstimateResult) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("estimate not cached", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}
	if err := h.redis.Set(ctx, key, string(data), h.config.CacheTTL).Err(); err != nil {
		h.cacheUnavailable("set", err)
	}
}

func (h *Handler) cacheUnavailable(op string, err error) {
	stdErr := errors.NewCacheUnavailableError(err)
	h.logger.Warn("estimate cache unavailable", map[string]interface{}{
		"operation": op,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
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
