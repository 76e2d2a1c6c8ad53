// internal/workers/estimate/notify-renovation-estimate/handler.go
package notifyrenovationestimate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"renovation-estimator/internal/common/aws"
	"renovation-estimator/internal/common/errors"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/common/metrics"
	"renovation-estimator/internal/common/validation"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-renovation-estimate"
)

type Handler struct {
	config     *Config
	ses        aws.SESService
	sns        aws.SNSService
	templates  *renderer
	now        func() time.Time
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the notifier. ses or sns may be nil when the matching
// channel is disabled.
func NewHandler(config *Config, ses aws.SESService, sns aws.SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{logger.FieldTaskType: TaskType})
	return &Handler{
		config:     config,
		ses:        ses,
		sns:        sns,
		templates:  newRenderer(),
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
	if input.Estimate == nil {
		return nil, errors.NewEstimateInvalidInputError("estimate is required")
	}

	out := &Output{NotificationID: uuid.NewString(), Status: StatusDisabled}
	if !h.config.EmailEnabled && !h.config.SMSEnabled {
		h.logger.Info("notifications disabled", map[string]interface{}{logger.FieldEstimateID: input.EstimateID})
		return out, nil
	}

	recipient, err := checkRecipient(input.Recipient)
	if err != nil {
		return nil, err
	}

	msg, err := h.templates.render(input)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	sendEmail := h.config.EmailEnabled && recipient.Email != "" && h.ses != nil
	sendSMS := h.config.SMSEnabled && recipient.Phone != "" && h.sns != nil

	if sendEmail {
		res, err := h.ses.SendEmail(ctx, aws.Email{
			From:     h.config.FromEmail,
			ReplyTo:  h.config.ReplyTo,
			To:       []string{recipient.Email},
			Subject:  msg.Subject,
			TextBody: msg.Text,
			HTMLBody: msg.HTML,
		}.Input())
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		out.EmailSent = true
		if res != nil {
			out.EmailMessageID = awssdk.ToString(res.MessageId)
		}
	}

	if sendSMS {
		_, err := h.sns.Publish(ctx, aws.SMSInput(recipient.Phone, h.config.SenderID, msg.SMS))
		switch {
		case err == nil:
			out.SMSSent = true
		case !out.EmailSent:
			return nil, errors.NewNotificationSendFailedError("sms", err)
		default:
			// The email already went out; retrying would send it twice.
			h.logger.Warn("sms delivery failed", map[string]interface{}{
				logger.FieldEstimateID: input.EstimateID,
				"error":                err.Error(),
			})
		}
	}

	out.Status = StatusSkipped
	if out.EmailSent || out.SMSSent {
		out.Status = StatusSent
		out.SentAt = h.now().UTC()
	}

	h.logger.Info("estimate notification processed", map[string]interface{}{
		logger.FieldEstimateID: input.EstimateID,
		"notificationId":       out.NotificationID,
		"status":               out.Status,
		"emailSent":            out.EmailSent,
		"smsSent":              out.SMSSent,
	})
	return out, nil
}

// checkRecipient trims the contact details and requires at least one valid channel.
func checkRecipient(r *Recipient) (Recipient, error) {
	if r == nil {
		return Recipient{}, errors.NewInvalidRecipientError("recipient is required")
	}
	out := Recipient{
		Name:  strings.TrimSpace(r.Name),
		Email: strings.TrimSpace(r.Email),
		Phone: strings.ReplaceAll(strings.TrimSpace(r.Phone), " ", ""),
	}
	if out.Email == "" && out.Phone == "" {
		return Recipient{}, errors.NewInvalidRecipientError("recipient needs an email or a phone number")
	}
	if out.Email != "" && !validation.ValidateEmail(out.Email) {
		return Recipient{}, errors.NewInvalidRecipientError(fmt.Sprintf("invalid email address: %s", out.Email))
	}
	if out.Phone != "" && !validation.ValidatePhone(out.Phone) {
		return Recipient{}, errors.NewInvalidRecipientError(fmt.Sprintf("phone must be in E.164 format: %s", out.Phone))
	}
	return out, nil
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
