// internal/workers/estimate/notify-renovation-estimate/models.go
package notifyrenovationestimate

import (
	"time"

	"renovation-estimator/internal/estimator"
)

const (
	StatusSent     = "sent"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)

type Recipient struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Input struct {
	EstimateID string                    `json:"estimateId"`
	Project    estimator.ProjectInput    `json:"project"`
	Estimate   *estimator.EstimateResult `json:"estimate"`
	Recipient  *Recipient                `json:"recipient"`
}

type Output struct {
	NotificationID string    `json:"notificationId"`
	Status         string    `json:"notificationStatus"`
	EmailSent      bool      `json:"emailSent"`
	EmailMessageID string    `json:"emailMessageId,omitempty"`
	SMSSent        bool      `json:"smsSent"`
	SentAt         time.Time `json:"sentAt"`
}
