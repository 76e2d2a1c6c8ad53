// internal/workers/estimate/notify-renovation-estimate/config.go
package notifyrenovationestimate

import (
	"time"

	"renovation-estimator/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	ReplyTo      string
	SenderID     string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      20 * time.Second,
		EmailEnabled: true,
	}
}

// ConfigFromApp copies the notification section of the application config.
func ConfigFromApp(n config.NotificationConfig, timeout time.Duration) *Config {
	cfg := DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	cfg.EmailEnabled = n.Email.Enabled
	cfg.FromEmail = n.Email.FromEmail
	cfg.ReplyTo = n.Email.ReplyTo
	cfg.SMSEnabled = n.SMS.Enabled
	cfg.SenderID = n.SMS.SenderID
	return cfg
}
