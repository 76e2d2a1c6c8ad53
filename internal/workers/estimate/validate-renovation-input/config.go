// internal/workers/estimate/validate-renovation-input/config.go
package validaterenovationinput

import "time"

type Config struct {
	Timeout time.Duration
	// InputSchema comes from the activity registry; nil selects ProjectInputSchema.
	InputSchema map[string]interface{}
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
