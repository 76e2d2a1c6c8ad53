// internal/workers/estimate/persist-renovation-estimate/config.go
package persistrenovationestimate

import "time"

type Config struct {
	Timeout time.Duration
	// RejectDuplicates turns an already stored estimateId into a BPMN error
	// instead of completing the job.
	RejectDuplicates bool
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
