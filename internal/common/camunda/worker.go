// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every estimate worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerPool opens job workers against one Zeebe client and closes them together.
type WorkerPool struct {
	client  zbc.Client
	logger  logger.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerPool(client zbc.Client, log logger.Logger) *WorkerPool {
	return &WorkerPool{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled. Starting the same
// task type twice is a no-op.
func (p *WorkerPool) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	fields := map[string]interface{}{logger.FieldTaskType: taskType}
	if !wcfg.Enabled {
		p.logger.Info("worker disabled", fields)
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.workers[taskType]; ok {
		p.logger.Warn("worker already started", fields)
		return false
	}

	jw := p.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	p.workers[taskType] = jw

	p.logger.Info("worker started", map[string]interface{}{
		logger.FieldTaskType: taskType,
		"maxJobsActive":      wcfg.MaxJobsActive,
		"timeoutMs":          wcfg.Timeout,
	})
	return true
}

// Running lists the task types with an open worker.
func (p *WorkerPool) Running() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.workers))
	for t := range p.workers {
		out = append(out, t)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for taskType, jw := range p.workers {
		p.logger.Info("stopping worker", map[string]interface{}{logger.FieldTaskType: taskType})
		jw.Close()
		jw.AwaitClose()
		delete(p.workers, taskType)
	}
}
