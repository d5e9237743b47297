// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"oyz-trade/internal/common/config"
	"oyz-trade/internal/common/logger"
)

// Worker is an open job worker for one task type.
type Worker struct {
	worker   worker.JobWorker
	taskType string
	logger   logger.Logger
}

// StartWorker opens a job worker for taskType. Callers check
// config.IsWorkerEnabled first.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler worker.JobHandler, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})

	return &Worker{worker: jobWorker, taskType: taskType, logger: log}
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the worker and waits for activated jobs to finish.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
