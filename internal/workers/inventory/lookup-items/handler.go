// internal/workers/inventory/lookup-items/handler.go
package lookupitems

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"oyz-trade/internal/assistant"
	apperrors "oyz-trade/internal/common/errors"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/common/metrics"
	"oyz-trade/internal/common/validation"
	"oyz-trade/internal/models"
	"oyz-trade/internal/recordstore"
)

const (
	TaskType = "inventory-lookup-items"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"itemName": {"type": "string"},
		"limit": {"type": "integer"}
	},
	"required": ["itemName"]
}`)

// Handler exposes the assistant's two-stage item lookup to processes
// that need candidates without a conversation around them.
type Handler struct {
	config *Config
	store  assistant.RecordStore
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, store assistant.RecordStore, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if res := inputSchema.ValidateJSON(job.Variables); !res.Valid {
		h.failJob(ctx, client, job, timer, apperrors.NewInvalidInputError(res.Err().Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, timer, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, timer, err)
		return
	}

	h.completeJob(client, job, output)
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":      job.Key,
		"duration_ms": timer.Elapsed().Milliseconds(),
	})
	timer.Completed()
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	name := strings.TrimSpace(input.ItemName)
	if name == "" {
		return nil, apperrors.NewInvalidInputError("itemName is required")
	}

	res, err := assistant.NewItemLookup(h.store, h.limit(input.Limit)).Find(ctx, name)
	if err != nil {
		return nil, storeError(ctx, err)
	}

	candidates := res.Candidates
	if candidates == nil {
		candidates = []models.CandidateItem{}
	}
	return &Output{
		Match:      string(res.Kind),
		Stage:      res.Stage,
		Candidates: candidates,
	}, nil
}

func (h *Handler) limit(requested int) int {
	switch {
	case requested <= 0:
		return h.config.DefaultLimit
	case h.config.MaxLimit > 0 && requested > h.config.MaxLimit:
		return h.config.MaxLimit
	default:
		return requested
	}
}

// storeError maps record store failures onto retryable job errors.
func storeError(ctx context.Context, err error) error {
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)

	switch {
	case recordstore.IsIndexNotFound(err):
		return apperrors.NewIndexNotFoundError(models.TableItems)
	case errors.Is(err, recordstore.ErrSearchFailed) && timedOut:
		return apperrors.NewSearchTimeoutError(models.TableItems)
	case errors.Is(err, recordstore.ErrSearchFailed):
		return apperrors.NewSearchQueryFailedError(models.TableItems, err)
	case timedOut:
		return apperrors.NewQueryTimeoutError(models.TableItems)
	default:
		return apperrors.NewQueryExecutionFailedError(models.TableItems, err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, timer *metrics.JobTimer, err error) {
	timer.Failed(string(apperrors.Normalize(err).Code))
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
