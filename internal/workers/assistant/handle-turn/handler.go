// internal/workers/assistant/handle-turn/handler.go
package handleturn

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"oyz-trade/internal/assistant"
	apperrors "oyz-trade/internal/common/errors"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/common/metrics"
	"oyz-trade/internal/common/validation"
	"oyz-trade/internal/sessionstore"
)

const (
	TaskType = "assistant-handle-turn"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"conversationId": {"type": "string"},
		"utterance": {"type": "string"}
	},
	"required": ["utterance"]
}`)

// Handler runs one conversational turn per job. The pending selection
// lives in the session store between jobs of the same conversation.
type Handler struct {
	config   *Config
	interp   *assistant.Interpreter
	sessions sessionstore.Store
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, interp *assistant.Interpreter, sessions sessionstore.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		interp:   interp,
		sessions: sessions,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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
	conversationID := input.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	pending, err := h.sessions.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	// Effects are carried back to the process in the outcome, so there
	// is no host on this side.
	session := h.interp.NewSession(conversationID, nil)
	session.Restore(pending)

	outcome := session.HandleTurn(ctx, input.Utterance)

	if err := h.sessions.Save(ctx, conversationID, session.Pending()); err != nil {
		return nil, err
	}

	h.logger.Debug("turn persisted", map[string]interface{}{
		"conversationId": conversationID,
		"outcome":        outcome.Kind,
		"pending":        session.HasPendingSelection(),
	})

	return &Output{
		ConversationID:      conversationID,
		Outcome:             outcome,
		HasPendingSelection: session.HasPendingSelection(),
	}, nil
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
