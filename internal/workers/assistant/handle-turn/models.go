// internal/workers/assistant/handle-turn/models.go
package handleturn

import "oyz-trade/internal/assistant"

type Input struct {
	ConversationID string `json:"conversationId,omitempty"`
	Utterance      string `json:"utterance"`
}

type Output struct {
	ConversationID      string            `json:"conversationId"`
	Outcome             assistant.Outcome `json:"outcome"`
	HasPendingSelection bool              `json:"hasPendingSelection"`
}
