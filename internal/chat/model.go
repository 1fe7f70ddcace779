package chat

import (
	"github.com/calmsphere/calmsphere/internal/conversation"
	"github.com/calmsphere/calmsphere/internal/credits"
	"github.com/calmsphere/calmsphere/internal/prompt"
)

// SendMessageRequest is the chat endpoint's request body.
type SendMessageRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=4000"`
	Language string `json:"language,omitempty" validate:"omitempty,max=40"`
}

// SendMessageResponse carries the assistant reply plus billing state so the
// client can render a credit meter without a second request.
type SendMessageResponse struct {
	Reply    string           `json:"reply"`
	Mode     prompt.Mode      `json:"mode"`
	Degraded bool             `json:"degraded"`
	Usage    credits.Snapshot `json:"usage"`
}

// HistoryResponse is the persisted transcript, oldest first.
type HistoryResponse struct {
	Turns []conversation.Turn `json:"turns"`
	Count int                 `json:"count"`
}
