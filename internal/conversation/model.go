package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one immutable message in a user's conversation. Turns are only
// ever appended, and deleted solely by a per-user bulk clear.
type Turn struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn builds a turn with a fresh id and the current time.
func NewTurn(userID string, role Role, content string) Turn {
	return Turn{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
