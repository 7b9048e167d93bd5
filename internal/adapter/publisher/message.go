// Package publisher fans committed notifications out to a message broker.
package publisher

import (
	"encoding/json"
	"time"

	"edufund-backend/internal/domain/notification"
)

// Message is the broker payload of one notification.
type Message struct {
	ID              string            `json:"id"`
	RecipientUserID string            `json:"recipient_user_id"`
	Type            string            `json:"type"`
	Title           string            `json:"title"`
	Message         string            `json:"message"`
	Payload         map[string]string `json:"payload,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func encode(n notification.Notification) ([]byte, error) {
	return json.Marshal(Message{
		ID:              n.ID,
		RecipientUserID: n.RecipientUserID,
		Type:            string(n.Type),
		Title:           n.Title,
		Message:         n.Message,
		Payload:         n.Payload,
		CreatedAt:       n.CreatedAt,
	})
}
