package amqp

import (
	"encoding/json"
	"time"

	"belanja/internal/store"
)

// ChangeMessage announces one committed write. Receivers re-read the store;
// the message carries ids only, never document contents.
type ChangeMessage struct {
	UserID     string           `json:"userId"`
	Kind       store.ChangeKind `json:"kind"`
	SessionID  string           `json:"sessionId,omitempty"`
	HistoryIDs []string         `json:"historyIds,omitempty"`
	Origin     string           `json:"origin"`
	Timestamp  time.Time        `json:"timestamp"`
}

func NewChangeMessage(c store.Change, origin string) *ChangeMessage {
	return &ChangeMessage{
		UserID:     c.UserID,
		Kind:       c.Kind,
		SessionID:  c.SessionID,
		HistoryIDs: c.HistoryIDs,
		Origin:     origin,
		Timestamp:  time.Now(),
	}
}

// Change converts the message back to the store's change description.
func (m *ChangeMessage) Change() store.Change {
	return store.Change{
		UserID:     m.UserID,
		Kind:       m.Kind,
		SessionID:  m.SessionID,
		HistoryIDs: m.HistoryIDs,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
