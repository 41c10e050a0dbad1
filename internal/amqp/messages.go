package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// SyncMessage asks the export worker to re-export one transaction. It is
// deliberately thin: only identity and version travel on the wire, the
// worker fetches the current row from storage when it processes the message.
type SyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id, version int64, action string) *SyncMessage {
	return &SyncMessage{
		ID:        id,
		Version:   version,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *SyncMessage) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("invalid message id %d", m.ID)
	}
	if m.Action != ActionUpsert && m.Action != ActionDelete {
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
