package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportRequestMessage asks the worker to generate the report for one month.
// It carries only the month key; the worker reads the current summary and
// ledger state itself, so a delayed delivery still renders fresh data.
type ReportRequestMessage struct {
	ID        uuid.UUID `json:"id"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportRequestMessage(month string) *ReportRequestMessage {
	return &ReportRequestMessage{
		ID:        uuid.New(),
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
