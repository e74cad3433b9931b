package amqp

import (
	"encoding/json"
	"time"
)

// Report output formats carried on the queue.
const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"
)

// ReportJobMessage asks the worker to render one report document. It
// carries the scope selection verbatim; the worker re-reads transactions
// itself so the message stays small.
type ReportJobMessage struct {
	JobID         string    `json:"job_id"`
	UserID        int64     `json:"user_id"`
	SelectionKind string    `json:"selection_kind"`
	ProjectID     int64     `json:"project_id,omitempty"`
	BalanceID     int64     `json:"balance_id,omitempty"`
	Period        string    `json:"period"`
	Format        string    `json:"format"`
	Timestamp     time.Time `json:"timestamp"`
}

func (m *ReportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportJobMessageFromJSON(data []byte) (*ReportJobMessage, error) {
	var msg ReportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
