package amqp

import (
	"encoding/json"
	"time"

	"salestats/internal/core"
)

// MessageTypeSeeded tags the message published after every ingestion run.
const MessageTypeSeeded = "transactions.seeded"

// SeedCompletedMessage is the wire form of core.SeedReport.
type SeedCompletedMessage struct {
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Ignored    int       `json:"ignored"`
	Failed     int       `json:"failed"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSeedCompletedMessage builds the message for report. A report without a
// finish time is stamped with the current time.
func NewSeedCompletedMessage(report core.SeedReport) *SeedCompletedMessage {
	ts := report.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &SeedCompletedMessage{
		Type:       MessageTypeSeeded,
		Source:     report.Source,
		Fetched:    report.Fetched,
		Inserted:   report.Inserted,
		Ignored:    report.Ignored,
		Failed:     report.Failed,
		DurationMs: report.Duration.Milliseconds(),
		Timestamp:  ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SeedCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SeedCompletedMessageFromJSON parses a message published by PublishSeedCompleted.
func SeedCompletedMessageFromJSON(data []byte) (*SeedCompletedMessage, error) {
	var msg SeedCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
