package amqp

import (
	"encoding/json"
	"time"
)

// EventNotification is a lightweight nudge telling workers that new
// events were appended. It carries only the last global sequence and a
// count; consumers read the actual events from the log.
type EventNotification struct {
	LastSeq   int64     `json:"last_seq"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEventNotification(lastSeq int64, count int) *EventNotification {
	return &EventNotification{
		LastSeq:   lastSeq,
		Count:     count,
		Timestamp: time.Now(),
	}
}

func (m *EventNotification) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventNotificationFromJSON(data []byte) (*EventNotification, error) {
	var msg EventNotification
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
