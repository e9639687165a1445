package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicConsumerStarted = "skytools.consumer.started"
	TopicConsumerStopped = "skytools.consumer.stopped"
	TopicBatchFinished   = "skytools.batch.finished"
	TopicBatchFailed     = "skytools.batch.failed"
)

// Event types

type ConsumerStarted struct {
	Queue      string    `json:"queue"`
	Consumer   string    `json:"consumer"`
	InstanceID string    `json:"instance_id"`
	StartedAt  time.Time `json:"started_at"`
}

type ConsumerStopped struct {
	Queue      string `json:"queue"`
	Consumer   string `json:"consumer"`
	InstanceID string `json:"instance_id"`
	Reason     string `json:"reason,omitempty"`
}

type BatchFinished struct {
	Queue      string `json:"queue"`
	Consumer   string `json:"consumer"`
	InstanceID string `json:"instance_id"`
	BatchID    int64  `json:"batch_id"`
	Events     int    `json:"events"`
}

type BatchFailed struct {
	Queue      string `json:"queue"`
	Consumer   string `json:"consumer"`
	InstanceID string `json:"instance_id"`
	BatchID    int64  `json:"batch_id"`
	EventID    int64  `json:"event_id,omitempty"`
	Error      string `json:"error"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
