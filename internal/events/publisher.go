// Package events publishes merge-run summaries to Kafka so downstream
// consumers (dashboards, the coaching assistant) learn that fresh master
// tables exist without polling the files.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

// MergeCompleted is the payload emitted after every successful run.
type MergeCompleted struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	WeightRows   int            `json:"weight_rows"`
	ActivityRows int            `json:"activity_rows"`
	Drops        map[string]int `json:"drops"`
	SourceRows   map[string]int `json:"source_rows"`
}

// Writer is the slice of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher emits merge events to one topic.
type Publisher struct {
	writer Writer
}

// NewPublisher builds a Publisher over brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}}
}

// NewPublisherWithWriter builds a Publisher over an existing writer.
func NewPublisherWithWriter(writer Writer) *Publisher {
	return &Publisher{writer: writer}
}

// PublishMergeCompleted emits the summary for a finished run.
func (p *Publisher) PublishMergeCompleted(ctx context.Context, report *domain.Report) error {
	drops := make(map[string]int, len(report.Drops))
	for reason, n := range report.Drops {
		drops[string(reason)] = n
	}
	payload := MergeCompleted{
		RunID:        report.RunID,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		WeightRows:   report.WeightRows,
		ActivityRows: report.ActivityRows,
		Drops:        drops,
		SourceRows:   report.SourceRows,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.RunID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("merge.completed")},
		},
	})
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
