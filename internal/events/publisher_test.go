package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

type stubWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestPublishMergeCompleted(t *testing.T) {
	writer := &stubWriter{}
	publisher := NewPublisherWithWriter(writer)

	report := domain.NewReport("run-42", time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC))
	report.FinishedAt = report.StartedAt.Add(3 * time.Second)
	report.WeightRows = 120
	report.ActivityRows = 300
	report.SourceRows["Garmin/activity"] = 310
	report.Drop(domain.DropDuplicateIdentity)

	require.NoError(t, publisher.PublishMergeCompleted(context.Background(), report))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	require.Equal(t, "run-42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, "merge.completed", string(msg.Headers[0].Value))

	var payload MergeCompleted
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	require.Equal(t, "run-42", payload.RunID)
	require.Equal(t, 120, payload.WeightRows)
	require.Equal(t, 1, payload.Drops["duplicate_identity"])
	require.Equal(t, 310, payload.SourceRows["Garmin/activity"])
}

func TestPublishMergeCompletedWriterError(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unreachable")}
	publisher := NewPublisherWithWriter(writer)

	report := domain.NewReport("run-43", time.Now())
	require.Error(t, publisher.PublishMergeCompleted(context.Background(), report))
}

func TestClose(t *testing.T) {
	writer := &stubWriter{}
	publisher := NewPublisherWithWriter(writer)
	require.NoError(t, publisher.Close())
	require.True(t, writer.closed)
}
