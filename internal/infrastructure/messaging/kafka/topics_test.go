package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

type mockConn struct {
	created   []kafka.TopicConfig
	createErr error
	existing  map[string]bool
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.created = append(m.created, topics...)
	return m.createErr
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if len(topics) == 1 && m.existing[topics[0]] {
		return []kafka.Partition{{Topic: topics[0]}}, nil
	}
	return nil, errors.New("unknown topic")
}

func (m *mockConn) Close() error { return nil }

func TestEventEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEventEnvelope(EventReviewRequested, "cli", map[string]string{"text": "条款"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "v1", env.SchemaVersion)

	msg, err := env.ToMessage(TopicReviewRequested, "req-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("req-1"), msg.Key)
	assert.Equal(t, EventReviewRequested, msg.Headers["event_type"])

	back, err := MessageToEventEnvelope(&Message{Value: msg.Value})
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, back.DecodePayload(&payload))
	assert.Equal(t, "条款", payload["text"])
}

func TestEventEnvelope_Invalid(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
	_, err = MessageToEventEnvelope(&Message{Value: []byte("{")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSerialization))

	var v struct{}
	assert.Error(t, (&EventEnvelope{}).DecodePayload(&v))
}

func TestTopicManager_EnsureDefaultTopics(t *testing.T) {
	conn := &mockConn{}
	m := &TopicManager{conn: conn, logger: logging.NewNopLogger()}

	require.NoError(t, m.EnsureTopics(context.Background(), DefaultTopics()))
	require.Len(t, conn.created, 3)
	assert.Equal(t, TopicReviewRequested, conn.created[0].Topic)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
}

func TestTopicManager_AlreadyExists(t *testing.T) {
	conn := &mockConn{createErr: errors.New("broker said no"), existing: map[string]bool{TopicReviewCompleted: true}}
	m := &TopicManager{conn: conn, logger: logging.NewNopLogger()}

	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: TopicReviewCompleted, NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "other", NumPartitions: 1, ReplicationFactor: 1}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "bad"}))
}

//Personal.AI order the ending
