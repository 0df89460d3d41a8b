package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{64, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial AMQP: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed delivery channel", errChannelClosed, true},
		{"amqp closed", fmt.Errorf("start consuming: %w", amqp091.ErrClosed), true},
		{"other", errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestTransactionChangeMessage(t *testing.T) {
	tx := core.Transaction{ID: "42", Date: "10/04/2024", Amount: 120000, Category: "Ăn uống"}
	msg := NewTransactionChange(ChangeDeleted, "sheet-1", tx, "04")

	raw, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"deleted"`)
	assert.Contains(t, string(raw), `"month":"04"`)

	back, err := TransactionChangeFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", back.TransactionID)
	assert.True(t, msg.Timestamp.Equal(back.Timestamp))

	_, err = TransactionChangeFromJSON([]byte("{"))
	assert.Error(t, err)
}

type recordingDeclarer struct {
	exchangeKind string
	durable      bool
	queue        struct {
		name                           string
		durable, autoDelete, exclusive bool
	}
	bound [3]string // queue, key, exchange
}

func (r *recordingDeclarer) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp091.Table) error {
	r.exchangeKind, r.durable = kind, durable
	return nil
}

func (r *recordingDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	r.queue.name, r.queue.durable, r.queue.autoDelete, r.queue.exclusive = name, durable, autoDelete, exclusive
	return amqp091.Queue{Name: "amq.gen-abc"}, nil
}

func (r *recordingDeclarer) QueueBind(name, key, exchange string, _ bool, _ amqp091.Table) error {
	r.bound = [3]string{name, key, exchange}
	return nil
}

func TestEveryConsumerGetsItsOwnQueue(t *testing.T) {
	ch := &recordingDeclarer{}
	require.NoError(t, declareExchange(ch, "chitieu.changes"))
	assert.Equal(t, "fanout", ch.exchangeKind)
	assert.True(t, ch.durable)

	queue, err := subscribe(ch, "chitieu.changes")
	require.NoError(t, err)
	assert.Equal(t, "amq.gen-abc", queue)
	assert.Empty(t, ch.queue.name, "server-named")
	assert.False(t, ch.queue.durable)
	assert.True(t, ch.queue.autoDelete)
	assert.True(t, ch.queue.exclusive)
	assert.Equal(t, [3]string{"amq.gen-abc", "", "chitieu.changes"}, ch.bound)
}
