package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecordsInOrder(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Publish(context.Background(), TopicOrders, "1", NewEnvelope(TypeOrderPaid, map[string]int{"orderId": 1})))
	require.NoError(t, m.Publish(context.Background(), TopicOrders, "2", NewEnvelope(TypeOrderPaid, map[string]int{"orderId": 2})))

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Key)
	assert.Equal(t, TopicOrders, msgs[1].Topic)
}

func TestEnvelopeJSON(t *testing.T) {
	b, err := json.Marshal(NewEnvelope(TypeOrderPaid, map[string]string{"paymentId": "sim_1"}))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, TypeOrderPaid, out["type"])
	assert.NotEmpty(t, out["occurredAt"])
	assert.Equal(t, "sim_1", out["data"].(map[string]any)["paymentId"])
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), TopicOrders, "k", nil))
	assert.NoError(t, p.Close())
}
