package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSHubBroadcastDelivers(t *testing.T) {
	hub := NewWSHub()
	client := &WSClient{send: make(chan []byte, 4)}
	hub.addClient(client)
	defer hub.removeClient(client)

	hub.Broadcast("import:update", map[string]interface{}{
		"batch_id": "b1",
		"status":   "running",
	})

	require.Len(t, client.send, 1)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(<-client.send, &msg))
	assert.Equal(t, "import:update", msg.Event)
}

func TestWSHubTracksActiveBatches(t *testing.T) {
	hub := NewWSHub()

	hub.Broadcast("import:update", map[string]interface{}{
		"batch_id": "b1",
		"status":   "running",
	})
	assert.Len(t, hub.activeBatches, 1)

	// A late joiner gets the in-flight state replayed.
	late := &WSClient{send: make(chan []byte, 4)}
	hub.addClient(late)
	hub.sendActiveBatches(late)
	assert.Len(t, late.send, 1)
	hub.removeClient(late)

	hub.Broadcast("import:update", map[string]interface{}{
		"batch_id": "b1",
		"status":   "complete",
	})
	assert.Empty(t, hub.activeBatches)
}

func TestWSHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewWSHub()
	slow := &WSClient{send: make(chan []byte)} // unbuffered, never read
	hub.addClient(slow)
	defer hub.removeClient(slow)

	// Must return immediately even though nothing drains the channel.
	hub.Broadcast("import:update", map[string]interface{}{
		"batch_id": "b2",
		"status":   "running",
	})
}
