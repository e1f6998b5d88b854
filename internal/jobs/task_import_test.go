package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessTaskBadPayloadSkipsRetry(t *testing.T) {
	h := NewImportBatchHandler(nil, nil, nil, nil, nil)

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskImportBatch, []byte("{not json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessTaskBadBatchIDSkipsRetry(t *testing.T) {
	h := NewImportBatchHandler(nil, nil, nil, nil, nil)

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskImportBatch, []byte(`{"batch_id":"not-a-uuid"}`)))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestLastAttemptOutsideAsynq(t *testing.T) {
	// A context without asynq task metadata must count as terminal: better to
	// mark a batch failed once than to leave it running forever.
	assert.True(t, lastAttempt(context.Background()))
}
