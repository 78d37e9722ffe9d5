package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("procurement.approve", map[string]int64{"purchase_order_id": 42})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, DefaultTaskMaxRetries, task.MaxRetries)
	assert.JSONEq(t, `{"purchase_order_id":42}`, string(task.Args))

	var args struct {
		PurchaseOrderID int64 `json:"purchase_order_id"`
	}
	require.NoError(t, task.DecodeArgs(&args))
	assert.Equal(t, int64(42), args.PurchaseOrderID)

	_, err = NewTask("", nil)
	assert.Error(t, err)
}

func TestTask_MarkFailed(t *testing.T) {
	t.Run("schedules retries with doubling countdown", func(t *testing.T) {
		task := &Task{ID: uuid.New(), Status: TaskStatusProcessing, MaxRetries: 2}

		before := time.Now()
		task.MarkFailed("provider down", 30*time.Second)
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, 1, task.RetryCount)
		require.NotNil(t, task.NextRunAt)
		assert.WithinDuration(t, before.Add(30*time.Second), *task.NextRunAt, time.Second)
		assert.True(t, task.CanRetry())

		task.Status = TaskStatusProcessing
		task.MarkFailed("provider down", 30*time.Second)
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.WithinDuration(t, before.Add(60*time.Second), *task.NextRunAt, time.Second)
	})

	t.Run("goes dead after max retries", func(t *testing.T) {
		task := &Task{ID: uuid.New(), Status: TaskStatusProcessing, MaxRetries: 2, RetryCount: 2}
		task.MarkFailed("malformed message", 30*time.Second)

		assert.True(t, task.IsDead())
		assert.Nil(t, task.NextRunAt)
		assert.Equal(t, "malformed message", task.LastError)
		assert.False(t, task.CanRetry())
	})

	t.Run("zero countdown uses default", func(t *testing.T) {
		task := &Task{ID: uuid.New(), Status: TaskStatusProcessing, MaxRetries: 2}
		task.MarkFailed("boom", 0)
		require.NotNil(t, task.NextRunAt)
		assert.WithinDuration(t, time.Now().Add(DefaultRetryCountdown), *task.NextRunAt, time.Second)
	})
}

func TestTask_MarkProcessing(t *testing.T) {
	for _, status := range []TaskStatus{TaskStatusPending, TaskStatusFailed} {
		task := &Task{Status: status}
		assert.NoError(t, task.MarkProcessing())
		assert.Equal(t, TaskStatusProcessing, task.Status)
	}
	for _, status := range []TaskStatus{TaskStatusProcessing, TaskStatusDone, TaskStatusDead} {
		task := &Task{Status: status}
		assert.Error(t, task.MarkProcessing(), "status %s", status)
	}
}

func TestTask_ResetForRetry(t *testing.T) {
	t.Run("resets dead task", func(t *testing.T) {
		task := &Task{ID: uuid.New(), Status: TaskStatusDead, RetryCount: 3, MaxRetries: 2, LastError: "boom"}

		require.NoError(t, task.ResetForRetry())
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, 0, task.RetryCount)
		assert.Empty(t, task.LastError)
		assert.Nil(t, task.NextRunAt)
	})

	t.Run("fails for live task", func(t *testing.T) {
		for _, status := range []TaskStatus{TaskStatusPending, TaskStatusProcessing, TaskStatusDone, TaskStatusFailed} {
			task := &Task{Status: status}
			assert.Error(t, task.ResetForRetry())
		}
	})
}

func TestTask_MarkDone(t *testing.T) {
	task := &Task{Status: TaskStatusProcessing}
	task.MarkDone()
	assert.Equal(t, TaskStatusDone, task.Status)
	assert.NotNil(t, task.ProcessedAt)
}
