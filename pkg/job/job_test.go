package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusRetrying, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "normal", PriorityNormal.String())
	assert.Equal(t, "high", PriorityHigh.String())
	assert.Equal(t, "critical", PriorityCritical.String())
	assert.Equal(t, "unknown", Priority(42).String())
}

func TestPriorityOrdering(t *testing.T) {
	// Dispatch order relies on numeric comparison of priorities.
	assert.Greater(t, PriorityCritical, PriorityHigh)
	assert.Greater(t, PriorityHigh, PriorityNormal)
	assert.Greater(t, PriorityNormal, PriorityLow)
}

func TestNewDefaults(t *testing.T) {
	j := New("send-email", "email", map[string]any{"to": "ops@example.com"})

	require.NotEmpty(t, j.ID)
	assert.Equal(t, "send-email", j.Name)
	assert.Equal(t, "email", j.Handler)
	assert.Equal(t, StatusPending, j.Status)
	assert.Equal(t, PriorityNormal, j.Priority)
	assert.False(t, j.CreatedAt.IsZero())
	assert.Nil(t, j.StartedAt)
	assert.Nil(t, j.CompletedAt)
	assert.Zero(t, j.RetryCount)
}

func TestNewUniqueIDs(t *testing.T) {
	a := New("a", "h", nil)
	b := New("b", "h", nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSnapshotCopiesMaps(t *testing.T) {
	j := New("snap", "h", map[string]any{"k": "v"})
	j.Metadata = map[string]any{"tenant": "acme"}

	cp := j.Snapshot()
	cp.Payload["k"] = "mutated"
	cp.Metadata["tenant"] = "mutated"

	assert.Equal(t, "v", j.Payload["k"])
	assert.Equal(t, "acme", j.Metadata["tenant"])
}

func TestDue(t *testing.T) {
	now := time.Now()

	j := New("due", "h", nil)
	assert.True(t, j.Due(now), "unscheduled jobs are always due")

	future := now.Add(time.Hour)
	j.ScheduledAt = &future
	assert.False(t, j.Due(now))
	assert.True(t, j.Due(future))
	assert.True(t, j.Due(future.Add(time.Minute)))
}

func TestBuildDefaults(t *testing.T) {
	j, err := Build("report", "reports", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxRetries, j.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, j.RetryDelay)
	assert.Zero(t, j.Timeout)
	assert.Nil(t, j.ScheduledAt)
}

func TestBuildOptions(t *testing.T) {
	at := time.Now().Add(time.Minute)
	j, err := Build("report", "reports", nil,
		WithPriority(PriorityCritical),
		WithMaxRetries(1),
		WithRetryDelay(5*time.Second),
		WithTimeout(time.Minute),
		WithScheduleAt(at),
		WithMetadata(map[string]any{"source": "api"}),
	)
	require.NoError(t, err)

	assert.Equal(t, PriorityCritical, j.Priority)
	assert.Equal(t, 1, j.MaxRetries)
	assert.Equal(t, 5*time.Second, j.RetryDelay)
	assert.Equal(t, time.Minute, j.Timeout)
	require.NotNil(t, j.ScheduledAt)
	assert.True(t, j.ScheduledAt.Equal(at))
	assert.Equal(t, "api", j.Metadata["source"])
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name    string
		jobName string
		handler string
		opts    []Option
	}{
		{"empty name", "", "h", nil},
		{"empty handler", "j", "", nil},
		{"negative retries", "j", "h", []Option{WithMaxRetries(-1)}},
		{"negative delay", "j", "h", []Option{WithRetryDelay(-time.Second)}},
		{"negative timeout", "j", "h", []Option{WithTimeout(-time.Second)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.jobName, tt.handler, nil, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, "JOB_INVALID_INPUT", ErrorCode(err))
		})
	}
}
