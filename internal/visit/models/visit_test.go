package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatepass/pkg/domain-errors"
)

func TestNewVisitValidation(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.Local)

	t.Run("accepts a visit for today regardless of time of day", func(t *testing.T) {
		v, err := NewVisit(uuid.New(), uuid.New(), uuid.New(), "interview", now.Add(-14*time.Hour), now)
		require.NoError(t, err)
		assert.Equal(t, StatusPendingHost, v.Status)
		assert.Nil(t, v.RejectionReason)
	})

	t.Run("rejects a visit dated yesterday", func(t *testing.T) {
		_, err := NewVisit(uuid.New(), uuid.New(), uuid.New(), "interview", now.AddDate(0, 0, -1), now)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := NewVisit(uuid.New(), uuid.New(), uuid.Nil, "interview", now, now)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

		_, err = NewVisit(uuid.New(), uuid.New(), uuid.New(), "   ", now, now)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

		_, err = NewVisit(uuid.New(), uuid.New(), uuid.New(), "interview", time.Time{}, now)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestStatusTransitionTable(t *testing.T) {
	allStatuses := []Status{
		StatusPendingHost, StatusPendingSecurity, StatusApproved,
		StatusRejectedByHost, StatusCompleted, StatusCancelled,
	}
	allowed := map[Status][]Status{
		StatusPendingHost:     {StatusPendingSecurity, StatusRejectedByHost, StatusCancelled},
		StatusPendingSecurity: {StatusApproved},
		StatusApproved:        {StatusCompleted},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionAppendsHistoryAndEnforcesPreconditions(t *testing.T) {
	now := time.Now()
	visit, err := NewVisit(uuid.New(), uuid.New(), uuid.New(), "maintenance", now, now)
	require.NoError(t, err)
	host := visit.HostID

	t.Run("approve records old and new status", func(t *testing.T) {
		entry, err := visit.Transition(StatusPendingSecurity, host, "", now)
		require.NoError(t, err)
		require.NotNil(t, entry.OldStatus)
		assert.Equal(t, StatusPendingHost, *entry.OldStatus)
		assert.Equal(t, StatusPendingSecurity, entry.NewStatus)
		assert.Equal(t, StatusPendingSecurity, visit.Status)
	})

	t.Run("approving twice fails the precondition", func(t *testing.T) {
		_, err := visit.Transition(StatusPendingSecurity, host, "", now)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidTransition))
	})
}

func TestRejectionReasonInvariant(t *testing.T) {
	now := time.Now()
	visit, err := NewVisit(uuid.New(), uuid.New(), uuid.New(), "delivery", now, now)
	require.NoError(t, err)

	t.Run("rejection without a reason fails", func(t *testing.T) {
		_, err := visit.Transition(StatusRejectedByHost, visit.HostID, "  ", now)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
		assert.Equal(t, StatusPendingHost, visit.Status, "failed transition must not mutate")
		assert.Nil(t, visit.RejectionReason)
	})

	t.Run("rejection stores the reason", func(t *testing.T) {
		_, err := visit.Transition(StatusRejectedByHost, visit.HostID, "unknown visitor", now)
		require.NoError(t, err)
		require.NotNil(t, visit.RejectionReason)
		assert.Equal(t, "unknown visitor", *visit.RejectionReason)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		_, err := visit.Transition(StatusPendingSecurity, visit.HostID, "", now)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidTransition))
	})
}

func TestCreationHistoryHasNilOldStatus(t *testing.T) {
	now := time.Now()
	visit, err := NewVisit(uuid.New(), uuid.New(), uuid.New(), "meeting", now, now)
	require.NoError(t, err)

	entry := visit.CreationHistory(now)
	assert.Nil(t, entry.OldStatus)
	assert.Equal(t, StatusPendingHost, entry.NewStatus)
	assert.Equal(t, visit.GuestID, entry.ChangedBy)
}
