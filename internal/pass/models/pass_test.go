package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatepass/pkg/domain-errors"
)

func TestWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 30, 0, 0, time.Local)

	t.Run("default window covers the full visit day", func(t *testing.T) {
		from, until := Window(now, now, 0)
		assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local), from)
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local), until)
	})

	t.Run("valid_hours starts the window now", func(t *testing.T) {
		from, until := Window(now.AddDate(0, 0, 3), now, 4)
		assert.Equal(t, now, from)
		assert.Equal(t, now.Add(4*time.Hour), until)
	})
}

func TestCheckUsable(t *testing.T) {
	now := time.Now()
	pass, err := NewPass(uuid.New(), uuid.New(), uuid.New(), "A1B2C3D4", now.Add(-time.Hour), now.Add(time.Hour), now)
	require.NoError(t, err)

	t.Run("inside the window", func(t *testing.T) {
		assert.NoError(t, pass.CheckUsable(now))
	})

	t.Run("before the window", func(t *testing.T) {
		err := pass.CheckUsable(now.Add(-2 * time.Hour))
		assert.True(t, dErrors.Is(err, dErrors.CodeNotYetValid))
	})

	t.Run("valid_from itself is usable, valid_until is not", func(t *testing.T) {
		assert.NoError(t, pass.CheckUsable(pass.ValidFrom))
		assert.True(t, dErrors.Is(pass.CheckUsable(pass.ValidUntil), dErrors.CodeExpired))
	})

	t.Run("after the window", func(t *testing.T) {
		err := pass.CheckUsable(now.Add(2 * time.Hour))
		assert.True(t, dErrors.Is(err, dErrors.CodeExpired))
	})

	t.Run("used wins over expired", func(t *testing.T) {
		require.NoError(t, pass.MarkUsed(now))
		err := pass.CheckUsable(now.Add(2 * time.Hour))
		assert.True(t, dErrors.Is(err, dErrors.CodeAlreadyUsed))
	})
}

func TestMarkUsedIsSingleShot(t *testing.T) {
	now := time.Now()
	pass, err := NewPass(uuid.New(), uuid.New(), uuid.New(), "A1B2C3D4", now.Add(-time.Hour), now.Add(time.Hour), now)
	require.NoError(t, err)

	require.NoError(t, pass.MarkUsed(now))
	require.NotNil(t, pass.UsedAt)
	assert.True(t, dErrors.Is(pass.MarkUsed(now), dErrors.CodeAlreadyUsed))
}

func TestNewPassValidation(t *testing.T) {
	now := time.Now()

	_, err := NewPass(uuid.New(), uuid.Nil, uuid.New(), "A1B2C3D4", now, now.Add(time.Hour), now)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = NewPass(uuid.New(), uuid.New(), uuid.Nil, "A1B2C3D4", now, now.Add(time.Hour), now)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = NewPass(uuid.New(), uuid.New(), uuid.New(), "SHORT", now, now.Add(time.Hour), now)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

	_, err = NewPass(uuid.New(), uuid.New(), uuid.New(), "A1B2C3D4", now, now, now)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestIssuePassRequestValidate(t *testing.T) {
	assert.Error(t, (&IssuePassRequest{}).Validate())
	assert.Error(t, (&IssuePassRequest{VisitID: "x", ValidHours: -1}).Validate())
	assert.Error(t, (&IssuePassRequest{VisitID: "x", ValidHours: 25}).Validate())
	assert.NoError(t, (&IssuePassRequest{VisitID: "x", ValidHours: 8}).Validate())
	assert.NoError(t, (&IssuePassRequest{VisitID: "x"}).Validate())
}
