package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from POStatus
		to   POStatus
		ok   bool
	}{
		{POStatusDraft, POStatusConfirmed, true},
		{POStatusConfirmed, POStatusProducing, true},
		{POStatusProducing, POStatusShipped, true},
		{POStatusShipped, POStatusArrived, true},
		{POStatusDraft, POStatusCancelled, true},
		{POStatusConfirmed, POStatusCancelled, true},
		{POStatusProducing, POStatusCancelled, true},
		{POStatusShipped, POStatusCancelled, true},
		{POStatusDraft, POStatusShipped, false},
		{POStatusDraft, POStatusArrived, false},
		{POStatusConfirmed, POStatusDraft, false},
		{POStatusShipped, POStatusProducing, false},
		{POStatusArrived, POStatusCancelled, false},
		{POStatusArrived, POStatusDraft, false},
		{POStatusCancelled, POStatusDraft, false},
		{POStatusCancelled, POStatusConfirmed, false},
		{POStatusDraft, POStatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Contains(t, err.Error(), string(tt.from))
			assert.Contains(t, err.Error(), string(tt.to))
		})
	}
}

func TestCheckTransitionUnknownStatus(t *testing.T) {
	err := CheckTransition(POStatusDraft, POStatus("lost"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNextStatus(t *testing.T) {
	next, err := NextStatus(POStatusDraft, "")
	require.NoError(t, err)
	assert.Equal(t, POStatusConfirmed, next)

	next, err = NextStatus(POStatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, POStatusArrived, next)

	next, err = NextStatus(POStatusProducing, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, POStatusCancelled, next)

	_, err = NextStatus(POStatusDraft, "shipped")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = NextStatus(POStatusArrived, "")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = NextStatus(POStatusCancelled, "")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, status := range []POStatus{POStatusArrived, POStatusCancelled} {
		assert.True(t, status.IsTerminal())
		assert.False(t, status.HasInTransit())
		assert.Empty(t, status.AllowedTransitions())
	}
	for _, status := range []POStatus{POStatusDraft, POStatusConfirmed, POStatusProducing, POStatusShipped} {
		assert.False(t, status.IsTerminal())
		assert.True(t, status.HasInTransit())
		assert.True(t, status.CanTransitionTo(POStatusCancelled))
	}
}

func TestPathTo(t *testing.T) {
	path, err := PathTo(POStatusArrived)
	require.NoError(t, err)
	assert.Equal(t, []POStatus{POStatusConfirmed, POStatusProducing, POStatusShipped, POStatusArrived}, path)

	path, err = PathTo(POStatusDraft)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = PathTo(POStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, []POStatus{POStatusCancelled}, path)

	_, err = PathTo(POStatus("ordered"))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParsePOStatus(t *testing.T) {
	status, err := ParsePOStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, POStatusShipped, status)

	_, err = ParsePOStatus("overdue")
	assert.True(t, errors.Is(err, ErrValidation))
}
