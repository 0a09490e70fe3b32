package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(NewValidationError("", "quantity")))
	assert.True(t, IsClientError(fmt.Errorf("increment inventory: %w", ErrInvalidQuantity)))
	assert.True(t, IsClientError(invalidTransition("draft", "arrived")))
	assert.False(t, IsClientError(errors.New("connection reset by peer")))
	assert.False(t, IsClientError(fmt.Errorf("commit tx: %w", errors.New("broken pipe"))))
}
