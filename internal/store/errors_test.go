package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(ErrWordNotFound))
	assert.True(t, IsNotFoundError(ErrWordListNotFound))
	assert.True(t, IsNotFoundError(ErrProgressNotFound))
	assert.True(t, IsNotFoundError(ErrSessionNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("lookup: %w", ErrWordNotFound)))

	assert.False(t, IsNotFoundError(ErrDuplicate))
	assert.False(t, IsNotFoundError(ErrSessionFinished))
	assert.False(t, IsNotFoundError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	inner := errors.New("constraint violated")
	err := NewStoreError("word_progress", "update", "write failed", inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "update operation on word_progress failed")
	assert.Contains(t, err.Error(), "constraint violated")

	var storeErr *StoreError
	assert.ErrorAs(t, fmt.Errorf("outer: %w", err), &storeErr)
	assert.Equal(t, "update", storeErr.Operation)

	bare := NewStoreError("session", "finish", "no terminal aggregate", nil)
	assert.Contains(t, bare.Error(), "finish operation on session failed")
}
