package domain_test

import (
	"errors"
	"testing"

	"github.com/preflightci/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSource_CleanupRunsOnce(t *testing.T) {
	calls := 0
	src := domain.NewSource("/tmp/work", "project.zip", true, func() error {
		calls++
		return nil
	})

	assert.NoError(t, src.Cleanup())
	assert.NoError(t, src.Cleanup())
	assert.Equal(t, 1, calls)
}

func TestSource_CleanupWithoutFunc(t *testing.T) {
	src := domain.NewSource("/tmp/project", "/tmp/project", false, nil)
	assert.NoError(t, src.Cleanup())
	assert.False(t, src.Temporary)
}

func TestSource_CleanupErrorNotRetried(t *testing.T) {
	wantErr := errors.New("remove failed")
	src := domain.NewSource("/tmp/work", "project.zip", true, func() error {
		return wantErr
	})

	assert.ErrorIs(t, src.Cleanup(), wantErr)
	assert.NoError(t, src.Cleanup())
}
