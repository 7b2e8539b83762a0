package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunWithContextReturnsOperationResult(t *testing.T) {
	want := errors.New("flush failed")
	err := RunWithContext(context.Background(), func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)

	assert.NoError(t, RunWithContext(context.Background(), func(context.Context) error { return nil }))
}

func TestRunWithContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := RunWithContext(ctx, func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestRunWithContextPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := RunWithContext(ctx, func(opCtx context.Context) error {
		<-opCtx.Done()
		return opCtx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
