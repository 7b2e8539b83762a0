package system

import (
	"context"
)

// RunWithContext runs operation in its own goroutine and waits for it or for
// ctx, whichever finishes first.
//
// The operation receives an independent context that is cancelled when ctx
// is done, so it can abort early. Even then RunWithContext waits for the
// operation to return and hands back its result, which lets shutdown code
// finish releasing resources.
//
// Returns:
//   - ctx.Err() if ctx is already done before the operation starts.
//   - the operation's own result otherwise.
func RunWithContext(ctx context.Context, operation func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Buffered so the goroutine can always deliver and exit.
	done := make(chan error, 1)

	go func() {
		done <- operation(opCtx)
		close(done)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return <-done
	}
}
