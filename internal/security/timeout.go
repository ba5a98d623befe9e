package security

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type timeoutGate struct {
	inner   Gate
	timeout time.Duration
}

// WithTimeout bounds every scan of g to d. A scan that overruns returns
// ErrScanTimeout even if g ignores its context. d <= 0 returns g unchanged.
func WithTimeout(g Gate, d time.Duration) Gate {
	if d <= 0 {
		return g
	}
	return &timeoutGate{inner: g, timeout: d}
}

type scanOutcome struct {
	res ScanResult
	err error
}

func (t *timeoutGate) Scan(ctx context.Context, path string) (ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan scanOutcome, 1)
	go func() {
		res, err := t.inner.Scan(ctx, path)
		done <- scanOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return ScanResult{}, fmt.Errorf("%w after %s: %s", ErrScanTimeout, t.timeout, path)
		}
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ScanResult{}, fmt.Errorf("%w after %s: %s", ErrScanTimeout, t.timeout, path)
		}
		return ScanResult{}, ctx.Err()
	}
}
