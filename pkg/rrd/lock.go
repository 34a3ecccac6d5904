package rrd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when a device lock could not be taken in time.
var ErrLocked = errors.New("device series is locked")

const lockRetryDelay = 50 * time.Millisecond

// withLock runs fn while holding the advisory lock next to the device file.
// Writers take the lock exclusively, readers shared; the lock also guards
// against another process (a cron run-once next to a loop) on the same files.
func (t *Tool) withLock(ctx context.Context, device string, exclusive bool, fn func() error) error {
	fl := flock.New(t.DatabasePath(device) + ".lock")
	defer func() { _ = fl.Close() }()

	lctx := ctx
	if t.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, t.cfg.LockTimeout)
		defer cancel()
	}

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = fl.TryLockContext(lctx, lockRetryDelay)
	} else {
		ok, err = fl.TryRLockContext(lctx, lockRetryDelay)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, device)
	}
	return fn()
}
