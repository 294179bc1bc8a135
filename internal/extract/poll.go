package extract

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/pocket/internal/errors"
)

// Poller repeats a check at a fixed interval until it succeeds or runs out
// of attempts.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int

	// Sleep waits for d or until ctx is done. Nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Poll sleeps, then calls cond, up to MaxAttempts times. It returns nil on
// the first true, cond's error if any, LOGIN_TIMEOUT once attempts are
// exhausted, or the context error if ctx ends first.
func (p Poller) Poll(ctx context.Context, cond func() (bool, error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return errors.NewLoginTimeout(p.MaxAttempts)
}

// LoginPending reports whether url is still on a login or sign-in page.
func LoginPending(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "/login") || strings.Contains(u, "/sign")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func secondsOr(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
