package view

import (
	"context"
	"log/slog"
	"time"

	random "github.com/mazen160/go-random"
	"golang.org/x/time/rate"
)

const (
	// minimum spacing between real fetches within one course
	DefaultMinInterval = time.Second * 15
	// jitter added on top whenever a wait is actually needed, so the
	// request stream doesn't tick like a metronome
	DefaultMinJitter = time.Second * 5
	DefaultMaxJitter = time.Second * 30
)

// Throttle paces real (non-cached) fetches within a single course.
// All items of a course share the same instance, it is the per-course
// rate-limit token the platform's abuse detection cares about. It is
// not safe for concurrent use, fetches for one course are serialized
// by design.
type Throttle struct {
	limiter   *rate.Limiter
	minJitter time.Duration
	maxJitter time.Duration

	fetched   bool
	lastFetch time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

func NewThrottle(minInterval, minJitter, maxJitter time.Duration) *Throttle {
	return &Throttle{
		limiter:   rate.NewLimiter(rate.Every(minInterval), 1),
		minJitter: minJitter,
		maxJitter: maxJitter,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

func DefaultThrottle() *Throttle {
	return NewThrottle(DefaultMinInterval, DefaultMinJitter, DefaultMaxJitter)
}

// LastFetch is the time the previous real fetch went out (or resumed
// from its pause).
func (t *Throttle) LastFetch() time.Time {
	return t.lastFetch
}

func (t *Throttle) jitter() time.Duration {
	lo := int(t.minJitter / time.Second)
	hi := int(t.maxJitter / time.Second)
	if hi <= lo {
		return t.minJitter
	}
	secs, err := random.IntRange(lo, hi+1)
	if err != nil {
		return t.minJitter
	}
	return time.Duration(secs) * time.Second
}

// Wait blocks until the next real fetch is allowed to go out. The
// context is only honored before the pause starts, a pause that has
// begun always runs to completion.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := t.now()
	res := t.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	// nothing is owed before the first fetch, but a limiter whose
	// clock sits near the epoch starts out with zero tokens and
	// reports a full interval of debt
	if !t.fetched && delay > 0 {
		res.CancelAt(now)
		delay = 0
	}
	if delay > 0 {
		total := delay + t.jitter()
		slog.InfoContext(ctx, "pacing before next fetch", "wait", total.String())
		t.sleep(total)
	}

	t.fetched = true
	t.lastFetch = t.now()
	return nil
}
