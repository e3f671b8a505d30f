package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/bookies/internal/config"
)

// Throttle defaults, used when the configuration leaves a value unset.
const (
	DefaultThrottleThreshold = 3
	DefaultBaseCooldown      = 2 * time.Second
	DefaultMaxCooldown       = 500 * time.Second
)

var ErrThrottled = errors.New("too many login attempts")

// ThrottledError is returned when a login attempt arrives inside the cooldown window.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s, retry in %d seconds", ErrThrottled, e.RetryAfterSeconds())
}

func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// RetryAfterSeconds is the remaining wait in whole seconds, never negative.
func (e *ThrottledError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int(e.RetryAfter / time.Second)
}

// ThrottleState is the per-session failed login record.
type ThrottleState struct {
	Attempts      int
	LastAttemptAt time.Time
}

// Throttle applies exponential cooldowns once a session has failed
// Threshold logins: base * 2^(attempts-threshold), capped at Max.
type Throttle struct {
	Threshold    int
	BaseCooldown time.Duration
	MaxCooldown  time.Duration
}

// NewThrottle builds a throttle from auth config, falling back to defaults.
func NewThrottle(cfg config.Auth) Throttle {
	t := Throttle{
		Threshold:    cfg.ThrottleThreshold,
		BaseCooldown: cfg.ThrottleBaseCooldown,
		MaxCooldown:  cfg.ThrottleMaxCooldown,
	}
	if t.Threshold <= 0 {
		t.Threshold = DefaultThrottleThreshold
	}
	if t.BaseCooldown <= 0 {
		t.BaseCooldown = DefaultBaseCooldown
	}
	if t.MaxCooldown <= 0 {
		t.MaxCooldown = DefaultMaxCooldown
	}
	return t
}

// Cooldown returns the enforced wait for a session with the given number
// of failed attempts. Zero below the threshold.
func (t Throttle) Cooldown(attempts int) time.Duration {
	if attempts < t.Threshold {
		return 0
	}
	cooldown := t.BaseCooldown
	for i := t.Threshold; i < attempts; i++ {
		cooldown *= 2
		if cooldown >= t.MaxCooldown {
			return t.MaxCooldown
		}
	}
	if cooldown > t.MaxCooldown {
		return t.MaxCooldown
	}
	return cooldown
}

// Check returns a *ThrottledError when the session must keep waiting.
// A throttled session without a recorded attempt time counts as having
// just failed.
func (t Throttle) Check(state ThrottleState, now time.Time) error {
	cooldown := t.Cooldown(state.Attempts)
	if cooldown == 0 {
		return nil
	}

	var elapsed time.Duration
	if !state.LastAttemptAt.IsZero() {
		elapsed = now.Sub(state.LastAttemptAt)
	}
	if elapsed >= cooldown {
		return nil
	}

	// Whole elapsed seconds, so a fresh block reports the full cooldown
	remaining := cooldown - elapsed.Truncate(time.Second)
	return &ThrottledError{RetryAfter: remaining}
}

// RecordFailure counts a failed authentication.
func (t Throttle) RecordFailure(state *ThrottleState, now time.Time) {
	state.Attempts++
	state.LastAttemptAt = now
}

// Reset clears the failure record.
func (t Throttle) Reset(state *ThrottleState) {
	*state = ThrottleState{}
}
