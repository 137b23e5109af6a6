// AngelaMos | 2026
// lockout.go

package auth

import (
	"time"

	"github.com/carterperez-dev/portfolio-api/internal/config"
)

// LockoutPolicy is the failed-login state machine. An account is either
// unlocked with a failure count below the threshold, or locked until a
// timestamp. Transitions are pure; persistence happens through a
// conditional atomic update keyed on the previously observed count.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

func NewLockoutPolicy(cfg config.SecurityConfig) LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:  cfg.LockoutMaxAttempts,
		LockDuration: cfg.LockoutDuration,
	}
}

type LockState struct {
	FailedCount int
	LockedUntil *time.Time
}

// IsLocked reports whether the account is locked at now. An expired lock
// does not count as locked; it is cleared on the next failure transition.
func (p LockoutPolicy) IsLocked(s LockState, now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// OnFailure returns the state after one more failed attempt. A stale lock
// resets the count before the increment; reaching the threshold locks the
// account for LockDuration.
func (p LockoutPolicy) OnFailure(s LockState, now time.Time) LockState {
	count := s.FailedCount
	if s.LockedUntil != nil && !now.Before(*s.LockedUntil) {
		count = 0
	}
	count++

	next := LockState{FailedCount: count}
	if count >= p.MaxAttempts {
		until := now.Add(p.LockDuration)
		next.LockedUntil = &until
	}

	return next
}
