package services

import "time"

// LockoutPolicy decides how failed logins lock an account.
// A zero MaxFailedAttempts disables the lockout.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

// Locked reports whether the account is still locked at now.
func (p LockoutPolicy) Locked(lockoutEnd *time.Time, now time.Time) bool {
	return lockoutEnd != nil && lockoutEnd.After(now)
}

// FailedLogin returns the counter and lockout end to store after one more
// failed attempt, and the error to report. Reaching the limit locks the
// account and restarts the counter.
func (p LockoutPolicy) FailedLogin(attempts int, now time.Time) (int, *time.Time, error) {
	if p.MaxFailedAttempts <= 0 {
		return 0, nil, ErrUserPasswordMismatch
	}

	attempts++
	if attempts < p.MaxFailedAttempts {
		return attempts, nil, ErrUserPasswordMismatch
	}

	end := now.Add(p.Duration)
	return 0, &end, ErrUserLockedOut
}

// SucceededLogin returns the counter and lockout end to store after a
// successful login.
func (p LockoutPolicy) SucceededLogin() (int, *time.Time) {
	return 0, nil
}
