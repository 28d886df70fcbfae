package utils

import "time"

// NextLockout decides the account state after one more failed login.
// It returns the new failed-attempt counter and, when the counter reaches
// the threshold, the time until which authentication must be refused.
// Counting restarts from the incremented value, so the attempt that
// crosses the threshold is the one that triggers the lock.
func NextLockout(failed, threshold int, window time.Duration, now time.Time) (int, *time.Time) {
	failed++
	if threshold > 0 && failed >= threshold {
		until := now.Add(window)
		return failed, &until
	}
	return failed, nil
}
