package snapshotjanitor

import (
	"time"
)

// Cutoff returns the instant before which snapshots are considered stale.
// The result is always in UTC so that eligibility never compares instants
// across timezone frames.
func Cutoff(now time.Time, ageThreshold time.Duration) time.Time {
	return now.UTC().Add(-ageThreshold)
}

// Eligible reports whether a snapshot created at the given instant should be
// deleted under the cutoff. A snapshot is eligible only if it is strictly
// older than the cutoff; one created exactly at the cutoff is retained.
func Eligible(created, cutoff time.Time) bool {
	return created.UTC().Before(cutoff.UTC())
}
