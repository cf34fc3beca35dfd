// Package sync implements the reconciliation pipeline: diffing feed
// records against stored bookings, detecting conflicts, generating
// operator actions, and driving the whole thing on a schedule.
package sync

import "errors"

var (
	// ErrSuspiciousEmptyFeed is returned when a feed parses to zero events
	// while confirmed bookings exist for the source. Mass-cancelling on a
	// feed that is likely broken would be worse than staying stale, so the
	// run aborts without mutating anything.
	ErrSuspiciousEmptyFeed = errors.New("feed is empty but confirmed bookings exist")

	// ErrSyncInProgress is returned by a manual trigger while a sync for
	// the same property is already running.
	ErrSyncInProgress = errors.New("sync already in progress for this property")
)
