// Package feed fetches and parses external booking calendar feeds.
package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record statuses as normalized from feed events.
const (
	RecordStatusConfirmed = "confirmed"
	RecordStatusCancelled = "cancelled"
)

// ExternalRecord is a normalized booking extracted from one calendar feed
// event, not yet reconciled with persisted state. CheckOut is exclusive:
// the check-out day itself is not occupied.
type ExternalRecord struct {
	ExternalID  string
	GuestName   string
	Summary     string
	CheckIn     time.Time
	CheckOut    time.Time
	Status      string
	ContentHash string
}

// Nights returns the stay length in nights.
func (r *ExternalRecord) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// ContentHash fingerprints the fields reconciliation cares about, so a
// changed booking can be detected without a full field comparison.
func ContentHash(checkIn, checkOut time.Time, guestName, status string) string {
	h := sha256.New()
	h.Write([]byte(checkIn.Format("2006-01-02")))
	h.Write([]byte{'|'})
	h.Write([]byte(checkOut.Format("2006-01-02")))
	h.Write([]byte{'|'})
	h.Write([]byte(guestName))
	h.Write([]byte{'|'})
	h.Write([]byte(status))
	return hex.EncodeToString(h.Sum(nil))
}
