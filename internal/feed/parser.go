package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/rental-sync-manager/backend/internal/logging"
)

// Parser turns raw iCalendar payloads into normalized ExternalRecords.
type Parser struct{}

// NewParser creates a feed parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts booking records from a raw feed. Events missing required
// fields (UID, DTSTART, DTEND) are skipped and counted as warnings; a
// malformed event never aborts the whole parse. DTEND is exclusive per
// calendar convention. The returned warning count is informational only.
func (p *Parser) Parse(raw []byte, platform string) ([]ExternalRecord, int, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing calendar: %w", err)
	}

	nameParser := ParserForPlatform(platform)

	var records []ExternalRecord
	warnings := 0

	for _, ve := range cal.Events() {
		record, err := p.parseEvent(ve, nameParser)
		if err != nil {
			warnings++
			logging.Warn("skipping malformed feed event", "platform", platform, "error", err)
			continue
		}
		records = append(records, record)
	}

	return records, warnings, nil
}

// parseEvent normalizes one VEVENT into an ExternalRecord.
func (p *Parser) parseEvent(ve *ical.VEvent, nameParser PlatformParser) (ExternalRecord, error) {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return ExternalRecord{}, fmt.Errorf("event missing UID")
	}

	start, err := eventStart(ve)
	if err != nil {
		return ExternalRecord{}, fmt.Errorf("event %s missing DTSTART: %w", uidProp.Value, err)
	}
	end, err := eventEnd(ve)
	if err != nil {
		return ExternalRecord{}, fmt.Errorf("event %s missing DTEND: %w", uidProp.Value, err)
	}

	checkIn := toDate(start)
	checkOut := toDate(end)
	if !checkIn.Before(checkOut) {
		return ExternalRecord{}, fmt.Errorf("event %s has non-positive stay (%s .. %s)",
			uidProp.Value, checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
	}

	summary := ""
	if prop := ve.GetProperty(ical.ComponentPropertySummary); prop != nil {
		summary = prop.Value
	}

	status := normalizeStatus(ve)
	guestName := nameParser.ExtractGuestName(summary)

	return ExternalRecord{
		ExternalID:  uidProp.Value,
		GuestName:   guestName,
		Summary:     summary,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Status:      status,
		ContentHash: ContentHash(checkIn, checkOut, guestName, status),
	}, nil
}

// eventStart reads DTSTART, handling both date-time and all-day values.
func eventStart(ve *ical.VEvent) (time.Time, error) {
	if t, err := ve.GetStartAt(); err == nil {
		return t, nil
	}
	return ve.GetAllDayStartAt()
}

// eventEnd reads DTEND, handling both date-time and all-day values.
func eventEnd(ve *ical.VEvent) (time.Time, error) {
	if t, err := ve.GetEndAt(); err == nil {
		return t, nil
	}
	return ve.GetAllDayEndAt()
}

// toDate truncates a timestamp to a UTC calendar date. Rental feeds are
// day-granular; whatever timezone the feed used, the civil date is what
// the booking occupies.
func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// normalizeStatus maps the iCal STATUS property onto booking statuses.
// TENTATIVE is treated as confirmed: a tentative hold still occupies dates.
func normalizeStatus(ve *ical.VEvent) string {
	prop := ve.GetProperty(ical.ComponentPropertyStatus)
	if prop == nil {
		return RecordStatusConfirmed
	}

	switch strings.ToUpper(strings.TrimSpace(prop.Value)) {
	case "CANCELLED":
		return RecordStatusCancelled
	default:
		return RecordStatusConfirmed
	}
}
