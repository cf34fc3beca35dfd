package feed

import (
	"strings"
	"testing"
	"time"
)

func buildCalendar(events ...string) []byte {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Test//EN\r\n")
	for _, e := range events {
		sb.WriteString(e)
	}
	sb.WriteString("END:VCALENDAR\r\n")
	return []byte(sb.String())
}

func event(lines ...string) string {
	return "BEGIN:VEVENT\r\n" + strings.Join(lines, "\r\n") + "\r\nEND:VEVENT\r\n"
}

func TestParseExtractsRecords(t *testing.T) {
	raw := buildCalendar(
		event(
			"UID:res-1@airbnb.com",
			"DTSTART;VALUE=DATE:20250110",
			"DTEND;VALUE=DATE:20250115",
			"SUMMARY:Reserved - Joana Silva",
		),
	)

	records, warnings, err := NewParser().Parse(raw, "airbnb")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if warnings != 0 {
		t.Errorf("warnings = %d; want 0", warnings)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d; want 1", len(records))
	}

	r := records[0]
	if r.ExternalID != "res-1@airbnb.com" {
		t.Errorf("ExternalID = %q", r.ExternalID)
	}
	if r.GuestName != "Joana Silva" {
		t.Errorf("GuestName = %q; want Joana Silva", r.GuestName)
	}
	wantIn := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	wantOut := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !r.CheckIn.Equal(wantIn) || !r.CheckOut.Equal(wantOut) {
		t.Errorf("dates = %v .. %v; want %v .. %v", r.CheckIn, r.CheckOut, wantIn, wantOut)
	}
	if r.Status != RecordStatusConfirmed {
		t.Errorf("Status = %q; want confirmed", r.Status)
	}
	if r.Nights() != 5 {
		t.Errorf("Nights() = %d; want 5", r.Nights())
	}
	if r.ContentHash == "" {
		t.Error("ContentHash is empty")
	}
}

func TestParseDateTimeValuesTruncateToDates(t *testing.T) {
	raw := buildCalendar(
		event(
			"UID:res-2",
			"DTSTART:20250203T160000Z",
			"DTEND:20250206T110000Z",
			"SUMMARY:Maria Lopez (Booking.com)",
		),
	)

	records, _, err := NewParser().Parse(raw, "booking")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d; want 1", len(records))
	}

	r := records[0]
	if !r.CheckIn.Equal(time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CheckIn = %v; want 2025-02-03", r.CheckIn)
	}
	if !r.CheckOut.Equal(time.Date(2025, 2, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("CheckOut = %v; want 2025-02-06", r.CheckOut)
	}
	if r.GuestName != "Maria Lopez" {
		t.Errorf("GuestName = %q; want Maria Lopez", r.GuestName)
	}
}

func TestParseSkipsMalformedEvents(t *testing.T) {
	raw := buildCalendar(
		event("UID:good-1", "DTSTART;VALUE=DATE:20250110", "DTEND;VALUE=DATE:20250112", "SUMMARY:Reserved - A"),
		event("DTSTART;VALUE=DATE:20250113", "DTEND;VALUE=DATE:20250114", "SUMMARY:no uid"),
		event("UID:good-2", "DTSTART;VALUE=DATE:20250115", "DTEND;VALUE=DATE:20250117", "SUMMARY:Reserved - B"),
		event("UID:no-end", "DTSTART;VALUE=DATE:20250118", "SUMMARY:Reserved - C"),
		event("UID:good-3", "DTSTART;VALUE=DATE:20250120", "DTEND;VALUE=DATE:20250122", "SUMMARY:Reserved - D"),
	)

	records, warnings, err := NewParser().Parse(raw, "airbnb")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("len(records) = %d; want 3", len(records))
	}
	if warnings != 2 {
		t.Errorf("warnings = %d; want 2", warnings)
	}
}

func TestParseRejectsNonPositiveStay(t *testing.T) {
	raw := buildCalendar(
		event("UID:zero", "DTSTART;VALUE=DATE:20250110", "DTEND;VALUE=DATE:20250110", "SUMMARY:Reserved - X"),
	)

	records, warnings, err := NewParser().Parse(raw, "airbnb")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 0 || warnings != 1 {
		t.Errorf("records = %d, warnings = %d; want 0 records, 1 warning", len(records), warnings)
	}
}

func TestParseNormalizesStatus(t *testing.T) {
	raw := buildCalendar(
		event("UID:cancelled", "DTSTART;VALUE=DATE:20250110", "DTEND;VALUE=DATE:20250112", "STATUS:CANCELLED", "SUMMARY:Reserved - X"),
		event("UID:tentative", "DTSTART;VALUE=DATE:20250113", "DTEND;VALUE=DATE:20250115", "STATUS:TENTATIVE", "SUMMARY:Reserved - Y"),
	)

	records, _, err := NewParser().Parse(raw, "airbnb")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d; want 2", len(records))
	}
	if records[0].Status != RecordStatusCancelled {
		t.Errorf("cancelled event Status = %q", records[0].Status)
	}
	if records[1].Status != RecordStatusConfirmed {
		t.Errorf("tentative event Status = %q; want confirmed", records[1].Status)
	}
}

func TestParseGarbageFails(t *testing.T) {
	if _, _, err := NewParser().Parse([]byte("not a calendar at all"), "airbnb"); err == nil {
		t.Error("expected error for non-calendar input")
	}
}

func TestContentHashChangesWithFields(t *testing.T) {
	in := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	base := ContentHash(in, out, "Joana", "confirmed")
	if base != ContentHash(in, out, "Joana", "confirmed") {
		t.Error("hash is not deterministic")
	}
	if base == ContentHash(in, out.AddDate(0, 0, 1), "Joana", "confirmed") {
		t.Error("hash should change with dates")
	}
	if base == ContentHash(in, out, "Joana", "cancelled") {
		t.Error("hash should change with status")
	}
}
