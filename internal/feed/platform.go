package feed

import (
	"regexp"
	"strings"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// FallbackGuestName is used when a summary carries no recognizable name.
const FallbackGuestName = "Guest"

// PlatformParser extracts guest metadata from a feed event's free-text
// summary. Summary formats differ per platform; adding a platform means
// adding an implementation, not branching inside the feed parser.
type PlatformParser interface {
	ExtractGuestName(summary string) string
}

var (
	// Airbnb: "Reserved - Joana Silva" or "Reservation: Joana Silva (HMABC123)"
	airbnbGuestPattern = regexp.MustCompile(`(?i)^reserv(?:ed|ation)\s*[-:]\s*(.+?)\s*(?:\(|$)`)

	// Booking.com: "Joana Silva (Booking.com)" or just "Joana Silva"
	bookingGuestPattern = regexp.MustCompile(`^([^(]+?)\s*(?:\(|$)`)
)

// AirbnbParser understands Airbnb's "Reserved - <name>" summary format.
type AirbnbParser struct{}

// ExtractGuestName pulls the guest name out of an Airbnb event summary.
func (AirbnbParser) ExtractGuestName(summary string) string {
	text := strings.TrimSpace(summary)

	if m := airbnbGuestPattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}

	// Some feeds omit the separator: "Reserved Joana Silva"
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "reserved") || strings.HasPrefix(lower, "reservation") {
		if idx := strings.IndexAny(text, "-:"); idx != -1 {
			if name := strings.TrimSpace(text[idx+1:]); name != "" {
				return name
			}
		}
		return FallbackGuestName
	}

	if text != "" && !isBlockedSummary(lower) {
		return text
	}
	return FallbackGuestName
}

// BookingParser understands Booking.com's "<name> (Booking.com)" format.
type BookingParser struct{}

// ExtractGuestName pulls the guest name out of a Booking.com event summary.
func (BookingParser) ExtractGuestName(summary string) string {
	text := strings.TrimSpace(summary)
	if text == "" || isBlockedSummary(strings.ToLower(text)) {
		return FallbackGuestName
	}

	if m := bookingGuestPattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return text
}

// PassthroughParser is used for manually entered sources where the summary
// already is the guest name.
type PassthroughParser struct{}

// ExtractGuestName returns the trimmed summary as-is.
func (PassthroughParser) ExtractGuestName(summary string) string {
	if text := strings.TrimSpace(summary); text != "" {
		return text
	}
	return FallbackGuestName
}

var platformParsers = map[string]PlatformParser{
	models.PlatformAirbnb:  AirbnbParser{},
	models.PlatformBooking: BookingParser{},
	models.PlatformManual:  PassthroughParser{},
}

// ParserForPlatform returns the summary parser for a platform, falling back
// to the passthrough parser for unknown platforms.
func ParserForPlatform(platform string) PlatformParser {
	if p, ok := platformParsers[platform]; ok {
		return p
	}
	return PassthroughParser{}
}

// isBlockedSummary detects owner blocks and unavailability markers that
// platforms export as events without a guest.
func isBlockedSummary(lower string) bool {
	for _, marker := range []string{"blocked", "not available", "unavailable", "closed"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
