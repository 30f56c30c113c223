package services

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarEvent is one VEVENT extracted from an ICS feed. The calendar feed
// is display-only and independent of the content store.
type CalendarEvent struct {
	UID         string    `json:"uid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// ParseICS extracts events from an ICS calendar feed. Events without a
// summary or start date are skipped; a missing end date falls back to the
// start date.
func ParseICS(content string) []CalendarEvent {
	var events []CalendarEvent
	var current *CalendarEvent
	var hasStart bool

	for _, line := range strings.Split(unfoldICS(content), "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, "BEGIN:VEVENT"):
			current = &CalendarEvent{}
			hasStart = false
		case strings.HasPrefix(line, "END:VEVENT"):
			if current != nil && current.Title != "" && hasStart {
				if current.End.IsZero() {
					current.End = current.Start
				}
				events = append(events, *current)
			}
			current = nil
		case current != nil:
			colon := strings.Index(line, ":")
			if colon <= 0 {
				continue
			}
			// Property parameters (e.g. DTSTART;VALUE=DATE) are ignored.
			key := strings.SplitN(line[:colon], ";", 2)[0]
			value := decodeICSValue(line[colon+1:])

			switch key {
			case "UID":
				current.UID = value
			case "SUMMARY":
				current.Title = value
			case "DESCRIPTION":
				current.Description = value
			case "LOCATION":
				current.Location = value
			case "DTSTART":
				if t, ok := parseICSDate(value); ok {
					current.Start = t
					hasStart = true
				}
			case "DTEND":
				if t, ok := parseICSDate(value); ok {
					current.End = t
				}
			}
		}
	}
	return events
}

// FetchCalendarEvents downloads and parses an ICS feed, returning up to
// limit upcoming events sorted by start date. Any failure yields an empty
// slice: the calendar is decorative and must never fail a page.
func FetchCalendarEvents(ctx context.Context, feedURL string, limit int, log *slog.Logger) []CalendarEvent {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Warn("calendar feed fetch failed", "url", feedURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("calendar feed fetch failed", "url", feedURL, "status", resp.StatusCode)
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil
	}

	events := ParseICS(string(body))

	now := time.Now()
	upcoming := events[:0]
	for _, ev := range events {
		if !ev.Start.Before(now) {
			upcoming = append(upcoming, ev)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// unfoldICS joins folded continuation lines (RFC 5545 §3.1).
func unfoldICS(content string) string {
	content = strings.ReplaceAll(content, "\r\n ", "")
	content = strings.ReplaceAll(content, "\r\n\t", "")
	content = strings.ReplaceAll(content, "\n ", "")
	return strings.ReplaceAll(content, "\n\t", "")
}

func decodeICSValue(value string) string {
	r := strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";")
	return r.Replace(value)
}

// parseICSDate handles 20250115T140000Z, 20250115T140000 and 20250115.
func parseICSDate(raw string) (time.Time, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == 'T' || r == 'Z' {
			return r
		}
		return -1
	}, raw)

	if len(cleaned) < 8 {
		return time.Time{}, false
	}

	num := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	year, month, day := num(cleaned[0:4]), num(cleaned[4:6]), num(cleaned[6:8])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	if !strings.Contains(cleaned, "T") {
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
	}
	if len(cleaned) < 15 {
		return time.Time{}, false
	}

	hour, minute, second := num(cleaned[9:11]), num(cleaned[11:13]), num(cleaned[13:15])

	loc := time.Local
	if strings.HasSuffix(cleaned, "Z") {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), true
}
