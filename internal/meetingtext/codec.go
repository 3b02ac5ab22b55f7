// Package meetingtext marshals structured meeting parameters into and out of
// the free-text description field shared by all request types. The encoding is
// a fixed-order block of prefixed lines followed by a blank line and the
// free-text purpose. Decoding is total: malformed or missing fields degrade to
// documented defaults instead of failing.
package meetingtext

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/campushq/mentor-portal-api/internal/models"
)

const (
	prefixDate     = "Preferred Date:"
	prefixTime     = "Preferred Time:"
	prefixDuration = "Duration:"
	prefixType     = "Type:"

	// DefaultDurationMinutes applies when the duration line is absent or unparsable.
	DefaultDurationMinutes = 60
)

// DefaultMeetingType applies when the type line is absent or carries an unknown value.
const DefaultMeetingType = models.MeetingTypeInPerson

// Params holds the structured scheduling fields carried through a meeting
// request's description. An empty PreferredDate or PreferredTime means unset.
type Params struct {
	PreferredDate   string             `json:"preferredDate"`
	PreferredTime   string             `json:"preferredTime"`
	DurationMinutes int                `json:"durationMinutes"`
	MeetingType     models.MeetingType `json:"meetingType"`
	Purpose         string             `json:"purpose"`
}

// Normalize fills zero values with the documented defaults and trims the
// purpose padding that Decode would strip anyway, so Decode(p.Encode())
// always equals p.Normalize().
func (p Params) Normalize() Params {
	if p.DurationMinutes <= 0 {
		p.DurationMinutes = DefaultDurationMinutes
	}
	if !p.MeetingType.Valid() {
		p.MeetingType = DefaultMeetingType
	}
	p.Purpose = strings.TrimSpace(p.Purpose)
	return p
}

// ScheduledAt combines the preferred date and time into an absolute timestamp.
// It fails when either part is unset or unparsable; callers must treat that as
// a validation failure rather than fall back to a guessed time.
func (p Params) ScheduledAt() (time.Time, error) {
	date := strings.TrimSpace(p.PreferredDate)
	clock := strings.TrimSpace(p.PreferredTime)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("meeting date/time not set")
	}
	raw := date + "T" + clock
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid meeting date/time %q", raw)
}

// Encode renders the params as the canonical description block. The line order
// and prefixes are a stable contract consumed by Decode and by the legacy UI.
func (p Params) Encode() string {
	p = p.Normalize()
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", prefixDate, p.PreferredDate)
	fmt.Fprintf(&b, "%s %s\n", prefixTime, p.PreferredTime)
	fmt.Fprintf(&b, "%s %d minutes\n", prefixDuration, p.DurationMinutes)
	fmt.Fprintf(&b, "%s %s\n", prefixType, p.MeetingType)
	b.WriteString("\n")
	b.WriteString(p.Purpose)
	return b.String()
}

// Decode extracts params from a description block. It never fails: the first
// line matching each prefix wins, absent fields take defaults, and every line
// not claimed by a prefix becomes part of the purpose.
func Decode(text string) Params {
	params := Params{
		DurationMinutes: DefaultDurationMinutes,
		MeetingType:     DefaultMeetingType,
	}

	var (
		haveDate, haveTime, haveDuration, haveType bool
		purposeLines                               []string
	)

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, prefixDate) && !haveDate:
			params.PreferredDate = lineValue(line, prefixDate)
			haveDate = true
		case strings.HasPrefix(line, prefixTime) && !haveTime:
			params.PreferredTime = lineValue(line, prefixTime)
			haveTime = true
		case strings.HasPrefix(line, prefixDuration) && !haveDuration:
			params.DurationMinutes = parseDuration(lineValue(line, prefixDuration))
			haveDuration = true
		case strings.HasPrefix(line, prefixType) && !haveType:
			params.MeetingType = parseMeetingType(lineValue(line, prefixType))
			haveType = true
		default:
			purposeLines = append(purposeLines, line)
		}
	}

	params.Purpose = strings.TrimSpace(strings.Join(purposeLines, "\n"))
	return params
}

func lineValue(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}

// parseDuration accepts values like "30" or "30 minutes"; the numeric token
// wins and trailing text is discarded.
func parseDuration(raw string) int {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return DefaultDurationMinutes
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil || minutes <= 0 {
		return DefaultDurationMinutes
	}
	return minutes
}

func parseMeetingType(raw string) models.MeetingType {
	mt := models.MeetingType(strings.ToLower(strings.TrimSpace(raw)))
	if !mt.Valid() {
		return DefaultMeetingType
	}
	return mt
}
