package match

import (
	"strconv"
	"strings"
	"time"

	"github.com/teranos/revset/internal/revset/rerrors"
	"github.com/teranos/revset/internal/revset/types"
)

// DatePatternKind selects which bound a DatePattern represents.
type DatePatternKind int

const (
	// AtOrAfter matches timestamps t with earliest <= t (inclusive lower
	// bound), produced by the `after:` modifier.
	AtOrAfter DatePatternKind = iota
	// Before matches timestamps t with t < latest (strict upper bound),
	// produced by the `before:` modifier.
	Before
)

// DatePattern represents a date-range bound built from `after:`/`before:`
// natural-language dates relative to "now" (§4.1, §4.4).
type DatePattern struct {
	Kind   DatePatternKind
	Millis types.MillisSinceEpoch
}

// Matches reports whether ts satisfies the pattern.
func (d DatePattern) Matches(ts types.Timestamp) bool {
	switch d.Kind {
	case AtOrAfter:
		return int64(d.Millis) <= int64(ts.Millis)
	case Before:
		return int64(ts.Millis) < int64(d.Millis)
	default:
		return false
	}
}

// ParseDatePattern parses s under kind ("after" or "before") relative to
// now, following jj's DatePattern::from_str_kind semantics: absolute
// RFC3339/date-only/date-time strings are accepted as-is; everything else
// is interpreted as a relative expression ("N units ago", "N units",
// "now", "today", "yesterday", "tomorrow"). A time of day after one of
// these words is not accepted.
func ParseDatePattern(s, kind string, now time.Time) (DatePattern, error) {
	var k DatePatternKind
	switch kind {
	case "after":
		k = AtOrAfter
	case "before":
		k = Before
	default:
		return DatePattern{}, rerrors.Newf("invalid date pattern kind `%s:`", kind)
	}

	t, err := parseDateExpr(strings.TrimSpace(s), now)
	if err != nil {
		return DatePattern{}, rerrors.Wrapf(rerrors.ErrInvalidStringPattern, "date pattern %q: %v", s, err)
	}
	return DatePattern{Kind: k, Millis: types.MillisSinceEpoch(t.UnixMilli())}, nil
}

var absoluteLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDateExpr(s string, now time.Time) (time.Time, error) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			if layout == "2006-01-02" || layout == "01/02/2006" {
				// A date without a time means local midnight (§ per jj's
				// time_util tests): anchor to the given day at 00:00 in
				// now's offset.
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
			}
			return t, nil
		}
	}

	lower := strings.ToLower(s)
	switch {
	case lower == "now":
		return now, nil
	case lower == "today":
		return startOfDay(now), nil
	case lower == "yesterday":
		return startOfDay(now.AddDate(0, 0, -1)), nil
	case lower == "tomorrow":
		return startOfDay(now.AddDate(0, 0, 1)), nil
	}

	if t, ok, err := parseRelative(lower, now); ok {
		return t, err
	}

	return time.Time{}, rerrors.Newf("unrecognized date expression %q", s)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseRelative handles "<n> <unit>(s) [ago]", e.g. "2 hours ago",
// "5 minutes", "1 week ago". A bare duration with no "ago" is interpreted
// as being in the future, matching jj's "5 minutes" -> +5m test case.
func parseRelative(s string, now time.Time) (time.Time, bool, error) {
	ago := false
	rest := s
	if strings.HasSuffix(rest, " ago") {
		ago = true
		rest = strings.TrimSuffix(rest, " ago")
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return time.Time{}, false, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false, nil
	}
	unit := strings.TrimSuffix(fields[1], "s")
	var d time.Duration
	switch unit {
	case "second", "sec":
		d = time.Duration(n) * time.Second
	case "minute", "min":
		d = time.Duration(n) * time.Minute
	case "hour":
		d = time.Duration(n) * time.Hour
	case "day":
		d = time.Duration(n) * 24 * time.Hour
	case "week":
		d = time.Duration(n) * 7 * 24 * time.Hour
	case "month":
		t := now.AddDate(0, sign(ago)*n, 0)
		return t, true, nil
	case "year":
		t := now.AddDate(sign(ago)*n, 0, 0)
		return t, true, nil
	default:
		return time.Time{}, false, nil
	}
	if ago {
		return now.Add(-d), true, nil
	}
	return now.Add(d), true, nil
}

func sign(ago bool) int {
	if ago {
		return -1
	}
	return 1
}
