package jcursor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/clockz"
)

// isoLayout is the canonical rendering of instants: millisecond precision
// with a numeric zone offset ("Z" for UTC).
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// isoLayouts are tried in order when loading ISO-8601 text.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
	"2006-01",
	"2006",
	"20060102T150405Z0700",
	"20060102",
}

var millisPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// TimestampCodec loads instants from "now", epoch milliseconds or ISO-8601
// text and dumps them as ISO-8601.
type TimestampCodec struct {
	// Clock supplies "now". Defaults to clockz.RealClock.
	Clock clockz.Clock
	// Location is the zone instants are rendered in. Defaults to time.Local.
	Location *time.Location
}

func (c TimestampCodec) clock() clockz.Clock {
	if c.Clock == nil {
		return clockz.RealClock
	}
	return c.Clock
}

func (c TimestampCodec) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Load parses v into a time.Time.
func (c TimestampCodec) Load(v any) (any, error) {
	t, err := c.parse(v)
	if err != nil {
		return nil, decodeErr("timestamp", err)
	}
	return t, nil
}

func (c TimestampCodec) parse(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.In(c.location()), nil
	case float64:
		return c.fromMillis(t)
	case int:
		return c.fromMillis(float64(t))
	case int64:
		return c.fromMillis(float64(t))
	case uint64:
		return c.fromMillis(float64(t))
	case string:
		s := strings.TrimSpace(t)
		switch {
		case s == "now":
			return c.clock().Now().In(c.location()), nil
		case millisPattern.MatchString(s):
			ms, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return time.Time{}, err
			}
			return c.fromMillis(ms)
		}
		for _, layout := range isoLayouts {
			if parsed, err := time.ParseInLocation(layout, s, c.location()); err == nil {
				return parsed.In(c.location()), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
	}
	return time.Time{}, fmt.Errorf("cannot read timestamp from %T", v)
}

func (c TimestampCodec) fromMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, fmt.Errorf("invalid epoch milliseconds %v", ms)
	}
	whole, frac := math.Modf(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration(frac * float64(time.Millisecond))).In(c.location()), nil
}

// Dump renders v as ISO-8601, parsing it first when it is not a time.Time.
// Empty input dumps to nil.
func (c TimestampCodec) Dump(v any) (any, error) {
	if v == nil || v == "" {
		return nil, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		var err error
		if t, err = c.parse(v); err != nil {
			return nil, encodeErr("timestamp", err)
		}
	}
	return t.In(c.location()).Format(isoLayout), nil
}
