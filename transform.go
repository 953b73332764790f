package jcursor

import (
	"fmt"
	"iter"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/ncruces/go-strftime"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
	intPrefix   = regexp.MustCompile(`^([+-]?)(?:0[xX]([0-9a-fA-F]+)|(\d+))`)
)

// Float parses the current value as a decimal number, reading the longest
// numeric prefix. Unparsable input stores NaN.
func (c *Cursor) Float() *Cursor {
	s, ok := c.text("float")
	if !ok {
		return c
	}
	return c.Set(parseFloatPrefix(s))
}

// Int parses the current value as an integer, reading the longest numeric
// prefix, and stores an int64. Unparsable input stores NaN as a float64.
func (c *Cursor) Int() *Cursor {
	s, ok := c.text("int")
	if !ok {
		return c
	}
	return c.Set(parseIntPrefix(s))
}

// text returns the current value rendered by stringify. On failure the
// cursor records the error and ok is false.
func (c *Cursor) text(op string) (s string, ok bool) {
	if c.err != nil {
		return "", false
	}
	cur, err := c.get(c.path)
	if err != nil {
		c.fail(op, err)
		return "", false
	}
	if s, err = stringify(cur); err != nil {
		c.fail(op, &PathError{Op: op, Path: c.path.String(), Err: err})
		return "", false
	}
	return s, true
}

func parseFloatPrefix(s string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	if strings.HasSuffix(m, "Infinity") {
		if m[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func parseIntPrefix(s string) any {
	m := intPrefix.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return math.NaN()
	}
	digits, base := m[3], 10
	if m[2] != "" {
		digits, base = m[2], 16
	}
	n, err := strconv.ParseInt(m[1]+digits, base, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// matchTimeout bounds a single match of a user pattern. Backtracking
// patterns can otherwise run for exponential time.
var matchTimeout = 5 * time.Second

func compilePattern(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", ErrParse, pattern, err)
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// Sub replaces the first match of pattern in the current value, rendered as
// text. Patterns use ECMAScript syntax; replacement may refer to groups as
// $1 or ${name}.
func (c *Cursor) Sub(pattern, replacement string) *Cursor {
	if c.err != nil {
		return c
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return c.fail("sub", err)
	}
	s, ok := c.text("sub")
	if !ok {
		return c
	}
	out, err := re.Replace(s, replacement, -1, 1)
	if err != nil {
		return c.fail("sub", &PathError{Op: "sub", Path: c.path.String(), Err: err})
	}
	return c.Set(out)
}

// Split replaces the current text with the sequence of its sep-separated
// parts.
func (c *Cursor) Split(sep string) *Cursor {
	s, ok := c.text("split")
	if !ok {
		return c
	}
	parts := strings.Split(s, sep)
	out := make(A, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return c.Set(out)
}

// Join replaces the current sequence with its elements joined by sep. Null
// elements join as empty strings.
func (c *Cursor) Join(sep string) *Cursor {
	if c.err != nil {
		return c
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("join", err)
	}
	var items []any
	switch s := cur.(type) {
	case A:
		items = s
	case []any:
		items = s
	default:
		return c.fail("join", &PathError{Op: "join", Path: c.path.String(), Err: fmt.Errorf("%w: %T", errNotSequence, cur)})
	}
	parts := make([]string, len(items))
	for i, item := range items {
		if item == nil {
			continue
		}
		if parts[i], err = stringify(item); err != nil {
			return c.fail("join", &PathError{Op: "join", Path: c.path.String(), Err: err})
		}
	}
	return c.Set(strings.Join(parts, sep))
}

// Timestamp loads the current value through the timestamp codec and renders
// it according to format:
//
//	epoch_ms, unix_ms, ms      milliseconds since the epoch (int64)
//	epoch_s, epoch, unix_s, unix  seconds since the epoch (float64)
//	iso                        2006-01-02T15:04:05.000Z07:00
//	date, isodate              2006-01-02
//	http                       Mon, 02 Jan 2006 15:04:05 GMT
//	sql                        2006-01-02 15:04:05.000 Z07:00
//	rfc2822, 2822              Mon, 02 Jan 2006 15:04:05 -0700
//
// Any other format is a strftime pattern such as "%Y/%m/%d %H:%M".
func (c *Cursor) Timestamp(format string) *Cursor {
	if c.err != nil {
		return c
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("timestamp", err)
	}
	v, _, err := c.registry.Convert("timestamp", ActionLoad, cur)
	if err != nil {
		return c.fail("timestamp", err)
	}
	t, ok := v.(time.Time)
	if !ok {
		return c.fail("timestamp", decodeErr("timestamp", fmt.Errorf("codec returned %T", v)))
	}
	return c.Set(formatTimestamp(t, format))
}

func formatTimestamp(t time.Time, format string) any {
	switch format {
	case "epoch_ms", "unix_ms", "ms":
		return t.UnixMilli()
	case "epoch_s", "epoch", "unix_s", "unix":
		return float64(t.UnixMilli()) / 1000
	case "iso", "":
		return t.Format(isoLayout)
	case "date", "isodate":
		return t.Format(time.DateOnly)
	case "http":
		return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
	case "sql":
		return t.Format("2006-01-02 15:04:05.000 Z07:00")
	case "rfc2822", "2822":
		return t.Format("Mon, 02 Jan 2006 15:04:05 -0700")
	}
	return strftime.Format(format, t)
}

// Randoms treats the current text as one random spec per line and replaces
// every non-empty line with a freshly generated value. Blank lines stay.
// Malformed lines use the cursor's base config, see WithRandomConfig.
func (c *Cursor) Randoms() *Cursor {
	return c.RandomsWith(c.random)
}

// RandomsWith is Randoms with an explicit base config.
func (c *Cursor) RandomsWith(base RandomConfig) *Cursor {
	s, ok := c.text("randoms")
	if !ok {
		return c
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		var err error
		if lines[i], err = RandomString(base, line); err != nil {
			return c.fail("randoms", err)
		}
	}
	return c.Set(strings.Join(lines, "\n"))
}

// Match is one regular expression match. Index is a rune offset into the
// text. Groups[0] is the whole match and unmatched groups are empty.
type Match struct {
	Index  int
	Text   string
	Groups []string
}

// Regex returns the non-overlapping matches of pattern in the current value.
// Matching happens while the sequence is ranged over; ranging again starts
// from the beginning. Regex does not change the cursor.
func (c *Cursor) Regex(pattern string) (iter.Seq[Match], error) {
	if c.err != nil {
		return nil, c.err
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	cur, err := c.get(c.path)
	if err != nil {
		return nil, err
	}
	s, err := stringify(cur)
	if err != nil {
		return nil, &PathError{Op: "regex", Path: c.path.String(), Err: err}
	}
	return func(yield func(Match) bool) {
		m, err := re.FindStringMatch(s)
		for m != nil && err == nil {
			groups := m.Groups()
			match := Match{Index: m.Index, Text: m.String(), Groups: make([]string, len(groups))}
			for i, g := range groups {
				if len(g.Captures) > 0 {
					match.Groups[i] = g.String()
				}
			}
			if !yield(match) {
				return
			}
			m, err = re.FindNextMatch(m)
		}
	}, nil
}

// stringify renders v as text: strings as is, numbers in their shortest form,
// instants as ISO-8601 and containers as JSON.
func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case time.Time:
		return t.Format(isoLayout), nil
	case D, A, map[string]any, []any:
		return marshalJSON(v)
	}
	return fmt.Sprint(v), nil
}

// Matches replaces the current value with an A of the matches of pattern:
// the matched text for patterns without groups, otherwise an A of the groups
// with the whole match first.
func (c *Cursor) Matches(pattern string) *Cursor {
	seq, err := c.Regex(pattern)
	if err != nil {
		return c.fail("matches", err)
	}
	out := A{}
	for m := range seq {
		if len(m.Groups) < 2 {
			out = append(out, m.Text)
			continue
		}
		groups := make(A, len(m.Groups))
		for i, g := range m.Groups {
			groups[i] = g
		}
		out = append(out, groups)
	}
	return c.Set(out)
}
