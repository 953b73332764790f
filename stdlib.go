package jcursor

import "github.com/zoobzio/clockz"

var (
	// JSON loads JSON text into D/A values and dumps values as JSON
	// indented by two spaces.
	JSON = NewCodec("json", jsonCodec{name: "json"}, DetectByType)

	// JSONC is JSON extended with // and /* */ comments and trailing commas.
	// It dumps plain JSON.
	JSONC = NewCodec("jsonc", jsonCodec{name: "jsonc", relaxed: true}, DetectByType)

	// YAML loads one document, or an A of documents when the input holds
	// several, and dumps a single document.
	YAML = NewCodec("yaml", yamlCodec{}, DetectByType)

	// Literal parses object-literal text such as {a: 'x', ok: True} without
	// evaluating anything. It dumps JSON.
	Literal = NewCodec("literal", literalCodec{}, DetectByType)

	// Base64 decodes to and encodes from UTF-8 text.
	Base64 = NewCodec("base64", base64Codec, DetectLoadFirst)

	// Hex decodes to and encodes from UTF-8 text.
	Hex = NewCodec("hex", hexCodec, DetectLoadFirst)

	// Timestamp uses the wall clock for "now" and renders in local time.
	Timestamp = NewTimestamp(TimestampCodec{})
)

// NewTimestamp registers c as the "timestamp" codec. Use it to pin the clock or
// the rendering zone:
//
//	jcursor.NewRegistry(jcursor.NewTimestamp(jcursor.TimestampCodec{
//		Clock:    clockz.NewFakeClock(),
//		Location: time.UTC,
//	}))
func NewTimestamp(c TimestampCodec) Registration {
	return NewCodec("timestamp", c, DetectByType)
}

// CBOR converts between CBOR bytes and values.
func CBOR() Registration {
	return func(r *Registry) error {
		c, err := newCBORCodec()
		if err != nil {
			return err
		}
		return r.Register("cbor", c, DetectLoadFirst)
	}
}

// Aliases are the short names kept for existing pipelines.
func Aliases() Registration {
	return Group(
		Alias("b64", "base64"),
		Alias("js", "literal"),
		Alias("date", "timestamp"),
	)
}

// Stdlib bundles every built-in codec and its aliases.
func Stdlib() Registration {
	return StdlibWithClock(nil)
}

// StdlibWithClock is Stdlib with the timestamp codec reading "now" from clock.
// A nil clock means the wall clock.
func StdlibWithClock(clock clockz.Clock) Registration {
	ts := Timestamp
	if clock != nil {
		ts = NewTimestamp(TimestampCodec{Clock: clock})
	}
	return Group(JSON, JSONC, YAML, Literal, Base64, Hex, ts, CBOR(), Aliases())
}

// DefaultRegistry holds Stdlib. Cursors use it unless given another registry.
var DefaultRegistry = MustNewRegistry(Stdlib())
