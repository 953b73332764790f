package jcursor

import "errors"

// Action selects the direction of a conversion.
type Action string

const (
	// ActionAuto picks load or dump from the input, see Policy.
	ActionAuto Action = "auto"
	// ActionLoad parses text into a value.
	ActionLoad Action = "load"
	// ActionDump renders a value as text.
	ActionDump Action = "dump"
)

// Codec is a bidirectional transform between text and values.
type Codec interface {
	// Load parses its input. Malformed input fails with an error matching
	// ErrDecode.
	Load(v any) (any, error)
	// Dump renders its input. Unrepresentable values fail with an error
	// matching ErrEncode.
	Dump(v any) (any, error)
}

// Policy decides how ActionAuto resolves for a codec.
type Policy int

const (
	// DetectByType dumps anything that is not a string. Strings are loaded,
	// and a string that fails to load is returned unchanged as a dump.
	DetectByType Policy = iota
	// DetectLoadFirst always tries to load and dumps the original value if
	// loading fails for any reason.
	DetectLoadFirst
)

// auto resolves ActionAuto for c under policy p.
func auto(c Codec, p Policy, v any) (any, Action, error) {
	if p == DetectLoadFirst {
		if out, err := c.Load(v); err == nil {
			return out, ActionLoad, nil
		}
		out, err := c.Dump(v)
		return out, ActionDump, err
	}

	s, ok := v.(string)
	if !ok {
		out, err := c.Dump(v)
		return out, ActionDump, err
	}
	out, err := c.Load(s)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return s, ActionDump, nil
		}
		return nil, ActionLoad, err
	}
	return out, ActionLoad, nil
}

// CodecFuncs adapts a pair of functions to the Codec interface.
type CodecFuncs struct {
	LoadFunc func(any) (any, error)
	DumpFunc func(any) (any, error)
}

func (f CodecFuncs) Load(v any) (any, error) { return f.LoadFunc(v) }

func (f CodecFuncs) Dump(v any) (any, error) { return f.DumpFunc(v) }
