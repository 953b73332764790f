package jcursor

import (
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tidwall/jsonc"
)

// jsonCodec loads JSON text into ordered documents and dumps values as
// indented JSON.
type jsonCodec struct {
	name string
	// relaxed strips comments and trailing commas before parsing.
	relaxed bool
}

func (c jsonCodec) Load(v any) (any, error) {
	src, ok := textBytes(v)
	if !ok {
		return nil, decodeErr(c.name, fmt.Errorf("expected text, got %T", v))
	}
	if c.relaxed {
		src = jsonc.ToJSON(src)
	}
	out, err := unmarshalJSON(src)
	if err != nil {
		return nil, decodeErr(c.name, err)
	}
	return out, nil
}

func (c jsonCodec) Dump(v any) (any, error) {
	out, err := marshalJSON(v)
	if err != nil {
		return nil, encodeErr(c.name, err)
	}
	return out, nil
}

func unmarshalJSON(src []byte) (any, error) {
	var out any
	if err := json.Unmarshal(src, &out, json.WithUnmarshalers(Unmarshalers())); err != nil {
		return nil, err
	}
	return out, nil
}

// marshalJSON renders v as JSON indented by two spaces. Ordered documents
// keep their key order; plain maps are sorted.
func marshalJSON(v any) (string, error) {
	if err := acyclic(v, walkPath{}); err != nil {
		return "", err
	}
	b, err := json.Marshal(v,
		json.WithMarshalers(Marshalers()),
		json.Deterministic(true),
		jsontext.WithIndent("  "),
	)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshalers returns the set of jcursor unmarshalers allowing decoding
// into:
//   - any/interface{} -> objects as D, arrays as A
//   - *D              -> direct ordered object decoding
//   - *A              -> direct array decoding
func Unmarshalers() *json.Unmarshalers {
	return json.JoinUnmarshalers(
		unmarshalValue(),
		unmarshalDocument(),
		unmarshalCollection(),
	)
}

// Marshalers returns the marshalers rendering D as an ordered JSON object and
// time.Time in the timestamp codec's ISO layout.
func Marshalers() *json.Marshalers {
	return json.JoinMarshalers(
		json.MarshalToFunc(func(enc *jsontext.Encoder, d D) error {
			if err := enc.WriteToken(jsontext.BeginObject); err != nil {
				return err
			}
			for _, e := range d {
				if err := enc.WriteToken(jsontext.String(e.Key)); err != nil {
					return err
				}
				if err := json.MarshalEncode(enc, e.Value); err != nil {
					return fmt.Errorf("write value for key %q: %w", e.Key, err)
				}
			}
			return enc.WriteToken(jsontext.EndObject)
		}),
		json.MarshalToFunc(func(enc *jsontext.Encoder, t time.Time) error {
			return enc.WriteToken(jsontext.String(t.Format(isoLayout)))
		}),
	)
}

// unmarshalValue wraps JSON objects as D rather than map[string]any and JSON
// arrays as A so callers can distinguish them from []any. Primitive values are
// left to the default logic by returning json.SkipFunc.
//
// Empty objects ({}) produce an empty D; empty arrays ([]) produce an empty A.
func unmarshalValue() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *any) error {
		switch dec.PeekKind() {
		case '{':
			d, err := decodeObject(dec)
			if err != nil {
				return err
			}
			*v = d
			return nil
		case '[':
			arr, err := decodeArray(dec)
			if err != nil {
				return err
			}
			*v = arr
			return nil
		default:
			return json.SkipFunc
		}
	})
}

// unmarshalDocument provides decoding of a JSON object into a *D when the
// target type is *D (ordered key preservation).
func unmarshalDocument() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *D) error {
		if dec.PeekKind() != '{' {
			return json.SkipFunc
		}
		d, err := decodeObject(dec)
		if err != nil {
			return err
		}
		*v = d
		return nil
	})
}

// unmarshalCollection provides decoding of a JSON array into an *A when the
// target type is *A.
func unmarshalCollection() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *A) error {
		if dec.PeekKind() != '[' {
			return json.SkipFunc
		}
		arr, err := decodeArray(dec)
		if err != nil {
			return err
		}
		*v = arr
		return nil
	})
}

// decodeObject decodes a JSON object into a D. A repeated key keeps its first
// position and its last value.
func decodeObject(dec *jsontext.Decoder) (D, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return nil, fmt.Errorf("read object open: %w", err)
	}
	res := D{}
	for dec.PeekKind() != '}' {
		var k string
		if err := json.UnmarshalDecode(dec, &k); err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		var vv any
		if err := json.UnmarshalDecode(dec, &vv); err != nil {
			return nil, fmt.Errorf("read object value for key %q: %w", k, err)
		}
		res = res.set(k, vv)
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return nil, fmt.Errorf("read object close: %w", err)
	}
	return res, nil
}

// decodeArray decodes a JSON array into A.
func decodeArray(dec *jsontext.Decoder) (A, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return nil, fmt.Errorf("read array open: %w", err)
	}
	arr := A{}
	for dec.PeekKind() != ']' {
		var elem any
		if err := json.UnmarshalDecode(dec, &elem); err != nil {
			return nil, fmt.Errorf("read array element: %w", err)
		}
		arr = append(arr, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return nil, fmt.Errorf("read array close: %w", err)
	}
	return arr, nil
}

// textBytes returns the text form of v when v is a string or a byte slice.
func textBytes(v any) ([]byte, bool) {
	switch t := v.(type) {
	case string:
		return []byte(t), true
	case []byte:
		return t, true
	}
	return nil, false
}
