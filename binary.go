package jcursor

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

var errNotUTF8 = errors.New("decoded bytes are not valid UTF-8")

// textCodec encodes text through a binary-to-text encoding. Load yields the
// decoded bytes as a UTF-8 string.
type textCodec struct {
	name   string
	decode func(string) ([]byte, error)
	encode func([]byte) string
}

func (c textCodec) Load(v any) (any, error) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return nil, decodeErr(c.name, fmt.Errorf("expected text, got %T", v))
	}
	b, err := c.decode(strings.TrimSpace(s))
	if err != nil {
		return nil, decodeErr(c.name, err)
	}
	if !utf8.Valid(b) {
		return nil, decodeErr(c.name, errNotUTF8)
	}
	return string(b), nil
}

func (c textCodec) Dump(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return c.encode([]byte(t)), nil
	case []byte:
		return c.encode(t), nil
	}
	return nil, encodeErr(c.name, fmt.Errorf("expected text or bytes, got %T", v))
}

// decodeBase64 accepts the standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		var b []byte
		if b, err = enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, err
}

var (
	base64Codec = textCodec{name: "base64", decode: decodeBase64, encode: base64.StdEncoding.EncodeToString}
	hexCodec    = textCodec{name: "hex", decode: hex.DecodeString, encode: hex.EncodeToString}
)

// cborCodec converts between CBOR bytes and values. Dumps use Core
// Deterministic Encoding so equal values produce identical bytes.
type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() (cborCodec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return cborCodec{}, fmt.Errorf("cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{
		// Documents only use string keys; map[any]any would leak into
		// paths that expect map[string]any.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return cborCodec{}, fmt.Errorf("cbor decoder: %w", err)
	}
	return cborCodec{enc: enc, dec: dec}, nil
}

func (c cborCodec) Load(v any) (any, error) {
	src, ok := textBytes(v)
	if !ok {
		return nil, decodeErr("cbor", fmt.Errorf("expected bytes, got %T", v))
	}
	var out any
	if err := c.dec.Unmarshal(src, &out); err != nil {
		return nil, decodeErr("cbor", err)
	}
	return out, nil
}

func (c cborCodec) Dump(v any) (any, error) {
	pv, err := plain(v)
	if err != nil {
		return nil, encodeErr("cbor", err)
	}
	b, err := c.enc.Marshal(pv)
	if err != nil {
		return nil, encodeErr("cbor", err)
	}
	return b, nil
}
