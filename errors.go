package jcursor

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package matches one of them
// with errors.Is.
var (
	// ErrDecode is returned when a codec cannot load malformed input.
	ErrDecode = errors.New("decode error")

	// ErrEncode is returned when a codec cannot dump a value.
	ErrEncode = errors.New("encode error")

	// ErrAccess is returned when a path walks through a missing key or a
	// value that is not a container.
	ErrAccess = errors.New("access error")

	// ErrParse is returned for malformed paths, random specs, patterns and
	// pipeline scripts.
	ErrParse = errors.New("parse error")

	// ErrUnknownCodec is returned when no codec is registered under a name.
	ErrUnknownCodec = errors.New("unknown codec")
)

// CodecError reports a failed load or dump.
type CodecError struct {
	Codec  string
	Action Action
	Err    error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %q %s: %v", e.Codec, e.Action, e.Err)
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *CodecError) Unwrap() []error {
	sentinel := ErrDecode
	if e.Action == ActionDump {
		sentinel = ErrEncode
	}
	return []error{sentinel, e.Err}
}

// PathError reports a failed path resolution.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() []error {
	return []error{ErrAccess, e.Err}
}

func decodeErr(codec string, err error) error {
	return &CodecError{Codec: codec, Action: ActionLoad, Err: err}
}

func encodeErr(codec string, err error) error {
	return &CodecError{Codec: codec, Action: ActionDump, Err: err}
}
