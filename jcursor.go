// Package jcursor navigates and rewrites nested documents through a chainable
// cursor. A cursor addresses a node by a root-anchored dot path ("$.a.b") and
// every step either moves the cursor or rewrites the addressed node, for
// example by loading it through one of the registered codecs:
//
//	c := jcursor.New("eyJhIjoxfQ==")
//	v, err := c.B64Dec().Load("json").Value()
//
// Documents are built from D (ordered mapping), A (sequence) and scalars.
// Plain map[string]any and []any are accepted as containers as well.
package jcursor

import "slices"

// D represents a document, defined as an ordered collection of key-value pairs.
// Each entry in the document is represented by an E.
type D []E

// A represents an array, defined as a slice of values of any type.
type A []any

// E represents a single entry in a document. It consists of a string key and an
// associated value of any type.
type E struct {
	Key   string
	Value any
}

// Lookup returns the value stored under key and whether it was present.
func (d D) Lookup(key string) (any, bool) {
	if i := d.index(key); i >= 0 {
		return d[i].Value, true
	}
	return nil, false
}

// Keys returns the keys of d in order.
func (d D) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

func (d D) index(key string) int {
	for i := range d {
		if d[i].Key == key {
			return i
		}
	}
	return -1
}

// set replaces the value under key or appends a new entry.
func (d D) set(key string, v any) D {
	if i := d.index(key); i >= 0 {
		d[i].Value = v
		return d
	}
	return append(d, E{Key: key, Value: v})
}

// remove returns d without key. The result never shares its backing array
// with d, so d itself is left as it was.
func (d D) remove(key string) D {
	i := d.index(key)
	if i < 0 {
		return d
	}
	return slices.Concat(d[:i], d[i+1:])
}
