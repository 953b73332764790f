package jcursor

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

var (
	errNotContainer = errors.New("not a container")
	errMissingKey   = errors.New("missing key")
	errBadIndex     = errors.New("invalid sequence index")
	errCycle        = errors.New("value contains itself")
)

// walkPath holds the containers between the root of a recursive walk and
// the current node. A container met again while still on the path is a
// cycle.
type walkPath map[[2]uintptr]struct{}

// enter pushes v onto the path. The returned func pops it again.
func (w walkPath) enter(v any) (func(), error) {
	switch v.(type) {
	case D, A, map[string]any, []any:
	default:
		return func() {}, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Len() == 0 {
		return func() {}, nil
	}
	id := [2]uintptr{rv.Pointer(), uintptr(rv.Len())}
	if _, ok := w[id]; ok {
		return nil, fmt.Errorf("%w: %T", errCycle, v)
	}
	w[id] = struct{}{}
	return func() { delete(w, id) }, nil
}

// isContainer reports whether v can hold children.
func isContainer(v any) bool {
	switch v.(type) {
	case D, A, map[string]any, []any:
		return true
	}
	return false
}

func isMapping(v any) bool {
	switch v.(type) {
	case D, map[string]any:
		return true
	}
	return false
}

func index(key string, n int, allowAppend bool) (int, error) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w %q", errBadIndex, key)
	}
	limit := n
	if allowAppend {
		limit++
	}
	if i >= limit {
		return 0, fmt.Errorf("%w %q (length %d)", errBadIndex, key, n)
	}
	return i, nil
}

// child returns the value stored under key in container.
func child(container any, key string) (any, bool, error) {
	switch c := container.(type) {
	case D:
		v, ok := c.Lookup(key)
		return v, ok, nil
	case map[string]any:
		v, ok := c[key]
		return v, ok, nil
	case A:
		i, err := index(key, len(c), false)
		if err != nil {
			return nil, false, nil
		}
		return c[i], true, nil
	case []any:
		i, err := index(key, len(c), false)
		if err != nil {
			return nil, false, nil
		}
		return c[i], true, nil
	}
	return nil, false, fmt.Errorf("%w: %T", errNotContainer, container)
}

// withChild stores v under key and returns the updated container. Mappings
// grow as needed, sequences accept an index up to their length.
func withChild(container any, key string, v any) (any, error) {
	switch c := container.(type) {
	case D:
		return c.set(key, v), nil
	case map[string]any:
		c[key] = v
		return c, nil
	case A:
		i, err := index(key, len(c), true)
		if err != nil {
			return nil, err
		}
		if i == len(c) {
			return append(c, v), nil
		}
		c[i] = v
		return c, nil
	case []any:
		i, err := index(key, len(c), true)
		if err != nil {
			return nil, err
		}
		if i == len(c) {
			return append(c, v), nil
		}
		c[i] = v
		return c, nil
	}
	return nil, fmt.Errorf("%w: %T", errNotContainer, container)
}

// withoutChild removes key from container. Absent keys are ignored. Ordered
// containers are rebuilt rather than shifted in place, so slices the caller
// still holds keep their contents.
func withoutChild(container any, key string) (any, error) {
	switch c := container.(type) {
	case D:
		return c.remove(key), nil
	case map[string]any:
		delete(c, key)
		return c, nil
	case A:
		i, err := index(key, len(c), false)
		if err != nil {
			return c, nil
		}
		return slices.Concat(c[:i], c[i+1:]), nil
	case []any:
		i, err := index(key, len(c), false)
		if err != nil {
			return c, nil
		}
		return slices.Concat(c[:i], c[i+1:]), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %T", errNotContainer, container)
}

// childKeys lists the keys of container in its intrinsic order. Plain maps
// have none, so their keys are sorted.
func childKeys(container any) ([]string, error) {
	switch c := container.(type) {
	case D:
		return c.Keys(), nil
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return keys, nil
	case A:
		return indexKeys(len(c)), nil
	case []any:
		return indexKeys(len(c)), nil
	}
	return nil, fmt.Errorf("%w: %T", errNotContainer, container)
}

func indexKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

// lookup walks keys from root. Every key but the last must resolve to a
// container; a missing last key reads as nil.
func lookup(root any, keys []string) (any, error) {
	cur := root
	for i, key := range keys {
		v, ok, err := child(cur, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			if i == len(keys)-1 {
				return nil, nil
			}
			return nil, fmt.Errorf("%w %q", errMissingKey, key)
		}
		cur = v
	}
	return cur, nil
}

// update applies fn to the container addressed by keys[:len(keys)-1] and the
// final key, writing every rebuilt container back into its parent.
func update(root any, keys []string, fn func(container any, key string) (any, error)) (any, error) {
	if len(keys) == 1 {
		return fn(root, keys[0])
	}
	next, ok, err := child(root, keys[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w %q", errMissingKey, keys[0])
	}
	updated, err := update(next, keys[1:], fn)
	if err != nil {
		return nil, err
	}
	return withChild(root, keys[0], updated)
}

// deepMerge merges src into dst. Where both sides are containers of the same
// shape the merge recurses; otherwise src wins.
func deepMerge(dst, src any) any {
	if !isContainer(dst) || !isContainer(src) || isMapping(dst) != isMapping(src) {
		return src
	}
	keys, _ := childKeys(src)
	for _, key := range keys {
		sv, _, _ := child(src, key)
		dv, ok, _ := child(dst, key)
		if ok {
			sv = deepMerge(dv, sv)
		}
		updated, err := withChild(dst, key, sv)
		if err != nil {
			// sequence index past the end of dst; keep merging the rest.
			continue
		}
		dst = updated
	}
	return dst
}

// deepCopy returns a copy of v that shares no containers with it. A value
// that contains itself cannot be copied.
func deepCopy(v any) (any, error) {
	return copyValue(v, walkPath{})
}

func copyValue(v any, w walkPath) (any, error) {
	leave, err := w.enter(v)
	if err != nil {
		return nil, err
	}
	defer leave()

	switch c := v.(type) {
	case D:
		out := make(D, len(c))
		for i, e := range c {
			cv, err := copyValue(e.Value, w)
			if err != nil {
				return nil, err
			}
			out[i] = E{Key: e.Key, Value: cv}
		}
		return out, nil
	case A:
		out := make(A, len(c))
		if err := copyItems(out, c, w); err != nil {
			return nil, err
		}
		return out, nil
	case []any:
		out := make([]any, len(c))
		if err := copyItems(out, c, w); err != nil {
			return nil, err
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			cv, err := copyValue(e, w)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	case []byte:
		return slices.Clone(c), nil
	}
	return v, nil
}

func copyItems(dst, src []any, w walkPath) error {
	for i, e := range src {
		cv, err := copyValue(e, w)
		if err != nil {
			return err
		}
		dst[i] = cv
	}
	return nil
}

// plain converts ordered documents into map[string]any and A into []any, for
// encoders that do not know about D.
func plain(v any) (any, error) {
	return plainValue(v, walkPath{})
}

func plainValue(v any, w walkPath) (any, error) {
	leave, err := w.enter(v)
	if err != nil {
		return nil, err
	}
	defer leave()

	var items []any
	switch c := v.(type) {
	case D:
		out := make(map[string]any, len(c))
		for _, e := range c {
			pv, err := plainValue(e.Value, w)
			if err != nil {
				return nil, err
			}
			out[e.Key] = pv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			pv, err := plainValue(e, w)
			if err != nil {
				return nil, err
			}
			out[k] = pv
		}
		return out, nil
	case A:
		items = c
	case []any:
		items = c
	default:
		return v, nil
	}
	out := make([]any, len(items))
	for i, e := range items {
		pv, err := plainValue(e, w)
		if err != nil {
			return nil, err
		}
		out[i] = pv
	}
	return out, nil
}

// acyclic fails when v contains itself.
func acyclic(v any, w walkPath) error {
	leave, err := w.enter(v)
	if err != nil {
		return err
	}
	defer leave()

	keys, err := childKeys(v)
	if err != nil {
		return nil // scalar
	}
	for _, key := range keys {
		cv, _, _ := child(v, key)
		if err := acyclic(cv, w); err != nil {
			return err
		}
	}
	return nil
}

// writable checks that keys can be written by update: every ancestor exists
// and is a container and the last key fits its container.
func writable(root any, keys []string) error {
	cur := root
	for _, key := range keys[:len(keys)-1] {
		v, ok, err := child(cur, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w %q", errMissingKey, key)
		}
		cur = v
	}
	last := keys[len(keys)-1]
	switch c := cur.(type) {
	case D, map[string]any:
		return nil
	case A:
		_, err := index(last, len(c), true)
		return err
	case []any:
		_, err := index(last, len(c), true)
		return err
	}
	return fmt.Errorf("%w: %T", errNotContainer, cur)
}

// isSequence reports whether v is an A or a []any.
func isSequence(v any) bool {
	switch v.(type) {
	case A, []any:
		return true
	}
	return false
}
