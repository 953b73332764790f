package jcursor

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
)

var (
	errMoveIntoSelf = errors.New("cannot move a node into itself")
	errNotSequence  = errors.New("not a sequence")
)

// document is shared by every cursor aliasing the same data. The root value
// lives under the single key "$" so the root path resolves like any other.
type document struct {
	root D
}

// Cursor is a chainable handle over a document and a working path. Steps
// mutate the document in place and return the same cursor.
//
// Errors are sticky: the first failing step records its error and every later
// step does nothing. Value and Err report it. Steps that already ran are not
// rolled back.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	doc      *document
	path     Path
	meta     map[Action]string
	registry *Registry
	logger   *slog.Logger
	random   RandomConfig
	err      error
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithRegistry sets the codec registry. The default is DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(c *Cursor) { c.registry = r }
}

// WithLogger sets the logger steps are reported to at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cursor) { c.logger = l }
}

// WithRandomConfig sets the base config Randoms applies to each line.
func WithRandomConfig(cfg RandomConfig) Option {
	return func(c *Cursor) { c.random = cfg }
}

// New returns a cursor at the root of doc. The cursor does not copy doc;
// maps and slices inside it are edited in place.
func New(doc any, opts ...Option) *Cursor {
	c := &Cursor{
		doc:      &document{root: D{{Key: RootSymbol, Value: doc}}},
		path:     Path{},
		meta:     make(map[Action]string),
		registry: DefaultRegistry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// spawn returns a cursor over v that shares c's configuration.
func (c *Cursor) spawn(v any) *Cursor {
	return New(v, WithRegistry(c.registry), WithLogger(c.logger), WithRandomConfig(c.random))
}

// Fork returns a second cursor over the same document and path. Edits through
// either cursor are visible to both.
func (c *Cursor) Fork() *Cursor {
	f := *c
	f.path = slices.Clone(c.path)
	f.meta = make(map[Action]string)
	return &f
}

// Err returns the error recorded by the first failing step.
func (c *Cursor) Err() error { return c.err }

// Path returns the working path.
func (c *Cursor) Path() Path { return slices.Clone(c.path) }

// Meta returns the codec names last used for each resolved action.
func (c *Cursor) Meta() map[Action]string { return maps.Clone(c.meta) }

// Document returns the whole document.
func (c *Cursor) Document() any {
	v, _ := c.doc.root.Lookup(RootSymbol)
	return v
}

func (c *Cursor) fail(op string, err error) *Cursor {
	if c.err == nil {
		c.err = err
		c.logger.Debug("step failed", "op", op, "path", c.path.String(), "error", err)
	}
	return c
}

// Value returns the value at the working path, or the recorded error.
func (c *Cursor) Value() (any, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.get(c.path)
}

// ValueAt returns the value at a root-anchored path without moving the
// cursor.
func (c *Cursor) ValueAt(path string) (any, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return c.get(p)
}

func (c *Cursor) get(p Path) (any, error) {
	v, err := lookup(c.doc.root, p.keys())
	if err != nil {
		return nil, &PathError{Op: "value", Path: p.String(), Err: err}
	}
	return v, nil
}

func (c *Cursor) put(op string, p Path, fn func(container any, key string) (any, error)) error {
	updated, err := update(c.doc.root, p.keys(), fn)
	if err != nil {
		return &PathError{Op: op, Path: p.String(), Err: err}
	}
	c.doc.root = updated.(D)
	return nil
}

func (c *Cursor) setAt(p Path, v any) error {
	return c.put("set", p, func(container any, key string) (any, error) {
		return withChild(container, key, v)
	})
}

func (c *Cursor) deleteAt(p Path) error {
	return c.put("pop", p, withoutChild)
}

// At moves the working path. See Path.At for the syntax.
func (c *Cursor) At(rel string) *Cursor {
	if c.err != nil {
		return c
	}
	c.path = c.path.At(rel)
	c.logger.Debug("at", "path", c.path.String())
	return c
}

// Root moves the cursor back to the root.
func (c *Cursor) Root() *Cursor {
	return c.At(RootSymbol)
}

// Set replaces the value at the working path. The last path key is created
// if missing.
func (c *Cursor) Set(v any) *Cursor {
	if c.err != nil {
		return c
	}
	if err := c.setAt(c.path, v); err != nil {
		return c.fail("set", err)
	}
	return c
}

// Pop without keys deletes the node at the working path. With keys it
// deletes those children of the node instead. Missing keys are ignored.
func (c *Cursor) Pop(keys ...string) *Cursor {
	if c.err != nil {
		return c
	}
	if len(keys) == 0 {
		if err := c.deleteAt(c.path); err != nil {
			return c.fail("pop", err)
		}
		return c
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("pop", err)
	}
	if cur == nil {
		return c
	}
	for _, key := range keys {
		if cur, err = withoutChild(cur, key); err != nil {
			return c.fail("pop", &PathError{Op: "pop", Path: c.path.String(), Err: err})
		}
	}
	return c.Set(cur)
}

// Merge deep-merges v into the value at the working path. Where both sides
// hold containers of the same kind the merge recurses; anywhere else v wins.
func (c *Cursor) Merge(v any) *Cursor {
	if c.err != nil {
		return c
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("merge", err)
	}
	src, err := deepCopy(v)
	if err != nil {
		return c.fail("merge", &PathError{Op: "merge", Path: c.path.String(), Err: err})
	}
	return c.Set(deepMerge(cur, src))
}

// CopyTo writes a deep copy of the current value to a root-anchored path.
// Later edits to either copy do not affect the other.
func (c *Cursor) CopyTo(path string) *Cursor {
	if c.err != nil {
		return c
	}
	dst, err := ParsePath(path)
	if err != nil {
		return c.fail("copy", err)
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("copy", err)
	}
	cp, err := deepCopy(cur)
	if err != nil {
		return c.fail("copy", &PathError{Op: "copy", Path: c.path.String(), Err: err})
	}
	if err := c.setAt(dst, cp); err != nil {
		return c.fail("copy", err)
	}
	return c
}

// MoveTo moves the current value to a root-anchored path and moves the
// cursor along with it. The source is removed before the destination is
// written, so a node can be moved onto one of its ancestors. When source and
// destination index the same sequence, the destination index is taken as it
// was before the move.
func (c *Cursor) MoveTo(path string) *Cursor {
	if c.err != nil {
		return c
	}
	dst, err := ParsePath(path)
	if err != nil {
		return c.fail("move", err)
	}
	if slices.Equal(dst, c.path) {
		return c
	}
	if len(dst) > len(c.path) && slices.Equal(dst[:len(c.path)], c.path) {
		return c.fail("move", &PathError{Op: "move", Path: dst.String(), Err: errMoveIntoSelf})
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("move", err)
	}
	if err := writable(c.doc.root, dst.keys()); err != nil {
		return c.fail("move", &PathError{Op: "move", Path: dst.String(), Err: err})
	}
	dst, err = c.shiftedDestination(dst)
	if err != nil {
		return c.fail("move", err)
	}
	if err := c.deleteAt(c.path); err != nil {
		return c.fail("move", err)
	}
	if err := c.setAt(dst, cur); err != nil {
		return c.fail("move", err)
	}
	c.logger.Debug("move", "from", c.path.String(), "to", dst.String())
	c.path = dst
	return c
}

// shiftedDestination rewrites dst for the removal of the node at the working
// path: when both share a parent sequence and the source index comes first,
// every later index in that sequence drops by one.
func (c *Cursor) shiftedDestination(dst Path) (Path, error) {
	parent, key, ok := c.path.Parent()
	if !ok || len(dst) <= len(parent) || !slices.Equal(dst[:len(parent)], parent) {
		return dst, nil
	}
	container, err := c.get(parent)
	if err != nil {
		return nil, err
	}
	if !isSequence(container) {
		return dst, nil
	}
	from, err := strconv.Atoi(key)
	if err != nil {
		return dst, nil
	}
	to, err := strconv.Atoi(dst[len(parent)])
	if err != nil || to <= from {
		return dst, nil
	}
	out := slices.Clone(dst)
	out[len(parent)] = strconv.Itoa(to - 1)
	return out, nil
}

// Convert runs the named codec over the current value and stores the result.
// The codec name is recorded in Meta under the action actually taken.
func (c *Cursor) Convert(codec string, action Action) *Cursor {
	if c.err != nil {
		return c
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("convert", err)
	}
	out, resolved, err := c.registry.Convert(codec, action, cur)
	if err != nil {
		return c.fail("convert", err)
	}
	c.meta[resolved] = codec
	c.logger.Debug("convert", "codec", codec, "action", string(action), "resolved", string(resolved), "path", c.path.String())
	return c.Set(out)
}

// Load parses the current value with the named codec.
func (c *Cursor) Load(codec string) *Cursor { return c.Convert(codec, ActionLoad) }

// Dump renders the current value with the named codec.
func (c *Cursor) Dump(codec string) *Cursor { return c.Convert(codec, ActionDump) }

// B64 converts through the base64 codec.
func (c *Cursor) B64(action Action) *Cursor { return c.Convert("base64", action) }

// B64Dec decodes base64 text.
func (c *Cursor) B64Dec() *Cursor { return c.B64(ActionLoad) }

// B64Enc encodes text as base64.
func (c *Cursor) B64Enc() *Cursor { return c.B64(ActionDump) }

// EachFunc handles one child of a container. It receives a fresh cursor over
// the child and returns the cursor whose current value replaces the child;
// returning nil keeps the given cursor's value.
type EachFunc func(child *Cursor, key string) *Cursor

// Each calls fn for every child of the current container in order and
// writes each result back under its key. Sequence keys are indices.
func (c *Cursor) Each(fn EachFunc) *Cursor {
	if c.err != nil {
		return c
	}
	cur, err := c.get(c.path)
	if err != nil {
		return c.fail("each", err)
	}
	keys, err := childKeys(cur)
	if err != nil {
		return c.fail("each", &PathError{Op: "each", Path: c.path.String(), Err: err})
	}
	for _, key := range keys {
		v, _, _ := child(cur, key)
		sub := c.spawn(v)
		ret := fn(sub, key)
		if ret == nil {
			ret = sub
		}
		out, err := ret.Value()
		if err != nil {
			return c.fail("each", fmt.Errorf("each %s: key %q: %w", c.path, key, err))
		}
		if cur, err = withChild(cur, key, out); err != nil {
			return c.fail("each", &PathError{Op: "each", Path: c.path.String(), Err: err})
		}
	}
	return c.Set(cur)
}

// Cond calls onTrue when pred holds and onFalse otherwise. Either branch may
// be nil. The cursor is returned as is; branches act on it for effect.
func (c *Cursor) Cond(pred func(*Cursor) bool, onTrue, onFalse func(*Cursor)) *Cursor {
	if c.err != nil {
		return c
	}
	if pred(c) {
		if onTrue != nil {
			onTrue(c)
		}
	} else if onFalse != nil {
		onFalse(c)
	}
	return c
}
