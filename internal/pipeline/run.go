package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/calumari/jcursor"
)

type op struct {
	minArgs, maxArgs int // maxArgs < 0 means unbounded
	run              func(c *jcursor.Cursor, s Step) *jcursor.Cursor
}

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\\`, `\`)

func argOr(s Step, i int, def string) string {
	if i < len(s.Args) {
		return escapes.Replace(s.Args[i])
	}
	return def
}

var ops = map[string]op{
	"at":   {1, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.At(s.Args[0]) }},
	"root": {0, 0, func(c *jcursor.Cursor, _ Step) *jcursor.Cursor { return c.Root() }},
	"set":  {0, -1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Set(literal(s)) }},
	"merge": {0, -1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor {
		return c.Merge(literal(s))
	}},
	"pop":    {0, -1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Pop(s.Args...) }},
	"copyto": {1, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.CopyTo(s.Args[0]) }},
	"moveto": {1, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.MoveTo(s.Args[0]) }},
	"convert": {1, 2, func(c *jcursor.Cursor, s Step) *jcursor.Cursor {
		return c.Convert(s.Args[0], jcursor.Action(argOr(s, 1, string(jcursor.ActionAuto))))
	}},
	"load": {1, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Load(s.Args[0]) }},
	"dump": {1, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Dump(s.Args[0]) }},
	"b64": {0, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor {
		return c.B64(jcursor.Action(argOr(s, 0, string(jcursor.ActionAuto))))
	}},
	"b64dec": {0, 0, func(c *jcursor.Cursor, _ Step) *jcursor.Cursor { return c.B64Dec() }},
	"b64enc": {0, 0, func(c *jcursor.Cursor, _ Step) *jcursor.Cursor { return c.B64Enc() }},
	"float":  {0, 0, func(c *jcursor.Cursor, _ Step) *jcursor.Cursor { return c.Float() }},
	"int":    {0, 0, func(c *jcursor.Cursor, _ Step) *jcursor.Cursor { return c.Int() }},
	"sub": {2, 2, func(c *jcursor.Cursor, s Step) *jcursor.Cursor {
		return c.Sub(s.Args[0], argOr(s, 1, ""))
	}},
	"split":     {0, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Split(argOr(s, 0, "\n")) }},
	"join":      {0, 1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Join(argOr(s, 0, "\n")) }},
	"timestamp": {0, -1, func(c *jcursor.Cursor, s Step) *jcursor.Cursor { return c.Timestamp(timeFormat(s)) }},
	"randoms":   {0, 0, func(c *jcursor.Cursor, _ Step) *jcursor.Cursor { return c.Randoms() }},
	"regex":     {1, 1, runRegex},
	"each":      {0, -1, runEach},
}

// opName folds "moveTo", "move-to" and "move_to" together.
func opName(s string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
}

// timeFormat keeps strftime patterns containing spaces intact.
func timeFormat(s Step) string {
	if len(s.Args) == 0 {
		return "iso"
	}
	return strings.Join(s.Args, " ")
}

// resolve binds s to an op, expanding codec shorthands: "loadyaml" and
// "dumpjson" load or dump through that codec, and a bare codec name such as
// "json" converts with auto-detection.
func resolve(s *Step) error {
	name := opName(s.Op)
	if o, ok := ops[name]; ok {
		s.op = o
	} else {
		codecs := jcursor.DefaultRegistry.Names()
		switch {
		case strings.HasPrefix(name, "load") && len(name) > 4:
			s.Args = []string{name[4:]}
			s.op = ops["load"]
		case strings.HasPrefix(name, "dump") && len(name) > 4:
			s.Args = []string{name[4:]}
			s.op = ops["dump"]
		case slices.Contains(codecs, name):
			s.Args = append([]string{name}, s.Args...)
			s.op = ops["convert"]
		default:
			return fmt.Errorf("%w: unknown step %q", jcursor.ErrParse, s.Op)
		}
	}
	if len(s.Args) < s.op.minArgs || (s.op.maxArgs >= 0 && len(s.Args) > s.op.maxArgs) {
		return fmt.Errorf("%w: step %q takes %s", jcursor.ErrParse, s.Op, arity(s.op))
	}
	return nil
}

// literal parses the raw argument text of set and merge. Text that is not a
// literal is taken as a plain string. Each call builds a fresh value so no
// two nodes share containers.
func literal(s Step) any {
	if s.Raw == "" {
		return nil
	}
	v, _, err := jcursor.DefaultRegistry.Convert("literal", jcursor.ActionLoad, s.Raw)
	if err != nil {
		return s.Raw
	}
	return v
}

func arity(o op) string {
	switch {
	case o.maxArgs < 0:
		return fmt.Sprintf("at least %d arguments", o.minArgs)
	case o.minArgs == o.maxArgs:
		return fmt.Sprintf("%d arguments", o.minArgs)
	}
	return fmt.Sprintf("%d to %d arguments", o.minArgs, o.maxArgs)
}

func runEach(c *jcursor.Cursor, s Step) *jcursor.Cursor {
	return c.Each(func(child *jcursor.Cursor, _ string) *jcursor.Cursor {
		return apply(child, s.Nested)
	})
}

func runRegex(c *jcursor.Cursor, s Step) *jcursor.Cursor {
	return c.Matches(s.Args[0])
}

func apply(c *jcursor.Cursor, p Pipeline) *jcursor.Cursor {
	for _, s := range p {
		if c.Err() != nil {
			break
		}
		c = s.op.run(c, s)
	}
	return c
}

// Run applies p to c and returns the first error, annotated with the failing
// line.
func Run(c *jcursor.Cursor, p Pipeline) error {
	for _, s := range p {
		s.op.run(c, s)
		if err := c.Err(); err != nil {
			return fmt.Errorf("line %d (%s): %w", s.Line, s.Op, err)
		}
	}
	return nil
}
