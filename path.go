package jcursor

import (
	"fmt"
	"strings"
)

// RootSymbol anchors every path.
const RootSymbol = "$"

// Path is the sequence of keys below the root. The empty path addresses the
// root itself.
type Path []string

// ParsePath parses a root-anchored dot path such as "$.spec.containers.0".
// The anchor may also be left empty (".spec"), which some callers use when
// the root is implied.
func ParsePath(s string) (Path, error) {
	if s == "" || s == RootSymbol {
		return Path{}, nil
	}
	segs := strings.Split(s, ".")
	if segs[0] != RootSymbol && segs[0] != "" {
		return nil, fmt.Errorf("%w: path %q is not anchored at %q", ErrParse, s, RootSymbol)
	}
	p := make(Path, 0, len(segs)-1)
	for _, seg := range segs[1:] {
		if seg == "" {
			return nil, fmt.Errorf("%w: path %q has an empty segment", ErrParse, s)
		}
		p = append(p, seg)
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders p with its root anchor.
func (p Path) String() string {
	if len(p) == 0 {
		return RootSymbol
	}
	return RootSymbol + "." + strings.Join(p, ".")
}

// At applies a relative navigation to p and returns the new path. Segments
// are read left to right: an empty segment goes up one level, the root
// symbol resets to the root and anything else descends into that key. For
// example "$.data" followed by ".stringData" yields "$.stringData".
func (p Path) At(rel string) Path {
	out := append(Path{}, p...)
	for _, seg := range strings.Split(rel, ".") {
		switch seg {
		case "":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case RootSymbol:
			out = out[:0]
		default:
			out = append(out, seg)
		}
	}
	return out
}

// Parent returns the path of the container holding the target of p and the
// target key. The root has no parent and yields ok == false.
func (p Path) Parent() (parent Path, key string, ok bool) {
	if len(p) == 0 {
		return nil, "", false
	}
	return p[:len(p)-1], p[len(p)-1], true
}

// keys returns the lookup keys including the synthetic root key.
func (p Path) keys() []string {
	return append([]string{RootSymbol}, p...)
}
