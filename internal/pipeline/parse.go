// Package pipeline parses and runs line-oriented cursor scripts. Each line
// names one cursor step followed by its arguments:
//
//	# k8s secret: decode data into stringData
//	load yaml
//	at $.data
//	each b64dec
//	moveTo .stringData
//	at $.metadata
//	pop creationTimestamp resourceVersion selfLink uid
//	root
//	dump yaml
//
// Blank lines and lines starting with # or // are ignored. Arguments may be
// quoted with single or double quotes. "each" takes nested steps separated
// by "|".
package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/calumari/jcursor"
)

// Step is a single parsed script line.
type Step struct {
	Op   string
	Args []string
	// Raw is the unsplit text after the op, for steps taking a literal.
	Raw string
	// Nested holds the steps run per child by "each".
	Nested []Step
	Line   int

	op op
}

// Pipeline is an ordered list of steps.
type Pipeline []Step

// Parse parses script text into a pipeline.
func Parse(src string) (Pipeline, error) {
	var p Pipeline
	for i, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		step, err := parseStep(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		step.Line = i + 1
		p = append(p, step)
	}
	return p, nil
}

// ParseArgs builds a pipeline from one step per argument, as given on a
// command line.
func ParseArgs(args []string) (Pipeline, error) {
	p := make(Pipeline, 0, len(args))
	for i, arg := range args {
		step, err := parseStep(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		step.Line = i + 1
		p = append(p, step)
	}
	return p, nil
}

// ParseFile reads and parses a script file.
func ParseFile(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func parseStep(line string) (Step, error) {
	op, rest, _ := strings.Cut(line, " ")
	if op == "" {
		return Step{}, fmt.Errorf("%w: empty step", jcursor.ErrParse)
	}
	step := Step{Op: op, Raw: strings.TrimSpace(rest)}
	if op == "each" {
		parts, err := splitSteps(step.Raw)
		if err != nil {
			return Step{}, err
		}
		for _, part := range parts {
			nested, err := parseStep(strings.TrimSpace(part))
			if err != nil {
				return Step{}, fmt.Errorf("each: %w", err)
			}
			step.Nested = append(step.Nested, nested)
		}
	} else {
		args, err := splitArgs(step.Raw)
		if err != nil {
			return Step{}, err
		}
		step.Args = args
	}
	if err := resolve(&step); err != nil {
		return Step{}, err
	}
	return step, nil
}

// splitSteps splits s on the "|" characters outside quotes. The parts keep
// their quotes for splitArgs.
func splitSteps(s string) ([]string, error) {
	var (
		parts []string
		start int
		quote rune
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '|':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote in %q", jcursor.ErrParse, s)
	}
	return append(parts, s[start:]), nil
}

// splitArgs splits s on whitespace, keeping quoted runs together.
func splitArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		pending bool
	)
	for _, r := range s {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			cur.WriteRune(r)
		case r == '\'' || r == '"':
			quote, pending = r, true
		case r == ' ' || r == '\t':
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote in %q", jcursor.ErrParse, s)
	}
	if pending {
		args = append(args, cur.String())
	}
	return args, nil
}
