package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/jcursor"
)

func run(t *testing.T, input any, script string) *jcursor.Cursor {
	t.Helper()
	p, err := Parse(script)
	require.NoError(t, err)
	c := jcursor.New(input)
	require.NoError(t, Run(c, p))
	return c
}

func value(t *testing.T, c *jcursor.Cursor) any {
	t.Helper()
	v, err := c.Value()
	require.NoError(t, err)
	return v
}

func TestRun_K8SSecret(t *testing.T) {
	input := `apiVersion: v1
kind: Secret
metadata:
  name: example
  uid: abc
data:
  username: YWRtaW4=
  password: czNjcjN0
`
	c := run(t, input, `
load yaml
at $.data
each b64dec
moveTo .stringData
at $.metadata
pop creationTimestamp resourceVersion selfLink uid
root
dump yaml
`)
	assert.Equal(t, `apiVersion: v1
kind: Secret
metadata:
  name: example
stringData:
  username: admin
  password: s3cr3t
`, value(t, c))
}

func TestRun_Steps(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		script string
		want   any
	}{
		{
			name:   "set literal",
			input:  nil,
			script: "set {a: 1, b: [true, 'x'],}",
			want:   jcursor.D{{Key: "a", Value: float64(1)}, {Key: "b", Value: jcursor.A{true, "x"}}},
		},
		{
			name:   "set plain text",
			input:  nil,
			script: "set hello world",
			want:   "hello world",
		},
		{
			name:   "merge",
			input:  jcursor.D{{Key: "a", Value: float64(1)}},
			script: "merge {b: 2}",
			want:   jcursor.D{{Key: "a", Value: float64(1)}, {Key: "b", Value: float64(2)}},
		},
		{
			name:   "copy and move",
			input:  jcursor.D{{Key: "a", Value: "x"}},
			script: "at a\ncopyTo $.b\nmoveTo $.c\nroot",
			want:   jcursor.D{{Key: "b", Value: "x"}, {Key: "c", Value: "x"}},
		},
		{
			name:   "bare codec auto-detects",
			input:  "hello!",
			script: "base64",
			want:   "aGVsbG8h",
		},
		{
			name:   "convert with action",
			input:  jcursor.D{{Key: "a", Value: float64(1)}},
			script: "convert yaml dump",
			want:   "a: 1\n",
		},
		{
			name:   "numbers",
			input:  "1.5,2.5",
			script: "split ,\neach float | int",
			want:   jcursor.A{int64(1), int64(2)},
		},
		{
			name:   "nested steps with a quoted bar",
			input:  "1-2,3-4",
			script: "split ,\neach sub - '|' | split '|'",
			want:   jcursor.A{jcursor.A{"1", "2"}, jcursor.A{"3", "4"}},
		},
		{
			name:   "split and join with escapes",
			input:  "a,b",
			script: `split ,` + "\n" + `join '\t'`,
			want:   "a\tb",
		},
		{
			name:   "sub to empty",
			input:  "v1.2.3",
			script: `sub "^v" ''`,
			want:   "1.2.3",
		},
		{
			name:   "regex",
			input:  "a1b22",
			script: `regex \d+`,
			want:   jcursor.A{"1", "22"},
		},
		{
			name:   "timestamp",
			input:  "1700000000500",
			script: "timestamp unix_ms",
			want:   int64(1700000000500),
		},
		{
			name:   "randoms",
			input:  "3 c:k\n\n2 c:z",
			script: "randoms",
			want:   "kkk\n\nzz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, value(t, run(t, tt.input, tt.script)))
		})
	}
}

func TestRun_LiteralsAreNotShared(t *testing.T) {
	c := run(t, jcursor.A{nil, nil}, "each set {x: 1}")
	c.At("0.x").Set(2)
	v, err := c.ValueAt("$.1.x")
	require.NoError(t, err)
	assert.Equal(t, float64(1), v)
}

func TestRun_Error(t *testing.T) {
	p, err := Parse("load yaml\n\nload json\nset unreached")
	require.NoError(t, err)
	c := jcursor.New("a: [")
	err = Run(c, p)
	require.ErrorIs(t, err, jcursor.ErrDecode)
	assert.Contains(t, err.Error(), "line 1 (load)")

	c = jcursor.New("{")
	err = Run(c, Pipeline{p[1], p[2]})
	require.ErrorIs(t, err, jcursor.ErrDecode)
	assert.Contains(t, err.Error(), "line 3 (load)")
	assert.Equal(t, "{", c.Document())
}
