package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/jcursor"
)

func stepOps(p Pipeline) []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Op
	}
	return out
}

func TestParse(t *testing.T) {
	t.Run("script", func(t *testing.T) {
		p, err := Parse(`
# k8s secret
load yaml
at $.data
each b64dec

// cleanup
moveTo .stringData
at $.metadata
pop creationTimestamp resourceVersion selfLink uid
root
dump yaml
`)
		require.NoError(t, err)
		assert.Equal(t, []string{"load", "at", "each", "moveTo", "at", "pop", "root", "dump"}, stepOps(p))
		assert.Equal(t, []string{"creationTimestamp", "resourceVersion", "selfLink", "uid"}, p[5].Args)
		assert.Equal(t, 3, p[0].Line)
		assert.Equal(t, 8, p[3].Line)
	})

	t.Run("quoted arguments", func(t *testing.T) {
		p, err := Parse(`sub "a b" ''`)
		require.NoError(t, err)
		require.Len(t, p, 1)
		assert.Equal(t, []string{"a b", ""}, p[0].Args)
		assert.Equal(t, `"a b" ''`, p[0].Raw)
	})

	t.Run("codec shorthands", func(t *testing.T) {
		p, err := Parse("loadYaml\ndump-json\nyaml\njson load\nmove_to $.x")
		require.NoError(t, err)
		require.Len(t, p, 5)
		assert.Equal(t, []string{"yaml"}, p[0].Args)
		assert.Equal(t, []string{"json"}, p[1].Args)
		assert.Equal(t, []string{"yaml"}, p[2].Args)
		assert.Equal(t, []string{"json", "load"}, p[3].Args)
		assert.Equal(t, []string{"$.x"}, p[4].Args)
	})

	t.Run("nested each", func(t *testing.T) {
		p, err := Parse("each b64dec | load json | at .name")
		require.NoError(t, err)
		require.Len(t, p, 1)
		assert.Equal(t, []string{"b64dec", "load", "at"}, stepOps(p[0].Nested))
		assert.Equal(t, []string{".name"}, p[0].Nested[2].Args)
	})

	t.Run("nested each keeps quoted bars", func(t *testing.T) {
		p, err := Parse(`each sub 'a|b' x | split "|"`)
		require.NoError(t, err)
		require.Len(t, p[0].Nested, 2)
		assert.Equal(t, []string{"a|b", "x"}, p[0].Nested[0].Args)
		assert.Equal(t, []string{"|"}, p[0].Nested[1].Args)
	})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown step", "load json\nfrobnicate", "line 2"},
		{"missing argument", "at", "takes 1 arguments"},
		{"too many arguments", "sub a b c", "takes 2 arguments"},
		{"unterminated quote", `sub "a b`, "unterminated quote"},
		{"empty nested step", "each b64dec |", "empty step"},
		{"bad nested step", "each nope", "unknown step"},
		{"unterminated nested quote", "each sub 'a|b x", "unterminated quote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.ErrorIs(t, err, jcursor.ErrParse)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseArgs(t *testing.T) {
	p, err := ParseArgs([]string{"load json", " at $.a ", "set {x: 1}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "at", "set"}, stepOps(p))
	assert.Equal(t, "{x: 1}", p[2].Raw)

	_, err = ParseArgs([]string{"root", "nope"})
	require.ErrorIs(t, err, jcursor.ErrParse)
	assert.Contains(t, err.Error(), "step 2")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.jc")
	require.NoError(t, os.WriteFile(path, []byte("load json\nat $.a\n"), 0o600))

	p, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "at"}, stepOps(p))

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.jc"))
	require.Error(t, err)
}
