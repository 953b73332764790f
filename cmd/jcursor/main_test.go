package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calumari/jcursor"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	inputFile, scriptFile, verbose, color = "-", "", false, "auto"

	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	t.Run("argument steps", func(t *testing.T) {
		out, err := execute(t, "eyJhIjoxfQ==", "b64dec", "load json", "at $.a", "set 2", "root", "dump yaml")
		require.NoError(t, err)
		assert.Equal(t, "a: 2\n", out)
	})

	t.Run("non-text result prints as json", func(t *testing.T) {
		out, err := execute(t, `{"a": [1, 2]}`, "load json", "at .a")
		require.NoError(t, err)
		assert.JSONEq(t, "[1, 2]", out)
	})

	t.Run("script and input files", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "script.jc")
		input := filepath.Join(dir, "input.yaml")
		require.NoError(t, os.WriteFile(script, []byte("load yaml\nat $.name\n"), 0o600))
		require.NoError(t, os.WriteFile(input, []byte("name: demo\n"), 0o600))

		out, err := execute(t, "", "--script", script, "--file", input)
		require.NoError(t, err)
		assert.Equal(t, "demo\n", out)
	})

	t.Run("failing step", func(t *testing.T) {
		_, err := execute(t, "{", "load json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1 (load)")
	})

	t.Run("forced color", func(t *testing.T) {
		out, err := execute(t, "a: 1", "--color", "always", "load yaml", "dump yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "\x1b[")
		assert.NotEqual(t, "a: 1\n", out)
	})

	t.Run("plain text is never highlighted", func(t *testing.T) {
		out, err := execute(t, "aGk=", "--color", "always", "b64dec")
		require.NoError(t, err)
		assert.Equal(t, "hi\n", out)
	})

	t.Run("yaml text built by the script is highlighted", func(t *testing.T) {
		out, err := execute(t, "", "--color", "always", "set 'a: 1'")
		require.NoError(t, err)
		assert.Contains(t, out, "\x1b[")
	})

	t.Run("bad color mode", func(t *testing.T) {
		_, err := execute(t, "", "--color", "rainbow")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --color")
	})

	t.Run("bad step", func(t *testing.T) {
		_, err := execute(t, "", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 1")
	})
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"json object", `{"a": 1}`, "json"},
		{"json array", "[1, 2]", "json"},
		{"yaml mapping", "a: 1\nb: [x]\n", "yaml"},
		{"plain text", "hi", ""},
		{"number text", "42", ""},
		{"document", jcursor.D{{Key: "a", Value: 1}}, "json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, language(tt.v))
		})
	}
}

func TestCodecs(t *testing.T) {
	out, err := execute(t, "", "codecs")
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(out), "yaml")
	assert.Contains(t, strings.Fields(out), "timestamp")
}
