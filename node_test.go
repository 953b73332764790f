package jcursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	doc := D{
		{Key: "a", Value: D{{Key: "b", Value: A{"x", map[string]any{"y": 1}}}}},
		{Key: "s", Value: "scalar"},
	}

	t.Run("nested mapping and sequence", func(t *testing.T) {
		v, err := lookup(doc, []string{"a", "b", "1", "y"})
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("missing last key reads nil", func(t *testing.T) {
		v, err := lookup(doc, []string{"a", "missing"})
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("missing intermediate key fails", func(t *testing.T) {
		_, err := lookup(doc, []string{"missing", "x"})
		require.ErrorIs(t, err, errMissingKey)
	})

	t.Run("scalar intermediate fails", func(t *testing.T) {
		_, err := lookup(doc, []string{"s", "x"})
		require.ErrorIs(t, err, errNotContainer)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("appends to nested ordered document", func(t *testing.T) {
		doc := D{{Key: "a", Value: D{{Key: "b", Value: 1}}}}
		out, err := update(doc, []string{"a", "c"}, func(c any, key string) (any, error) {
			return withChild(c, key, 2)
		})
		require.NoError(t, err)
		assert.Equal(t, D{{Key: "a", Value: D{{Key: "b", Value: 1}, {Key: "c", Value: 2}}}}, out)
	})

	t.Run("sequence append at length", func(t *testing.T) {
		out, err := withChild(A{1}, "1", 2)
		require.NoError(t, err)
		assert.Equal(t, A{1, 2}, out)
	})

	t.Run("sequence index past length fails", func(t *testing.T) {
		_, err := withChild(A{1}, "3", 2)
		require.ErrorIs(t, err, errBadIndex)
	})

	t.Run("remove from sequence shifts", func(t *testing.T) {
		out, err := withoutChild([]any{"a", "b", "c"}, "1")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "c"}, out)
	})
}

func TestDeepMerge(t *testing.T) {
	t.Run("recurses into mappings", func(t *testing.T) {
		dst := D{{Key: "a", Value: D{{Key: "x", Value: 1}, {Key: "y", Value: 2}}}, {Key: "keep", Value: true}}
		src := D{{Key: "a", Value: D{{Key: "y", Value: 20}, {Key: "z", Value: 30}}}}
		got := deepMerge(dst, src)
		assert.Equal(t, D{
			{Key: "a", Value: D{{Key: "x", Value: 1}, {Key: "y", Value: 20}, {Key: "z", Value: 30}}},
			{Key: "keep", Value: true},
		}, got)
	})

	t.Run("type mismatch overwrites", func(t *testing.T) {
		assert.Equal(t, A{1}, deepMerge(D{{Key: "a", Value: 1}}, A{1}))
		assert.Equal(t, "s", deepMerge(D{}, "s"))
	})

	t.Run("mixed mapping kinds merge", func(t *testing.T) {
		got := deepMerge(map[string]any{"a": 1}, D{{Key: "b", Value: 2}})
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
	})
}

func TestDeepCopy(t *testing.T) {
	t.Run("copy is independent", func(t *testing.T) {
		orig := D{{Key: "a", Value: A{D{{Key: "b", Value: 1}}}}}
		v, err := deepCopy(orig)
		require.NoError(t, err)
		cp := v.(D)
		cp[0].Value.(A)[0].(D)[0].Value = 2
		assert.Equal(t, 1, orig[0].Value.(A)[0].(D)[0].Value)
	})

	t.Run("shared subtree is not a cycle", func(t *testing.T) {
		shared := A{"x"}
		v, err := deepCopy(D{{Key: "a", Value: shared}, {Key: "b", Value: shared}})
		require.NoError(t, err)
		assert.Equal(t, D{{Key: "a", Value: A{"x"}}, {Key: "b", Value: A{"x"}}}, v)
	})

	t.Run("self reference fails", func(t *testing.T) {
		m := map[string]any{"a": 1}
		m["self"] = m
		_, err := deepCopy(m)
		require.ErrorIs(t, err, errCycle)

		d := D{{Key: "self"}}
		d[0].Value = d
		_, err = deepCopy(D{{Key: "outer", Value: d}})
		require.ErrorIs(t, err, errCycle)

		s := []any{nil}
		s[0] = s
		_, err = deepCopy(s)
		require.ErrorIs(t, err, errCycle)
	})
}

func TestPlain(t *testing.T) {
	v, err := plain(D{{Key: "a", Value: A{D{{Key: "b", Value: 1}}}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": []any{map[string]any{"b": 1}}}, v)

	a := A{nil}
	a[0] = a
	_, err = plain(D{{Key: "a", Value: a}})
	require.ErrorIs(t, err, errCycle)
}

func TestWithoutChild(t *testing.T) {
	t.Run("ordered document is left intact", func(t *testing.T) {
		d := D{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}}
		out, err := withoutChild(d, "a")
		require.NoError(t, err)
		assert.Equal(t, D{{Key: "b", Value: 2}, {Key: "c", Value: 3}}, out)
		assert.Equal(t, D{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}}, d)
	})

	t.Run("sequences are left intact", func(t *testing.T) {
		a := A{"x", "y", "z"}
		out, err := withoutChild(a, "0")
		require.NoError(t, err)
		assert.Equal(t, A{"y", "z"}, out)
		assert.Equal(t, A{"x", "y", "z"}, a)

		s := []any{"x", "y", "z"}
		out, err = withoutChild(s, "1")
		require.NoError(t, err)
		assert.Equal(t, []any{"x", "z"}, out)
		assert.Equal(t, []any{"x", "y", "z"}, s)
	})
}

func TestWritable(t *testing.T) {
	root := D{{Key: "a", Value: D{{Key: "l", Value: A{"x"}}, {Key: "n", Value: 5}}}}

	require.NoError(t, writable(root, []string{"a", "new"}))
	require.NoError(t, writable(root, []string{"a", "l", "1"}))
	require.ErrorIs(t, writable(root, []string{"a", "l", "2"}), errBadIndex)
	require.ErrorIs(t, writable(root, []string{"a", "missing", "x"}), errMissingKey)
	require.ErrorIs(t, writable(root, []string{"a", "n", "x"}), errNotContainer)
}

func TestChildKeys(t *testing.T) {
	keys, err := childKeys(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	keys, err = childKeys(A{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, keys)

	_, err = childKeys("scalar")
	require.ErrorIs(t, err, errNotContainer)
}
