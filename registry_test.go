package jcursor

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upperCodec dumps by upper-casing and loads by lower-casing. Load fails on
// text containing "!".
var upperCodec = CodecFuncs{
	LoadFunc: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok || strings.Contains(s, "!") {
			return nil, decodeErr("upper", errors.New("bad input"))
		}
		return strings.ToLower(s), nil
	},
	DumpFunc: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, encodeErr("upper", errors.New("not text"))
		}
		return strings.ToUpper(s), nil
	},
}

func TestRegistry_Register(t *testing.T) {
	t.Run("valid codec registration succeeds", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("upper", upperCodec, DetectByType))
	})

	t.Run("duplicate name returns error", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("dup", upperCodec, DetectByType))
		require.Error(t, r.Register("dup", upperCodec, DetectByType))
	})

	t.Run("empty name returns error", func(t *testing.T) {
		r := newRegistry()
		require.Error(t, r.Register("", upperCodec, DetectByType))
	})

	t.Run("nil codec returns error", func(t *testing.T) {
		r := newRegistry()
		require.Error(t, r.Register("nil", nil, DetectByType))
	})
}

func TestRegistry_Alias(t *testing.T) {
	t.Run("alias resolves to target", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("upper", upperCodec, DetectByType))
		require.NoError(t, r.Alias("up", "upper"))

		got, action, err := r.Convert("up", ActionDump, "abc")
		require.NoError(t, err)
		assert.Equal(t, "ABC", got)
		assert.Equal(t, ActionDump, action)
		assert.Equal(t, []string{"up", "upper"}, r.Names())
	})

	t.Run("alias to missing codec fails", func(t *testing.T) {
		r := newRegistry()
		err := r.Alias("up", "upper")
		require.ErrorIs(t, err, ErrUnknownCodec)
	})

	t.Run("alias cannot shadow a codec", func(t *testing.T) {
		r := newRegistry()
		require.NoError(t, r.Register("upper", upperCodec, DetectByType))
		require.NoError(t, r.Register("other", upperCodec, DetectByType))
		require.Error(t, r.Alias("other", "upper"))
	})
}

func TestRegistry_Convert(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Register("upper", upperCodec, DetectByType))
	require.NoError(t, r.Register("upper-first", upperCodec, DetectLoadFirst))

	t.Run("explicit load", func(t *testing.T) {
		got, action, err := r.Convert("upper", ActionLoad, "ABC")
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
		assert.Equal(t, ActionLoad, action)
	})

	t.Run("explicit load error surfaces", func(t *testing.T) {
		_, _, err := r.Convert("upper", ActionLoad, "ABC!")
		require.ErrorIs(t, err, ErrDecode)
	})

	t.Run("auto on text loads", func(t *testing.T) {
		got, action, err := r.Convert("upper", ActionAuto, "ABC")
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
		assert.Equal(t, ActionLoad, action)
	})

	t.Run("auto on undecodable text returns it unchanged as dump", func(t *testing.T) {
		got, action, err := r.Convert("upper", ActionAuto, "abc!")
		require.NoError(t, err)
		assert.Equal(t, "abc!", got)
		assert.Equal(t, ActionDump, action)
	})

	t.Run("auto on non-text dumps", func(t *testing.T) {
		_, action, err := r.Convert("upper", ActionAuto, 42)
		require.ErrorIs(t, err, ErrEncode)
		assert.Equal(t, ActionDump, action)
	})

	t.Run("load-first falls back to dump", func(t *testing.T) {
		got, action, err := r.Convert("upper-first", ActionAuto, "abc!")
		require.NoError(t, err)
		assert.Equal(t, "ABC!", got)
		assert.Equal(t, ActionDump, action)
	})

	t.Run("unknown codec", func(t *testing.T) {
		_, _, err := r.Convert("missing", ActionLoad, "x")
		require.ErrorIs(t, err, ErrUnknownCodec)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, _, err := r.Convert("upper", Action("sideways"), "x")
		require.ErrorIs(t, err, ErrParse)
	})

	t.Run("lookup", func(t *testing.T) {
		c, ok := r.Lookup("upper")
		require.True(t, ok)
		assert.NotNil(t, c)
		_, ok = r.Lookup("missing")
		assert.False(t, ok)
	})
}
