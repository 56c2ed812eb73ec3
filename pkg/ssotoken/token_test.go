package ssotoken_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/ssotoken"
)

var cookieValuePattern = regexp.MustCompile(`^[0-9a-f]{16}-[0-9a-f]{16}/[0-9a-f]{16}-[0-9a-f]{16}$`)

func TestGenerate(t *testing.T) {
	t.Run("produces distinct halves", func(t *testing.T) {
		tok, err := ssotoken.Generate()
		require.NoError(t, err)
		assert.False(t, tok.IsZero())

		parts := strings.Split(tok.CookieValue(), "/")
		require.Len(t, parts, 2)
		assert.NotEqual(t, parts[0], parts[1])
		assert.Equal(t, parts[0], tok.ID())
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]struct{}, 100)
		for range 100 {
			tok, err := ssotoken.Generate()
			require.NoError(t, err)
			_, dup := seen[tok.CookieValue()]
			require.False(t, dup)
			seen[tok.CookieValue()] = struct{}{}
		}
	})

	t.Run("string hides session key", func(t *testing.T) {
		tok, err := ssotoken.Generate()
		require.NoError(t, err)
		key := strings.Split(tok.CookieValue(), "/")[1]
		assert.NotContains(t, tok.String(), key)
	})
}

func TestCookieValue(t *testing.T) {
	tok, err := ssotoken.Generate()
	require.NoError(t, err)

	value := tok.CookieValue()
	assert.Regexp(t, cookieValuePattern, value)

	parsed, ok := ssotoken.Parse(value)
	require.True(t, ok)
	assert.Equal(t, tok, parsed)
	assert.Equal(t, tok.ID(), parsed.ID())
}

func TestParse(t *testing.T) {
	t.Run("accepts unpadded words", func(t *testing.T) {
		tok, ok := ssotoken.Parse("1-2/a-b")
		require.True(t, ok)
		assert.Equal(t, "0000000000000001-0000000000000002", tok.ID())
	})

	t.Run("accepts uppercase hex", func(t *testing.T) {
		_, ok := ssotoken.Parse("ABC-DEF/123-456")
		assert.True(t, ok)
	})

	t.Run("fails closed on malformed values", func(t *testing.T) {
		cases := []string{
			"",
			"/",
			"abc",
			"1-2",
			"1-2/3-4/5-6",
			"1-2/3",
			"1-2-3/4-5",
			"xyz-1/2-3",
			"1-2/3-zz",
			"-1/2-3",
			"1-2/3-",
			"12345678901234567-1/2-3",
			"+1-2/3-4",
			"0-0/0-0",
		}
		for _, c := range cases {
			_, ok := ssotoken.Parse(c)
			assert.False(t, ok, "value %q should not parse", c)
		}
	})
}

func TestParseID(t *testing.T) {
	tok, err := ssotoken.Generate()
	require.NoError(t, err)

	id, err := ssotoken.ParseID(tok.ID())
	require.NoError(t, err)
	assert.Equal(t, tok.UUID(), id)

	_, err = ssotoken.ParseID("not-an-id")
	assert.ErrorIs(t, err, ssotoken.ErrMalformed)
}
