package whatsapp

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRunePrefix(t *testing.T) {
	t.Run("cuts on character boundaries", func(t *testing.T) {
		s := "añoñá12345"
		prefix := runePrefix(s, 4)
		assert.Equal(t, "añoñ", prefix)
		assert.True(t, utf8.ValidString(prefix))
	})

	t.Run("returns input when short enough", func(t *testing.T) {
		assert.Equal(t, "abc", runePrefix("abc", 10))
	})

	t.Run("zero and negative budgets yield empty", func(t *testing.T) {
		assert.Equal(t, "", runePrefix("abc", 0))
		assert.Equal(t, "", runePrefix("abc", -1))
	})
}

func TestClampHard(t *testing.T) {
	t.Run("never exceeds the hard limit", func(t *testing.T) {
		for _, input := range []string{
			strings.Repeat("x", 50),
			strings.Repeat("ñ", 50),
			strings.Repeat("🙂", 50),
		} {
			out := clampHard("test.field", input, 20, false)
			assert.LessOrEqual(t, utf8.RuneCountInString(out), 20)
			assert.True(t, utf8.ValidString(out))
		}
	})

	t.Run("truncated output keeps marker and a prefix of the input", func(t *testing.T) {
		input := strings.Repeat("a", 35)
		out := clampHard("test.field", input, 20, true)
		assert.Equal(t, 20, utf8.RuneCountInString(out))
		assert.True(t, strings.HasSuffix(out, TruncationMarker))
		prefix := strings.TrimSuffix(out, TruncationMarker)
		assert.True(t, strings.HasPrefix(input, prefix))
	})

	t.Run("multibyte input is cut between characters", func(t *testing.T) {
		input := strings.Repeat("ñ", 30)
		out := clampHard("test.field", input, 20, false)
		prefix := strings.TrimSuffix(out, TruncationMarker)
		assert.True(t, strings.HasPrefix(input, prefix))
		assert.True(t, utf8.ValidString(out))
	})

	t.Run("short input passes through untouched", func(t *testing.T) {
		assert.Equal(t, "hello", clampHard("test.field", "hello", 20, false))
	})

	t.Run("input at exactly the limit passes through", func(t *testing.T) {
		input := strings.Repeat("a", 20)
		assert.Equal(t, input, clampHard("test.field", input, 20, false))
	})
}
