package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_Navigation(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c"})

	_, ok := c.Next()
	assert.False(t, ok, "next before navigating")

	steps := []struct {
		prev bool
		want string
		ok   bool
	}{
		{prev: true, want: "c", ok: true},
		{prev: true, want: "b", ok: true},
		{prev: true, want: "a", ok: true},
		{prev: true, want: "", ok: false},
		{prev: false, want: "b", ok: true},
		{prev: false, want: "c", ok: true},
		{prev: false, want: "draft", ok: true},
		{prev: false, want: "", ok: false},
	}
	for i, s := range steps {
		var got string
		var ok bool
		if s.prev {
			got, ok = c.Prev("draft")
		} else {
			got, ok = c.Next()
		}
		assert.Equal(t, s.ok, ok, "step %d", i)
		assert.Equal(t, s.want, got, "step %d", i)
	}
}

func TestCursor_DraftTakenWhenNavigationStarts(t *testing.T) {
	c := NewCursor([]string{"a"})
	c.Prev("typed")
	c.Prev("other")
	got, ok := c.Next()
	assert.True(t, ok)
	assert.Equal(t, "typed", got)
}

func TestCursor_PushAndReset(t *testing.T) {
	c := NewCursor(nil)
	_, ok := c.Prev("x")
	assert.False(t, ok)

	c.Push("a")
	c.Push("a")
	c.Push("")
	assert.Equal(t, 1, c.Len())

	got, ok := c.Prev("")
	assert.True(t, ok)
	assert.Equal(t, "a", got)

	c.Reset()
	got, ok = c.Prev("")
	assert.True(t, ok)
	assert.Equal(t, "a", got)
}
