package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	for _, s := range All {
		assert.True(t, Valid(s), s)
	}
	assert.False(t, Valid("driving"))
	assert.False(t, Valid("Plumbing"))
}

func TestWordMatcher(t *testing.T) {
	m := NewMatcher("word")
	cases := []struct{ text, want string }{
		{"I need a ride to the doctor", Driving},
		{"Help with GROCERIES please", GroceryShopping},
		{"my computer is broken", TechHelp},
		{"some weeding in the yard", Gardening},
		{"would love a visit", Companionship},
		{"shopping then a ride", GroceryShopping},
		{"a ride then shopping", Driving},
	}
	for _, tc := range cases {
		got, ok := m.Match(tc.text)
		assert.True(t, ok, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}

	_, ok := m.Match("I need a ride.")
	assert.False(t, ok, "punctuation stays attached to the word")
	_, ok = m.Match("fix my sink")
	assert.False(t, ok)
}

func TestBoundaryMatcher(t *testing.T) {
	m := NewMatcher("boundary")

	got, ok := m.Match("I need a ride.")
	assert.True(t, ok)
	assert.Equal(t, Driving, got)

	// table order, not text order
	got, ok = m.Match("a ride then shopping")
	assert.True(t, ok)
	assert.Equal(t, GroceryShopping, got)

	_, ok = m.Match("gardening")
	assert.False(t, ok, "keywords must be whole words")

	got, ok = m.Match("Can someone TALK with me?")
	assert.True(t, ok)
	assert.Equal(t, Companionship, got)
}
