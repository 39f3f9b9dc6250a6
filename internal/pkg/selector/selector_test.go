package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAbsolute(t *testing.T) {
	s, err := Parse("p1.contact.cp1.email")
	require.NoError(t, err)
	assert.False(t, s.Relative)
	assert.Equal(t, []string{"p1", "contact", "cp1", "email"}, s.Segments)
	assert.Equal(t, "email", s.FieldKey())
	assert.Equal(t, "p1.contact.cp1.email", s.String())
}

func TestParseRelative(t *testing.T) {
	s, err := Parse(".cp1.email")
	require.NoError(t, err)
	assert.True(t, s.Relative)
	assert.Equal(t, []string{"cp1", "email"}, s.Segments)
	assert.Equal(t, ".cp1.email", s.String())
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrEmptySelector},
		{"whitespace", "   ", ErrEmptySelector},
		{"dot only", ".", ErrEmptySelector},
		{"single segment", "p1", ErrTooFewSegments},
		{"relative single segment", ".email", ErrTooFewSegments},
		{"empty segment", "p1..email", ErrEmptySegment},
		{"trailing dot", "p1.email.", ErrEmptySegment},
		{"bad characters", "p1.em ail", ErrInvalidSegment},
		{"label not key", "p1.Section Label.f", ErrInvalidSegment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("not valid!") })
}
