// Package selector parses the dot-path selectors used by nested
// override documents to address nodes inside a materialized composition
// tree. Segments are stable keys (panel keys, component instance keys,
// field keys), never labels.
package selector

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptySelector  = errors.New("selector cannot be empty")
	ErrTooFewSegments = errors.New("selector needs at least two segments")
	ErrInvalidSegment = errors.New("selector segment is not a valid stable key")
	ErrEmptySegment   = errors.New("selector contains an empty segment")
)

// Stable keys are the same shape everywhere in the schema: word
// characters and dashes, nothing label-derived.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Selector is a parsed dot-path. A relative selector (written with a
// leading '.') resolves from the current embedded-component context
// instead of the form root.
type Selector struct {
	Relative bool
	Segments []string
}

// Parse validates and splits a selector expression.
//
// Grammar: [ '.' ] key ( '.' key )+, minimum two segments. The final
// segment addresses a field key; the preceding segments walk panel keys
// and component instance keys in order.
func Parse(raw string) (Selector, error) {
	if strings.TrimSpace(raw) == "" {
		return Selector{}, ErrEmptySelector
	}

	relative := strings.HasPrefix(raw, ".")
	body := raw
	if relative {
		body = raw[1:]
	}
	if body == "" {
		return Selector{}, ErrEmptySelector
	}

	parts := strings.Split(body, ".")
	for _, p := range parts {
		if p == "" {
			return Selector{}, ErrEmptySegment
		}
		if !segmentPattern.MatchString(p) {
			return Selector{}, ErrInvalidSegment
		}
	}
	if len(parts) < 2 {
		return Selector{}, ErrTooFewSegments
	}

	return Selector{Relative: relative, Segments: parts}, nil
}

// MustParse is for tests and static selectors; it panics on error.
func MustParse(raw string) Selector {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Selector) String() string {
	out := strings.Join(s.Segments, ".")
	if s.Relative {
		return "." + out
	}
	return out
}

// FieldKey returns the final segment, the field the selector targets.
func (s Selector) FieldKey() string {
	return s.Segments[len(s.Segments)-1]
}
