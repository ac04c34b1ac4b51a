package reasoning

import (
	"errors"
	"strings"
)

var (
	// ErrNoJSON means the response contained no '{' or '['.
	ErrNoJSON = errors.New("no JSON value in response")
	// ErrTruncatedJSON means the first JSON value was never closed.
	ErrTruncatedJSON = errors.New("truncated JSON value in response")
	// ErrMismatchedJSON means a closing bracket did not match its opener.
	ErrMismatchedJSON = errors.New("mismatched brackets in response")
)

// ExtractFirstJSON returns the first balanced {...} or [...] substring of s.
// Brackets inside JSON strings are ignored. Leading prose, markdown fences and
// trailing commentary are dropped. Later JSON values in s are ignored.
func ExtractFirstJSON(s string) (string, error) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}

	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", ErrMismatchedJSON
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", ErrTruncatedJSON
}
