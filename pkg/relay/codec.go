// Package relay implements the copy-paste wire format of the workflow:
// payloads of back-to-back JSON objects, exchanged through an out-of-band
// relay rather than a network transport.
package relay

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnbalancedBraces is returned when a payload ends while inside an
// object, or closes an object that was never opened.
var ErrUnbalancedBraces = errors.New("unbalanced braces in payload")

// ErrIncompleteObject is returned when a payload ends with trailing
// non-whitespace text outside any object.
var ErrIncompleteObject = errors.New("incomplete object at end of payload")

// scanState is the state of the payload tokenizer.
type scanState int

const (
	// outsideObject: at depth zero, between objects; whitespace is
	// separator, `{` opens an object, anything else is an error at the end.
	outsideObject scanState = iota
	// insideObject: within a brace-delimited object, outside any string.
	insideObject
	// insideString: within a quoted string; braces do not count.
	insideString
	// escapePending: immediately after a backslash inside a string.
	escapePending
)

// Objects splits a payload of concatenated JSON objects, separated by
// arbitrary whitespace, into the raw text of each object, preserving order.
//
// The grammar is:
//
//	payload := ws* (object ws*)*
//
// where object is brace-balanced and braces inside quoted strings are
// ignored. Whitespace inside an object or a string is preserved verbatim.
//
// No individual object is parsed here; malformed JSON inside balanced
// braces is the caller's concern.
func Objects(payload string) ([]string, error) {
	var objects []string
	var current strings.Builder

	state := outsideObject
	depth := 0

	for _, r := range payload {
		switch state {
		case outsideObject:
			switch {
			case r == '{':
				current.WriteRune(r)
				depth = 1
				state = insideObject
			case unicode.IsSpace(r):
				// separator
			case r == '}':
				return nil, fmt.Errorf("relay: %w", ErrUnbalancedBraces)
			default:
				// loose text outside an object; only an error if it
				// survives to the end of the payload
				current.WriteRune(r)
			}

		case insideObject:
			current.WriteRune(r)
			switch r {
			case '"':
				state = insideString
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					objects = append(objects, current.String())
					current.Reset()
					state = outsideObject
				}
			}

		case insideString:
			current.WriteRune(r)
			switch r {
			case '\\':
				state = escapePending
			case '"':
				state = insideObject
			}

		case escapePending:
			current.WriteRune(r)
			state = insideString
		}
	}

	if state != outsideObject || depth != 0 {
		return nil, fmt.Errorf("relay: %w", ErrUnbalancedBraces)
	}
	if strings.TrimSpace(current.String()) != "" {
		return nil, fmt.Errorf("relay: %w: %q", ErrIncompleteObject, truncate(current.String()))
	}
	return objects, nil
}

// truncate limits an offending fragment quoted in an error message.
func truncate(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
