package caps

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// SyntaxError reports malformed capabilities input.
type SyntaxError struct {
	// Offset is the byte offset of the problem in the input
	Offset int

	// Reason describes the problem
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("capabilities syntax error at offset %d: %s", e.Offset, e.Reason)
}

// entry is one top-level name(body) group.
type entry struct {
	name      string
	bodyStart int
	bodyEnd   int
}

// ParseBytes parses a capabilities string as returned by the display.
//
// Example:
//
//	raw, _ := engine.Capabilities(ctx)
//	c, err := caps.ParseBytes(raw)
func ParseBytes(b []byte) (*Capabilities, error) {
	return Parse(string(b))
}

// Parse parses a capabilities string.
//
// The outer parentheses are optional, whitespace between tokens is
// ignored and trailing NUL bytes are dropped. Entries other than prot,
// type, model, cmds, vcp and mccs_ver are kept raw in Entries.
//
// Example:
//
//	c, err := caps.Parse("(prot(monitor)type(lcd)cmds(01 02 03)vcp(10 12 60(0F 11)))")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(c.SupportsFeature(0x10)) // true
func Parse(s string) (*Capabilities, error) {
	s = strings.TrimRight(s, "\x00")

	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	if start == end {
		return nil, &SyntaxError{Offset: 0, Reason: "empty capabilities string"}
	}

	if s[start] == '(' {
		closeAt, err := matching(s, start, end)
		if err != nil {
			return nil, err
		}
		if closeAt != end-1 {
			return nil, &SyntaxError{Offset: closeAt + 1, Reason: "unexpected data after closing parenthesis"}
		}
		start++
		end--
	}

	entries, err := splitEntries(s, start, end)
	if err != nil {
		return nil, err
	}

	c := &Capabilities{Entries: make(map[string]string, len(entries))}
	for _, e := range entries {
		body := s[e.bodyStart:e.bodyEnd]
		if prev, ok := c.Entries[e.name]; ok {
			c.Entries[e.name] = prev + " " + body
		} else {
			c.Entries[e.name] = body
		}

		switch e.name {
		case "prot":
			c.Protocol = strings.TrimSpace(body)
		case "type":
			c.Type = strings.TrimSpace(body)
		case "model":
			c.Model = strings.TrimSpace(body)
		case "mccs_ver":
			c.MCCSVersion = strings.TrimSpace(body)
		case "cmds":
			ops, err := hexBytes(s, e.bodyStart, e.bodyEnd, false)
			if err != nil {
				return nil, err
			}
			c.Commands = append(c.Commands, ops...)
		case "vcp":
			features, err := parseFeatures(s, e.bodyStart, e.bodyEnd)
			if err != nil {
				return nil, err
			}
			c.Features = append(c.Features, features...)
		}
	}

	return c, nil
}

// splitEntries splits s[start:end] into name(body) groups.
func splitEntries(s string, start, end int) ([]entry, error) {
	var entries []entry

	i := start
	for {
		for i < end && isSpace(s[i]) {
			i++
		}
		if i >= end {
			return entries, nil
		}

		switch s[i] {
		case ')':
			return nil, &SyntaxError{Offset: i, Reason: "unexpected ')'"}
		case '(':
			return nil, &SyntaxError{Offset: i, Reason: "missing entry name"}
		}

		nameStart := i
		for i < end && isNameChar(s[i]) {
			i++
		}
		if i == nameStart {
			return nil, &SyntaxError{Offset: i, Reason: fmt.Sprintf("unexpected character %q", s[i])}
		}
		name := s[nameStart:i]

		for i < end && isSpace(s[i]) {
			i++
		}
		if i >= end || s[i] != '(' {
			return nil, &SyntaxError{Offset: i, Reason: fmt.Sprintf("expected '(' after %q", name)}
		}

		closeAt, err := matching(s, i, end)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry{
			name:      strings.ToLower(name),
			bodyStart: i + 1,
			bodyEnd:   closeAt,
		})
		i = closeAt + 1
	}
}

// parseFeatures parses the body of the vcp entry: hex codes, each
// optionally followed by a parenthesized list of permitted values.
func parseFeatures(s string, start, end int) ([]Feature, error) {
	var features []Feature

	i := start
	for i < end {
		switch c := s[i]; {
		case isSpace(c):
			i++
		case c == '(':
			closeAt, err := matching(s, i, end)
			if err != nil {
				return nil, err
			}
			if len(features) == 0 {
				return nil, &SyntaxError{Offset: i, Reason: "value list without a feature code"}
			}
			values, err := hexBytes(s, i+1, closeAt, true)
			if err != nil {
				return nil, err
			}
			last := &features[len(features)-1]
			if last.Values == nil {
				last.Values = values
			} else {
				last.Values = append(last.Values, values...)
			}
			i = closeAt + 1
		case c == ')':
			return nil, &SyntaxError{Offset: i, Reason: "unexpected ')'"}
		default:
			runEnd, err := hexRun(s, i, end)
			if err != nil {
				return nil, err
			}
			codes, _ := hex.DecodeString(s[i:runEnd])
			for _, code := range codes {
				features = append(features, Feature{Code: code})
			}
			i = runEnd
		}
	}

	return features, nil
}

// hexBytes decodes whitespace-separated hex bytes in s[start:end].
// Runs without separators ("0102") decode to several bytes. With nested
// set, parenthesized groups are skipped; otherwise they are an error.
func hexBytes(s string, start, end int, nested bool) ([]byte, error) {
	out := make([]byte, 0, (end-start)/3+1)

	i := start
	for i < end {
		switch c := s[i]; {
		case isSpace(c):
			i++
		case c == '(' && nested:
			closeAt, err := matching(s, i, end)
			if err != nil {
				return nil, err
			}
			i = closeAt + 1
		case c == '(' || c == ')':
			return nil, &SyntaxError{Offset: i, Reason: fmt.Sprintf("unexpected %q", c)}
		default:
			runEnd, err := hexRun(s, i, end)
			if err != nil {
				return nil, err
			}
			b, _ := hex.DecodeString(s[i:runEnd])
			out = append(out, b...)
			i = runEnd
		}
	}

	return out, nil
}

// hexRun returns the end of the hex digit run starting at i.
// The run must have an even length and end at a separator.
func hexRun(s string, i, end int) (int, error) {
	runStart := i
	for i < end && isHex(s[i]) {
		i++
	}
	if i < end && !isSpace(s[i]) && s[i] != '(' && s[i] != ')' {
		return 0, &SyntaxError{Offset: i, Reason: fmt.Sprintf("invalid hex digit %q", s[i])}
	}
	if (i-runStart)%2 != 0 {
		return 0, &SyntaxError{Offset: runStart, Reason: "odd number of hex digits"}
	}
	return i, nil
}

// matching returns the index of the parenthesis closing the one at open.
func matching(s string, open, end int) (int, error) {
	depth := 0
	for i := open; i < end; i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, &SyntaxError{Offset: open, Reason: "unclosed parenthesis"}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
