// Package logstream turns the sync engine's interleaved log stream (JSON
// events mixed with free-text lines, arriving in arbitrary chunk boundaries)
// into discrete render blocks for the dashboard.
package logstream

import (
	"bytes"
	"strings"
)

// TokenKind discriminates scanner output.
type TokenKind uint8

const (
	// TokenJSON is one complete brace-balanced JSON object.
	TokenJSON TokenKind = iota
	// TokenLine is one plain-text log line (no trailing newline).
	TokenLine
)

// Token is one complete unit extracted from the stream.
type Token struct {
	Kind TokenKind
	Raw  string
}

// sectionMarkers start a new logical line even when the engine glued them to
// the tail of the previous one.
var sectionMarkers = []string{
	"> SYNC",
	"[i] ",
	"[!] ",
	"⚠",          // warning sign header
	"✔",          // check mark header
	"\U0001f501", // repeat arrows header
}

// Scanner assembles arbitrarily fragmented stream chunks into complete
// tokens. Incomplete trailing data (a JSON object cut mid-brace, a text line
// without its newline yet) stays buffered for the next Feed call; it is never
// emitted early. This is what keeps rendering identical no matter how the
// network splits the stream.
type Scanner struct {
	buf []byte
}

// Feed appends chunk to the rolling buffer and returns every complete token
// now available.
func (s *Scanner) Feed(chunk string) []Token {
	s.buf = append(s.buf, chunk...)

	var toks []Token
	pos := 0
	for pos < len(s.buf) {
		c := s.buf[pos]
		if c == '\n' || c == '\r' {
			pos++
			continue
		}

		if c == '{' {
			n, ok := scanJSONObject(s.buf[pos:])
			if !ok {
				break // incomplete object, wait for more data
			}
			toks = append(toks, Token{Kind: TokenJSON, Raw: string(s.buf[pos : pos+n])})
			pos += n
			continue
		}

		rest := s.buf[pos:]
		end, complete := plainSpan(rest)
		if !complete {
			break // line still open, wait for its newline or a JSON object
		}
		line := strings.TrimRight(string(rest[:end]), "\r")
		if line != "" {
			toks = append(toks, Token{Kind: TokenLine, Raw: line})
		}
		pos += end
	}

	s.buf = s.buf[pos:]
	return toks
}

// Pending returns the unconsumed buffer tail.
func (s *Scanner) Pending() string {
	return string(s.buf)
}

// Flush emits any buffered plain text as a final line. A buffered incomplete
// JSON object is discarded, never rendered.
func (s *Scanner) Flush() []Token {
	rest := bytes.TrimRight(s.buf, "\r\n")
	s.buf = nil
	if len(rest) == 0 || rest[0] == '{' {
		return nil
	}
	return []Token{{Kind: TokenLine, Raw: string(rest)}}
}

// plainSpan finds the extent of the plain-text line starting at b[0]. The
// line ends at a newline, at the start of a JSON object, or at an embedded
// section marker (a virtual newline). complete is false when the line is
// still open-ended at the buffer tail.
func plainSpan(b []byte) (end int, complete bool) {
	limit := len(b)
	complete = false

	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		limit = i + 1 // include the newline in the consumed span
		complete = true
	}
	if i := bytes.IndexByte(b[:min(limit, len(b))], '{'); i >= 0 {
		return i, true
	}

	// virtual newline: split before an embedded section marker
	text := b[:limit]
	for _, m := range sectionMarkers {
		if i := bytes.Index(text, []byte(m)); i > 0 {
			return i, true
		}
	}

	return limit, complete
}

// scanJSONObject returns the byte length of the complete JSON object at b[0],
// counting brace depth with string and escape awareness so braces inside
// quoted values do not close the object early.
func scanJSONObject(b []byte) (int, bool) {
	depth := 0
	inStr := false
	esc := false

	for i := 0; i < len(b); i++ {
		c := b[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
