// Package encoding undoes a specific text corruption: UTF-8 bytes that were
// decoded as Latin-1 and re-encoded as UTF-8 ("mojibake"). The repair is a
// best-effort heuristic; ambiguous inputs are returned unchanged.
package encoding

import (
	"strings"
	"unicode/utf8"
)

// Repair reinterprets each code point of s as a single Latin-1 byte and
// attempts to decode the byte sequence as UTF-8. The repaired string is
// accepted only when it contains no replacement characters and has strictly
// fewer code points in the 0x80-0xFF range than the original. Returns the
// resulting string and whether it changed.
func Repair(s string) (string, bool) {
	if s == "" {
		return s, false
	}

	bytes := make([]byte, 0, len(s))
	for _, r := range s {
		bytes = append(bytes, byte(r&0xFF))
	}

	// TextDecoder-style lenient decode would yield U+FFFD here, which the
	// acceptance check below rejects anyway.
	if !utf8.Valid(bytes) {
		return s, false
	}

	fixed := string(bytes)
	if fixed == s {
		return s, false
	}

	if strings.ContainsRune(fixed, utf8.RuneError) {
		return s, false
	}
	if countHighRange(fixed) >= countHighRange(s) {
		return s, false
	}
	return fixed, true
}

func countHighRange(s string) int {
	count := 0
	for _, r := range s {
		if r >= 0x80 && r <= 0xFF {
			count++
		}
	}
	return count
}
