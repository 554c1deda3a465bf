// Package tokenize extracts word tokens from plain-text and HTML bytes
// for the indexer stage. Spec §1 places tokenisation rules outside the
// core subject of the specification ("external collaborators via §6
// interfaces"); none of the teacher's or the pack's dependencies cover
// HTML/text parsing, so this package is a deliberately small stdlib
// implementation rather than a redirection to a third-party parser that
// doesn't exist in the corpus (see DESIGN.md).
package tokenize

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/standardbeagle/lciindex/internal/types"
)

var htmlTagOrEntity = regexp.MustCompile(`(?s)<[^>]*>|&[a-zA-Z#0-9]+;`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {},
}

func isWordByte(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func scanWords(text string, fn func(string)) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		raw := strings.ToLower(strings.TrimFunc(scanner.Text(), func(r rune) bool { return !isWordByte(r) }))
		if raw == "" {
			continue
		}
		if _, stop := stopWords[raw]; stop {
			continue
		}
		fn(raw)
	}
}

// Text parses plain-text bytes into a TmpWords aggregation for file.
func Text(file string, data []byte) *types.TmpWords {
	tmp := types.NewTmpWords(file)
	scanWords(string(data), tmp.Add)
	return tmp
}

// HTML strips tags and entities, then tokenises the remaining text the
// same way as Text.
func HTML(file string, data []byte) *types.TmpWords {
	stripped := htmlTagOrEntity.ReplaceAll(bytes.TrimSpace(data), []byte(" "))
	return Text(file, stripped)
}
