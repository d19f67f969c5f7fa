// Package segment splits reply text into typewriter fragments.
//
// A fragment ends immediately after any terminal punctuation character,
// half-width or full-width. The punctuation stays attached to the fragment
// it terminates, so concatenating all fragments reproduces the input byte
// for byte. Text without punctuation is a single fragment; empty text
// yields none.
package segment

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// breakSet holds every character that terminates a fragment. It covers the
// half-width punctuation used in English replies and the full-width CJK
// equivalents used in Chinese ones.
const breakSet = ".!?,;:。！？，；："

// Fragments returns a restartable sequence over the fragments of text.
// The sequence is finite and side-effect-free; ranging over it twice
// yields the same fragments.
func Fragments(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		for i, r := range text {
			if !strings.ContainsRune(breakSet, r) {
				continue
			}
			end := i + utf8.RuneLen(r)
			if !yield(text[start:end]) {
				return
			}
			start = end
		}
		if start < len(text) {
			yield(text[start:])
		}
	}
}

// Split collects Fragments into a slice. It returns nil for empty text.
func Split(text string) []string {
	var out []string
	for f := range Fragments(text) {
		out = append(out, f)
	}
	return out
}
