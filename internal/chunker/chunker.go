// Package chunker splits long text into sentence-respecting chunks bounded
// by a maximum character budget, so that each piece fits within the
// translation backend's input limit.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// Split breaks text into ordered chunks of at most maxChars bytes each,
// except when a single sentence alone exceeds maxChars, in which case that
// sentence is hard-split at rune boundaries.
//
// Text at or under the budget is returned as a single chunk. Sentence
// boundaries are detected per Unicode UAX #29; if segmentation yields
// nothing the text is sliced at fixed width instead. Blank chunks are
// filtered from the result.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{strings.TrimSpace(text)}
	}

	sents := segment(text)
	if len(sents) == 0 {
		return splitFixed(text, maxChars)
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range sents {
		// Close the open chunk before a sentence that would overflow it.
		if current.Len() > 0 && current.Len()+len(sentence)+1 > maxChars {
			flush()
		}
		if len(sentence) > maxChars {
			flush()
			chunks = append(chunks, splitFixed(sentence, maxChars)...)
			continue
		}
		current.WriteString(sentence)
		current.WriteString(" ")
	}
	flush()

	return chunks
}

// segment returns the trimmed, non-blank sentences of text in order.
func segment(text string) []string {
	var result []string
	seg := sentences.FromString(text)
	for seg.Next() {
		if s := strings.TrimSpace(seg.Value()); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// splitFixed slices text into pieces of at most maxChars bytes, cutting only
// at rune boundaries so multi-byte characters are never torn apart.
func splitFixed(text string, maxChars int) []string {
	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxChars {
			if s := strings.TrimSpace(text); s != "" {
				chunks = append(chunks, s)
			}
			break
		}
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// A single rune longer than the budget; emit it whole.
			_, size := utf8.DecodeRuneInString(text)
			cut = size
		}
		if s := strings.TrimSpace(text[:cut]); s != "" {
			chunks = append(chunks, s)
		}
		text = text[cut:]
	}
	return chunks
}
