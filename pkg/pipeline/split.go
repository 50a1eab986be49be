package pipeline

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/sprachlab/lerngraph/pkg/common"
)

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Closing quotes and brackets that belong to the sentence they follow.
func isCloser(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', '«', '»', ')', ']', '}':
		return true
	}
	return false
}

// numericListing reports whether the '.' at rune index i terminates a bare
// number, as in "1. Kapitel". Those periods are listing markers, not
// sentence boundaries.
func numericListing(rs []rune, i int) bool {
	j := i - 1
	digits := 0
	for j >= 0 && !unicode.IsSpace(rs[j]) {
		if !unicode.IsDigit(rs[j]) {
			return false
		}
		digits++
		j--
	}
	return digits > 0
}

// SplitSentences segments text at '.', '!' and '?' boundaries, preserving
// original order and byte offsets. Runs of terminators ("...", "?!") end one
// sentence, and trailing quotes or brackets are absorbed into it. Periods
// that terminate numeric listing markers do not split.
func SplitSentences(text string) []common.Sentence {
	var (
		rs   []rune
		offs []int
	)
	for i, r := range text {
		rs = append(rs, r)
		offs = append(offs, i)
	}
	offs = append(offs, len(text))

	sentences := make([]common.Sentence, 0)
	start := 0

	flush := func(end int) {
		s := start
		for s < end && unicode.IsSpace(rs[s]) {
			s++
		}
		e := end
		for e > s && unicode.IsSpace(rs[e-1]) {
			e--
		}
		if s < e {
			sentences = append(sentences, common.Sentence{
				Idx:   len(sentences),
				Text:  string(rs[s:e]),
				Start: offs[s],
				End:   offs[e],
			})
		}
		start = end
	}

	i := 0
	for i < len(rs) {
		if !isTerminator(rs[i]) {
			i++
			continue
		}
		if rs[i] == '.' && numericListing(rs, i) {
			i++
			continue
		}
		j := i + 1
		for j < len(rs) && isTerminator(rs[j]) {
			j++
		}
		for j < len(rs) && isCloser(rs[j]) {
			j++
		}
		flush(j)
		i = j
	}
	flush(len(rs))

	return sentences
}

// BuildSourceText splits text and wraps it with its sentences for one
// extraction run.
func BuildSourceText(text string) common.SourceText {
	return common.SourceText{
		Text:      text,
		Sentences: SplitSentences(text),
	}
}

// renderSentences formats sentences as "[idx] text" lines for the extraction
// prompt, using the provided index base so batch-local prompts stay
// zero-based.
func renderSentences(sentences []common.Sentence, base int) string {
	var b strings.Builder
	for i, s := range sentences {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(strconv.Itoa(s.Idx - base))
		b.WriteString("] ")
		b.WriteString(s.Text)
	}
	return b.String()
}
