package search

import (
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Snippet defaults: excerpt width in characters and the number of
// excerpts returned.
const (
	DefaultSnippetWidth   = 100
	DefaultSnippetResults = 3
)

// Snippet returns up to DefaultSnippetResults excerpts of text around the
// expression's keywords, each DefaultSnippetWidth characters wide unless
// a keyword straddles the edge, with every keyword occurrence wrapped in
// open and close. Matching ignores case and width differences the same
// way the engine does.
func (e *Expression) Snippet(text, open, close string) ([]string, error) {
	kws, err := e.Keywords()
	if err != nil {
		return nil, err
	}
	return snippets(text, kws, open, close, DefaultSnippetWidth, DefaultSnippetResults), nil
}

type span struct{ start, end int } // rune offsets, end exclusive

func normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// foldedText is text normalized one normalization segment at a time. Each
// normalized rune records the source runes of its segment, so a ligature
// or a combining sequence is matched and marked as a whole.
type foldedText struct {
	runes []rune
	from  []span
}

func foldText(text string) foldedText {
	var f foldedText
	b := []byte(text)
	pos := 0
	for len(b) > 0 {
		n := norm.NFKC.NextBoundary(b, true)
		if n <= 0 {
			n = len(b)
		}
		seg := span{pos, pos + utf8.RuneCount(b[:n])}
		for _, r := range normalize(string(b[:n])) {
			f.runes = append(f.runes, r)
			f.from = append(f.from, seg)
		}
		pos = seg.end
		b = b[n:]
	}
	return f
}

// boundary reports whether a match may start or end before normalized
// rune i.
func (f foldedText) boundary(i int) bool {
	return i == 0 || i == len(f.runes) || f.from[i] != f.from[i-1]
}

// findMatches scans the normalized text left to right, preferring the
// longest keyword at each position. Matches never overlap and never split
// a source character; spans are in source rune offsets.
func findMatches(text string, keywords []string) []span {
	var kws [][]rune
	for _, k := range keywords {
		if k == "" {
			continue
		}
		kws = append(kws, []rune(normalize(k)))
	}
	sort.SliceStable(kws, func(i, j int) bool { return len(kws[i]) > len(kws[j]) })

	f := foldText(text)
	var out []span
	for i := 0; i < len(f.runes); {
		matched := false
		if f.boundary(i) {
			for _, k := range kws {
				end := i + len(k)
				if len(k) == 0 || end > len(f.runes) || !f.boundary(end) || !slices.Equal(f.runes[i:end], k) {
					continue
				}
				out = append(out, span{f.from[i].start, f.from[end-1].end})
				i = end
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out
}

func snippets(text string, keywords []string, open, close string, width, limit int) []string {
	runes := []rune(text)
	matches := findMatches(text, keywords)
	var out []string
	floor := 0
	for i := 0; i < len(matches) && len(out) < limit; {
		first := matches[i]
		start := min(max(first.start-(width-(first.end-first.start))/2, floor), first.start)
		end := start + width
		if end > len(runes) {
			end = len(runes)
			start = max(end-width, floor)
		}

		var b strings.Builder
		pos := start
		for i < len(matches) && matches[i].start < end {
			m := matches[i]
			end = max(end, m.end)
			b.WriteString(string(runes[pos:m.start]))
			b.WriteString(open)
			b.WriteString(string(runes[m.start:m.end]))
			b.WriteString(close)
			pos = m.end
			i++
		}
		b.WriteString(string(runes[pos:end]))
		out = append(out, b.String())
		floor = end
	}
	return out
}
