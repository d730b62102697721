// Package fuzzy implements the typo-tolerant title matching used to filter
// the catalog selector.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Distance returns the case-insensitive edit distance between a and b,
// counted in runes.
func Distance(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			sub := prev[j-1]
			if ra[i-1] != rb[j-1] {
				sub++
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity maps Distance onto [0, 1]; 1 means equal ignoring case.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}

// Match reports whether every word of query appears in text, either as a
// substring or as a word within tolerance.
func Match(text, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" || text == "" {
		return false
	}
	if strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
		return true
	}

	words := tokens(text)
	for _, q := range tokens(query) {
		if bestWord(words, q) < threshold(q) {
			return false
		}
	}
	return len(words) > 0
}

// Score ranks how well text answers query. Prefix matches score 1, plain
// substrings 0.95 and word-level fuzzy matches at most 0.9.
func Score(text, query string) float64 {
	lt, lq := strings.ToLower(text), strings.ToLower(strings.TrimSpace(query))
	switch {
	case lq == "":
		return 0
	case strings.HasPrefix(lt, lq):
		return 1
	case strings.Contains(lt, lq):
		return 0.95
	}

	qs := tokens(query)
	if len(qs) == 0 {
		return 0
	}
	words := tokens(text)
	var total float64
	for _, q := range qs {
		total += bestWord(words, q)
	}
	return 0.9 * total / float64(len(qs))
}

// Rank returns the candidates matching query, best first. Ties keep
// alphabetical order. An empty query returns all candidates sorted.
func Rank(candidates []string, query string) []string {
	if strings.TrimSpace(query) == "" {
		out := append([]string(nil), candidates...)
		sort.Strings(out)
		return out
	}

	type scored struct {
		text  string
		score float64
	}
	hits := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if Match(c, query) {
			hits = append(hits, scored{text: c, score: Score(c, query)})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].text < hits[j].text
	})

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.text
	}
	return out
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func bestWord(words []string, q string) float64 {
	var best float64
	for _, w := range words {
		if s := Similarity(w, q); s > best {
			best = s
		}
	}
	return best
}

// threshold is stricter for short words, where one typo changes more.
func threshold(word string) float64 {
	switch n := len([]rune(word)); {
	case n <= 3:
		return 0.8
	case n <= 5:
		return 0.7
	default:
		return 0.65
	}
}
