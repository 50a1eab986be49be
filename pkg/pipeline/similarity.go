package pipeline

import "strings"

// similarity scores two match-normalized canonical forms in [0, 1]. It is
// the maximum of token-set Jaccard and normalized Levenshtein, so both
// reordered multi-word chunks and small spelling variations score high.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	j := tokenJaccard(a, b)
	l := normalizedLevenshtein(a, b)
	return max(j, l)
}

func tokenJaccard(a, b string) float64 {
	aSet := map[string]struct{}{}
	for _, t := range strings.Fields(a) {
		aSet[t] = struct{}{}
	}
	bSet := map[string]struct{}{}
	for _, t := range strings.Fields(b) {
		bSet[t] = struct{}{}
	}
	if len(aSet) == 0 && len(bSet) == 0 {
		return 1
	}
	inter := 0
	for t := range aSet {
		if _, ok := bSet[t]; ok {
			inter++
		}
	}
	union := len(aSet) + len(bSet) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func normalizedLevenshtein(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 && len(br) == 0 {
		return 1
	}
	maxLen := max(len(ar), len(br))
	if maxLen == 0 {
		return 0
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := 0; j <= len(br); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return 1 - float64(prev[len(br)])/float64(maxLen)
}
