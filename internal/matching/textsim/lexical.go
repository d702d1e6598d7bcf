// internal/matching/textsim/lexical.go
package textsim

import "math"

// LexicalScorer blends term-frequency cosine similarity with Jaccard
// set overlap into one [0, 1] text score. Weights must sum to 1.
type LexicalScorer struct {
	CosineWeight  float64
	JaccardWeight float64
}

// NewLexicalScorer returns a scorer with the standard 0.7 cosine /
// 0.3 Jaccard blend.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{CosineWeight: 0.7, JaccardWeight: 0.3}
}

// Score compares two raw texts. Either side tokenizing to nothing
// scores 0.
func (s *LexicalScorer) Score(a, b string) float64 {
	ta := Tokenize(a)
	tb := Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	combined := s.CosineWeight*cosine(ta, tb) + s.JaccardWeight*jaccard(ta, tb)
	return round4(combined)
}

// cosine computes cosine similarity of the two token lists' term
// frequency vectors.
func cosine(a, b []string) float64 {
	fa := termFreq(a)
	fb := termFreq(b)

	var dot float64
	for term, ca := range fa {
		if cb, ok := fb[term]; ok {
			dot += float64(ca) * float64(cb)
		}
	}
	if dot == 0 {
		return 0.0
	}

	var na, nb float64
	for _, c := range fa {
		na += float64(c) * float64(c)
	}
	for _, c := range fb {
		nb += float64(c) * float64(c)
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// jaccard computes |A∩B| / |A∪B| over the distinct token sets.
func jaccard(a, b []string) float64 {
	sa := make(map[string]struct{}, len(a))
	for _, t := range a {
		sa[t] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, t := range b {
		sb[t] = struct{}{}
	}

	inter := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

func termFreq(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
