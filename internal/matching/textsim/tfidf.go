// internal/matching/textsim/tfidf.go
package textsim

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyCorpus is returned when the source text, or every document
// in the batch, produced no terms. Callers fall back to pairwise
// lexical scoring.
var ErrEmptyCorpus = errors.New("textsim: no terms in corpus")

// TFIDFScorer scores one source text against a batch of candidate
// texts with a shared TF-IDF vocabulary. Terms are unigrams plus
// adjacent bigrams; the vocabulary keeps the terms that appear in the
// most documents, capped at VocabCap.
type TFIDFScorer struct {
	VocabCap int
}

func NewTFIDFScorer(vocabCap int) *TFIDFScorer {
	if vocabCap <= 0 {
		vocabCap = 500
	}
	return &TFIDFScorer{VocabCap: vocabCap}
}

// ScoreBatch returns one [0, 1] cosine score per candidate, in input
// order. A candidate that shares no vocabulary terms with the source
// scores 0. The corpus is the source plus all candidates, so document
// frequencies reflect this batch only. A source that tokenizes to
// nothing returns ErrEmptyCorpus so callers switch to the lexical
// fallback instead of ranking on all-zero scores.
func (s *TFIDFScorer) ScoreBatch(source string, candidates []string) ([]float64, error) {
	srcTerms := terms(source)
	if len(srcTerms) == 0 {
		return nil, ErrEmptyCorpus
	}

	docs := make([][]string, 0, len(candidates)+1)
	docs = append(docs, srcTerms)
	for _, c := range candidates {
		docs = append(docs, terms(c))
	}

	vocab, df := s.buildVocabulary(docs)
	if len(vocab) == 0 {
		return nil, ErrEmptyCorpus
	}

	// idf with add-one smoothing keeps terms present in every
	// document from zeroing out.
	n := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for term := range vocab {
		idf[term] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([]map[string]float64, len(docs))
	for i, doc := range docs {
		vec := make(map[string]float64)
		for _, t := range doc {
			if _, ok := vocab[t]; ok {
				vec[t]++
			}
		}
		for t := range vec {
			vec[t] *= idf[t]
		}
		vectors[i] = vec
	}

	src := vectors[0]
	scores := make([]float64, len(candidates))
	for i := range candidates {
		scores[i] = round4(cosineVec(src, vectors[i+1]))
	}
	return scores, nil
}

// buildVocabulary maps each kept term to an index and returns document
// frequencies. When the corpus has more distinct terms than VocabCap,
// the most widespread terms win; ties break alphabetically so the
// result is deterministic.
func (s *TFIDFScorer) buildVocabulary(docs [][]string) (map[string]int, map[string]int) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	all := make([]string, 0, len(df))
	for t := range df {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if df[all[i]] != df[all[j]] {
			return df[all[i]] > df[all[j]]
		}
		return all[i] < all[j]
	})

	if len(all) > s.VocabCap {
		all = all[:s.VocabCap]
	}

	vocab := make(map[string]int, len(all))
	for i, t := range all {
		vocab[t] = i
	}
	return vocab, df
}

// terms expands a text into its unigram plus bigram term list.
func terms(text string) []string {
	tokens := Tokenize(text)
	return append(tokens, Bigrams(tokens)...)
}

func cosineVec(a, b map[string]float64) float64 {
	var dot float64
	for t, va := range a {
		if vb, ok := b[t]; ok {
			dot += va * vb
		}
	}
	if dot == 0 {
		return 0.0
	}

	var na, nb float64
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
