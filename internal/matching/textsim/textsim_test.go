package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "latin words lowercase",
			input:    "Black iPhone 13",
			expected: []string{"black", "iphone", "13"},
		},
		{
			name:     "cjk per character",
			input:    "黑色钱包",
			expected: []string{"黑", "色", "钱", "包"},
		},
		{
			name:     "mixed scripts and digits",
			input:    "在3号楼丢了AirPods",
			expected: []string{"在", "3", "号", "楼", "丢", "了", "airpods"},
		},
		{
			name:     "punctuation separates",
			input:    "wallet, black-leather!",
			expected: []string{"wallet", "black", "leather"},
		},
		{
			name:     "digits split from letters",
			input:    "mk4070ll",
			expected: []string{"mk", "4070", "ll"},
		},
		{
			name:     "duplicates kept in order",
			input:    "red bag red",
			expected: []string{"red", "bag", "red"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "only punctuation",
			input:    "!!! ... ???",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestBigrams(t *testing.T) {
	assert.Nil(t, Bigrams(nil))
	assert.Nil(t, Bigrams([]string{"solo"}))
	assert.Equal(t, []string{"black wallet", "wallet leather"},
		Bigrams([]string{"black", "wallet", "leather"}))
}

func TestLexicalScorer_Score(t *testing.T) {
	scorer := NewLexicalScorer()

	t.Run("identical texts score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, scorer.Score("black leather wallet", "black leather wallet"), 1e-9)
	})

	t.Run("disjoint texts score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Score("umbrella", "laptop charger"))
	})

	t.Run("empty side scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Score("", "black wallet"))
		assert.Equal(t, 0.0, scorer.Score("black wallet", ""))
		assert.Equal(t, 0.0, scorer.Score("...", "black wallet"))
	})

	t.Run("partial overlap between 0 and 1", func(t *testing.T) {
		score := scorer.Score("black leather wallet", "black wallet found")
		assert.Greater(t, score, 0.0)
		assert.Less(t, score, 1.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := "lost my black wallet in the library"
		b := "found a wallet near library entrance"
		assert.Equal(t, scorer.Score(a, b), scorer.Score(b, a))
	})

	t.Run("known blend value", func(t *testing.T) {
		// "red bag" vs "red box": cosine = 1/2, jaccard = 1/3
		// 0.7*0.5 + 0.3*(1/3) = 0.45, rounded to 4 decimals
		assert.InDelta(t, 0.45, scorer.Score("red bag", "red box"), 1e-9)
	})

	t.Run("cjk similarity", func(t *testing.T) {
		score := scorer.Score("黑色钱包", "钱包黑色的")
		assert.Greater(t, score, 0.5)
	})

	t.Run("rounded to four decimals", func(t *testing.T) {
		score := scorer.Score("one two three", "one four five six")
		assert.Equal(t, score, round4(score))
	})
}

func TestTFIDFScorer_ScoreBatch(t *testing.T) {
	scorer := NewTFIDFScorer(500)

	t.Run("scores in candidate order", func(t *testing.T) {
		scores, err := scorer.ScoreBatch(
			"black leather wallet lost in library",
			[]string{
				"found black leather wallet",
				"blue umbrella found at gym",
				"black leather wallet lost in library",
			},
		)
		require.NoError(t, err)
		require.Len(t, scores, 3)

		assert.Greater(t, scores[0], scores[1])
		assert.InDelta(t, 1.0, scores[2], 1e-9)
	})

	t.Run("no shared vocabulary scores 0", func(t *testing.T) {
		scores, err := scorer.ScoreBatch("umbrella", []string{"laptop"})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.0}, scores)
	})

	t.Run("empty corpus is an error", func(t *testing.T) {
		_, err := scorer.ScoreBatch("...", []string{"!!!", ""})
		assert.ErrorIs(t, err, ErrEmptyCorpus)
	})

	t.Run("blank source is an error even with scorable candidates", func(t *testing.T) {
		_, err := scorer.ScoreBatch("...", []string{"black wallet", "red bag"})
		assert.ErrorIs(t, err, ErrEmptyCorpus)
	})

	t.Run("empty candidate scores 0", func(t *testing.T) {
		scores, err := scorer.ScoreBatch("black wallet", []string{""})
		require.NoError(t, err)
		assert.Equal(t, []float64{0.0}, scores)
	})

	t.Run("bigram overlap outranks bag of words", func(t *testing.T) {
		scores, err := scorer.ScoreBatch(
			"black wallet",
			[]string{"black wallet found", "wallet black found"},
		)
		require.NoError(t, err)
		assert.Greater(t, scores[0], scores[1])
	})

	t.Run("vocabulary cap keeps widespread terms", func(t *testing.T) {
		capped := NewTFIDFScorer(2)
		scores, err := capped.ScoreBatch(
			"wallet wallet unique",
			[]string{"wallet common", "wallet common"},
		)
		require.NoError(t, err)
		require.Len(t, scores, 2)
		for _, s := range scores {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	})
}

func TestKeywords(t *testing.T) {
	t.Run("drops stopwords", func(t *testing.T) {
		kws := Keywords("lost my black wallet in the library", 5)
		assert.Equal(t, []string{"black", "wallet", "library"}, kws)
	})

	t.Run("frequency then first appearance", func(t *testing.T) {
		kws := Keywords("bag keys bag phone keys bag", 2)
		assert.Equal(t, []string{"bag", "keys"}, kws)
	})

	t.Run("cjk stopwords", func(t *testing.T) {
		kws := Keywords("我的钱包丢了", 5)
		assert.NotContains(t, kws, "我")
		assert.NotContains(t, kws, "的")
		assert.NotContains(t, kws, "了")
		assert.Contains(t, kws, "钱")
	})

	t.Run("zero max", func(t *testing.T) {
		assert.Nil(t, Keywords("black wallet", 0))
	})
}
