// internal/matching/fieldscore/fieldscore.go

// Package fieldscore scores the structured fields of an item pair.
// Every scorer returns a value in [0, 100] so the signals compose
// directly under the configured weights.
package fieldscore

import (
	"strings"
	"time"

	"github.com/hbollon/go-edlib"
)

// Category scores an exact category match. A missing category on
// either side scores 0.
func Category(a, b *int64) float64 {
	if a == nil || b == nil {
		return 0
	}
	if *a == *b {
		return 100
	}
	return 0
}

// Location scores how similar two free-text locations are using
// Levenshtein string similarity. When the similarity library cannot
// compare the pair it degrades to substring containment: one location
// containing the other scores 50, otherwise 0. Missing locations
// score 0.
func Location(a, b *string) float64 {
	if a == nil || b == nil {
		return 0
	}
	la := strings.ToLower(strings.TrimSpace(*a))
	lb := strings.ToLower(strings.TrimSpace(*b))
	if la == "" || lb == "" {
		return 0
	}

	sim, err := edlib.StringsSimilarity(la, lb, edlib.Levenshtein)
	if err != nil {
		if strings.Contains(la, lb) || strings.Contains(lb, la) {
			return 50
		}
		return 0
	}
	return float64(sim) * 100
}

// Time scores temporal proximity with a linear decay over windowDays.
// A pair whose dates differ by the full window or more scores 0. The
// direction matters: a found report dated before the loss cannot be
// the same item, so foundBeforeLost pairs score 0 regardless of
// distance. Missing dates score 0. windowDays is clamped to [1, 30].
func Time(lostAt, foundAt *time.Time, windowDays int) float64 {
	if lostAt == nil || foundAt == nil {
		return 0
	}
	if windowDays < 1 {
		windowDays = 1
	}
	if windowDays > 30 {
		windowDays = 30
	}

	diff := foundAt.Sub(*lostAt)
	if diff < 0 {
		return 0
	}

	dayDiff := diff.Hours() / 24
	score := (1 - dayDiff/float64(windowDays)) * 100
	if score < 0 {
		return 0
	}
	return score
}
