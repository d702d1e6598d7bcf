// internal/matching/engine/engine.go

// Package engine ranks candidate items against a source item. The
// pipeline is retrieve, score, sort, filter, truncate; scoring mixes a
// text signal with category, location and time proximity. All scores
// are ephemeral, nothing is persisted.
package engine

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"lostfound-matching/internal/common/config"
	apperrors "lostfound-matching/internal/common/errors"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/common/metrics"
	"lostfound-matching/internal/matching/fieldscore"
	"lostfound-matching/internal/matching/notify"
	"lostfound-matching/internal/matching/store"
	"lostfound-matching/internal/matching/textsim"
	"lostfound-matching/internal/models"
)

// Store is the candidate source the engine ranks from.
type Store interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	FindCandidates(ctx context.Context, f store.CandidateFilter) ([]*models.Item, error)
}

// Searcher optionally pre-filters candidates by text relevance. A
// failed search falls back to the Store, it never fails a ranking
// call.
type Searcher interface {
	SearchCandidates(ctx context.Context, queryText string, f store.CandidateFilter) ([]*models.Item, error)
}

type Engine struct {
	cfg      config.MatchingConfig
	store    Store
	searcher Searcher // nil when elasticsearch is disabled
	notifier notify.Notifier
	lexical  *textsim.LexicalScorer
	tfidf    *textsim.TFIDFScorer
	logger   logger.Logger
}

func New(cfg config.MatchingConfig, st Store, searcher Searcher, notifier notify.Notifier, log logger.Logger) *Engine {
	if notifier == nil {
		notifier = notify.NoOpNotifier{}
	}
	return &Engine{
		cfg:      cfg,
		store:    st,
		searcher: searcher,
		notifier: notifier,
		lexical: &textsim.LexicalScorer{
			CosineWeight:  cfg.Lexical.Cosine,
			JaccardWeight: cfg.Lexical.Jaccard,
		},
		tfidf:  textsim.NewTFIDFScorer(cfg.TFIDF.VocabularyCap),
		logger: log,
	}
}

// RankRequest describes one on-demand ranking call. Zero values take
// the configured defaults; Limit and WindowDays are clamped to their
// allowed ranges.
type RankRequest struct {
	ItemID     int64
	Limit      int
	WindowDays int
	MinScore   *float64
	// LexicalOnly skips the batch TF-IDF scorer and scores each pair
	// with the lexical blend instead.
	LexicalOnly bool
}

// Rank returns the best-scoring visible counterpart items for the
// given source, ordered by score descending with newer items winning
// ties. A general-kind source yields an empty result. Store errors are
// fatal; text-scorer errors degrade to the lexical fallback.
func (e *Engine) Rank(ctx context.Context, req RankRequest) ([]models.ScoredCandidate, error) {
	started := time.Now()
	defer func() {
		metrics.MatchScoringDuration.WithLabelValues("rank").Observe(time.Since(started).Seconds())
	}()

	limit := clamp(req.Limit, 1, e.cfg.Retrieval.MaxLimit, e.cfg.Retrieval.DefaultLimit)
	windowDays := clamp(req.WindowDays, 1, e.cfg.Retrieval.MaxWindowDays, e.cfg.Retrieval.DefaultWindowDays)
	minScore := e.cfg.Thresholds.MinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	source, err := e.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !source.Visible() {
		return nil, apperrors.NewItemNotVisibleError(req.ItemID)
	}
	metrics.MatchRequests.WithLabelValues("rank", string(source.Kind)).Inc()

	candidates, err := e.retrieve(ctx, source, windowDays, e.overFetch(limit))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.ScoredCandidate{}, nil
	}
	metrics.MatchCandidatesScored.WithLabelValues("rank").Observe(float64(len(candidates)))

	textScores := e.textScores(source, candidates, req.LexicalOnly)
	scored := e.scoreAll(source, candidates, textScores, windowDays)

	sortByScore(scored)

	result := make([]models.ScoredCandidate, 0, limit)
	for _, sc := range scored {
		if sc.Score > minScore {
			result = append(result, sc)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// MatchOnCreate runs the proactive path after a new item is persisted:
// it scores the newcomer against existing counterparts and notifies
// the authors of candidates above the notification threshold. Every
// failure is logged and swallowed so item creation is never affected.
// Returns the number of notifications handed to the notifier.
func (e *Engine) MatchOnCreate(ctx context.Context, itemID int64) int {
	started := time.Now()
	defer func() {
		metrics.MatchScoringDuration.WithLabelValues("on-create").Observe(time.Since(started).Seconds())
	}()

	source, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		e.logger.Warn("proactive matching skipped, item fetch failed", map[string]interface{}{
			"itemId": itemID,
			"error":  err.Error(),
		})
		return 0
	}
	if !source.Visible() {
		return 0
	}
	if _, ok := source.OppositeKind(); !ok {
		return 0
	}
	metrics.MatchRequests.WithLabelValues("on-create", string(source.Kind)).Inc()

	windowDays := e.cfg.Retrieval.DefaultWindowDays
	candidates, err := e.retrieve(ctx, source, windowDays, e.overFetch(e.cfg.Retrieval.DefaultLimit))
	if err != nil {
		e.logger.Warn("proactive matching skipped, retrieval failed", map[string]interface{}{
			"itemId": itemID,
			"error":  err.Error(),
		})
		return 0
	}
	if len(candidates) == 0 {
		return 0
	}
	metrics.MatchCandidatesScored.WithLabelValues("on-create").Observe(float64(len(candidates)))

	// The creation path scores one pair at a time with the lexical
	// blend; the TF-IDF corpus would be dominated by the single new
	// item anyway.
	textScores := make([]float64, len(candidates))
	for i, c := range candidates {
		textScores[i] = e.lexical.Score(source.Text(), c.Text())
	}
	scored := e.scoreAll(source, candidates, textScores, windowDays)
	sortByScore(scored)

	notified := 0
	for _, sc := range scored {
		if sc.Score <= e.cfg.Thresholds.NotifyThreshold {
			break
		}
		n := notify.NewNotification(source, sc.Item, sc.Score)
		if err := e.notifier.NotifyMatch(ctx, n); err != nil {
			e.logger.Warn("match notification dispatch failed", map[string]interface{}{
				"notificationId": n.ID,
				"error":          err.Error(),
			})
			continue
		}
		notified++
	}
	return notified
}

// retrieve pulls the candidate pool, through the searcher when one is
// wired and healthy.
func (e *Engine) retrieve(ctx context.Context, source *models.Item, windowDays, fetchLimit int) ([]*models.Item, error) {
	opposite, ok := source.OppositeKind()
	if !ok {
		return nil, nil
	}

	filter := store.CandidateFilter{
		Kind:       opposite,
		ExcludeID:  source.ID,
		CategoryID: source.CategoryID,
		Location:   source.Location,
		OccurredAt: source.OccurredAt,
		WindowDays: windowDays,
		Limit:      fetchLimit,
	}

	if e.searcher != nil {
		items, err := e.searcher.SearchCandidates(ctx, source.Text(), filter)
		if err == nil {
			return items, nil
		}
		e.logger.Warn("search retrieval failed, falling back to database", map[string]interface{}{
			"itemId": source.ID,
			"error":  err.Error(),
		})
	}

	return e.store.FindCandidates(ctx, filter)
}

// textScores runs the batch scorer and falls back to per-pair lexical
// scoring when it cannot produce a usable result.
func (e *Engine) textScores(source *models.Item, candidates []*models.Item, lexicalOnly bool) []float64 {
	if !lexicalOnly {
		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = c.Text()
		}
		scores, err := e.tfidf.ScoreBatch(source.Text(), texts)
		if err == nil {
			return scores
		}
		metrics.TextScoreFallbacks.Inc()
		vecErr := apperrors.NewVectorizationFailedError(err)
		e.logger.Debug("batch text scoring failed, using lexical fallback", map[string]interface{}{
			"itemId":    source.ID,
			"errorCode": string(vecErr.Code),
			"error":     vecErr.Error(),
		})
	}

	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = e.lexical.Score(source.Text(), c.Text())
	}
	return scores
}

// scoreAll combines the four signals for every candidate. Candidates
// are independent, so the field scoring fans out and re-joins in
// retrieval order.
func (e *Engine) scoreAll(source *models.Item, candidates []*models.Item, textScores []float64, windowDays int) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, len(candidates))

	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := candidates[i]
			b := e.breakdown(source, c, textScores[i], windowDays)
			scored[i] = models.ScoredCandidate{Item: c, Score: b.Final}
		}(i)
	}
	wg.Wait()

	return scored
}

// breakdown computes the weighted composite for one pair.
func (e *Engine) breakdown(source, candidate *models.Item, textScore float64, windowDays int) models.ScoreBreakdown {
	lostAt, foundAt := source.OccurredAt, candidate.OccurredAt
	if source.Kind == models.KindFound {
		lostAt, foundAt = candidate.OccurredAt, source.OccurredAt
	}

	b := models.ScoreBreakdown{
		Text:     textScore * 100,
		Category: fieldscore.Category(source.CategoryID, candidate.CategoryID),
		Location: fieldscore.Location(source.Location, candidate.Location),
		Time:     fieldscore.Time(lostAt, foundAt, windowDays),
	}

	w := e.cfg.Weights
	final := b.Text*w.Text + b.Category*w.Category + b.Location*w.Location + b.Time*w.Time
	b.Final = math.Round(final*100) / 100
	return b
}

// sortByScore orders by score descending; equal scores put the newer
// item first.
func sortByScore(scored []models.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.CreatedAt.After(scored[j].Item.CreatedAt)
	})
}

func (e *Engine) overFetch(limit int) int {
	mult := e.cfg.Retrieval.OverFetchMultiplier
	if mult < 1 {
		mult = 1
	}
	if e.cfg.Retrieval.MaxOverFetch > 0 && mult > e.cfg.Retrieval.MaxOverFetch {
		mult = e.cfg.Retrieval.MaxOverFetch
	}
	return limit * mult
}

func clamp(v, min, max, def int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
