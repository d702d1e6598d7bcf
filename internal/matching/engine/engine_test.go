package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound-matching/internal/common/config"
	apperrors "lostfound-matching/internal/common/errors"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/matching/store"
	"lostfound-matching/internal/models"
)

// fakeStore serves items from memory. FindCandidates applies only the
// kind, exclusion, claimed and visibility rules; optional filters are
// left to the scoring stage, which the tests exercise directly.
type fakeStore struct {
	items       map[int64]*models.Item
	findErr     error
	lastFilter  store.CandidateFilter
	findQueries int
}

func (f *fakeStore) GetItem(_ context.Context, id int64) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperrors.NewItemNotFoundError("missing")
	}
	return item, nil
}

func (f *fakeStore) FindCandidates(_ context.Context, filter store.CandidateFilter) ([]*models.Item, error) {
	f.findQueries++
	f.lastFilter = filter
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*models.Item
	for _, item := range f.items {
		if item.Kind != filter.Kind || item.ID == filter.ExcludeID || !item.Visible() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type fakeSearcher struct {
	items []*models.Item
	err   error
	calls int
}

func (f *fakeSearcher) SearchCandidates(_ context.Context, _ string, _ store.CandidateFilter) ([]*models.Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type capturingNotifier struct {
	sent []*models.MatchNotification
	err  error
}

func (c *capturingNotifier) NotifyMatch(_ context.Context, n *models.MatchNotification) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, n)
	return nil
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		Weights:    config.ScoreWeights{Text: 0.50, Category: 0.20, Location: 0.15, Time: 0.15},
		Lexical:    config.LexicalWeights{Cosine: 0.7, Jaccard: 0.3},
		Thresholds: config.ScoreThresholds{MinScore: 10, NotifyThreshold: 30},
		Retrieval: config.RetrievalConfig{
			OverFetchMultiplier: 3,
			MaxOverFetch:        10,
			DefaultLimit:        10,
			MaxLimit:            50,
			DefaultWindowDays:   7,
			MaxWindowDays:       30,
		},
		TFIDF: config.TFIDFConfig{VocabularyCap: 500},
		Cache: config.CacheConfig{ItemTTL: 300, ResultTTL: 60},
	}
}

var day0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func lostPhone() *models.Item {
	cat := int64(1)
	loc := "Library"
	occurred := day0
	return &models.Item{
		ID:         1,
		AuthorID:   100,
		Title:      "Lost black iPhone",
		Body:       "black iphone 13 pro with cracked screen in a blue case",
		Kind:       models.KindLost,
		CategoryID: &cat,
		Location:   &loc,
		OccurredAt: &occurred,
		Status:     models.StatusPublished,
		CreatedAt:  day0,
	}
}

func foundPhone() *models.Item {
	cat := int64(1)
	loc := "Library"
	occurred := day0
	return &models.Item{
		ID:         2,
		AuthorID:   200,
		Title:      "Found black iPhone",
		Body:       "black iphone 13 pro with cracked screen in a blue case",
		Kind:       models.KindFound,
		CategoryID: &cat,
		Location:   &loc,
		OccurredAt: &occurred,
		Status:     models.StatusPublished,
		CreatedAt:  day0.Add(time.Hour),
	}
}

func foundBicycle() *models.Item {
	cat := int64(9)
	loc := "Stadium"
	occurred := day0.Add(20 * 24 * time.Hour)
	return &models.Item{
		ID:         3,
		AuthorID:   300,
		Title:      "Found red bicycle",
		Body:       "red mountain bike left at the east gate",
		Kind:       models.KindFound,
		CategoryID: &cat,
		Location:   &loc,
		OccurredAt: &occurred,
		Status:     models.StatusActive,
		CreatedAt:  day0.Add(2 * time.Hour),
	}
}

func newTestEngine(st *fakeStore) *Engine {
	return New(testMatchingConfig(), st, nil, nil, logger.NewNoOpLogger())
}

func TestRank_CloseMatchOutranksUnrelated(t *testing.T) {
	st := &fakeStore{items: map[int64]*models.Item{
		1: lostPhone(), 2: foundPhone(), 3: foundBicycle(),
	}}
	e := newTestEngine(st)

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, result, 1)

	// The matching found report clears 80 on all four signals; the
	// unrelated bicycle scores below the listing cutoff and drops out.
	assert.Equal(t, int64(2), result[0].Item.ID)
	assert.Greater(t, result[0].Score, 80.0)
	assert.LessOrEqual(t, result[0].Score, 100.0)
}

func TestRank_SourceValidation(t *testing.T) {
	t.Run("unknown item is not found", func(t *testing.T) {
		e := newTestEngine(&fakeStore{items: map[int64]*models.Item{}})

		_, err := e.Rank(context.Background(), RankRequest{ItemID: 404})
		require.Error(t, err)
		stdErr, ok := err.(*apperrors.StandardError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeItemNotFound, stdErr.Code)
	})

	t.Run("draft item is not visible", func(t *testing.T) {
		item := lostPhone()
		item.Status = models.StatusDraft
		e := newTestEngine(&fakeStore{items: map[int64]*models.Item{1: item}})

		_, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
		require.Error(t, err)
		stdErr, ok := err.(*apperrors.StandardError)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeItemNotVisible, stdErr.Code)
	})

	t.Run("claimed item is not visible", func(t *testing.T) {
		item := lostPhone()
		item.Claimed = true
		e := newTestEngine(&fakeStore{items: map[int64]*models.Item{1: item}})

		_, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
		require.Error(t, err)
	})
}

func TestRank_GeneralKindYieldsEmpty(t *testing.T) {
	item := lostPhone()
	item.Kind = models.KindGeneral
	st := &fakeStore{items: map[int64]*models.Item{1: item, 2: foundPhone()}}
	e := newTestEngine(st)

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.Zero(t, st.findQueries, "general items must not hit the candidate query")
}

func TestRank_KindPairingAndExclusions(t *testing.T) {
	claimed := foundPhone()
	claimed.ID = 4
	claimed.Claimed = true

	otherLost := lostPhone()
	otherLost.ID = 5
	otherLost.Title = "Lost black iPhone too"

	st := &fakeStore{items: map[int64]*models.Item{
		1: lostPhone(), 2: foundPhone(), 4: claimed, 5: otherLost,
	}}
	e := newTestEngine(st)

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)

	for _, sc := range result {
		assert.NotEqual(t, int64(1), sc.Item.ID, "source must never match itself")
		assert.Equal(t, models.KindFound, sc.Item.Kind)
		assert.False(t, sc.Item.Claimed)
	}
}

func TestRank_MinScoreCutoffIsMonotonic(t *testing.T) {
	st := &fakeStore{items: map[int64]*models.Item{
		1: lostPhone(), 2: foundPhone(), 3: foundBicycle(),
	}}
	e := newTestEngine(st)

	low, high := 5.0, 90.0
	resultLow, err := e.Rank(context.Background(), RankRequest{ItemID: 1, MinScore: &low})
	require.NoError(t, err)
	resultHigh, err := e.Rank(context.Background(), RankRequest{ItemID: 1, MinScore: &high})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(resultLow), len(resultHigh))
}

func TestRank_TieBreakPrefersNewer(t *testing.T) {
	older := foundPhone()
	newer := foundPhone()
	newer.ID = 6
	newer.AuthorID = 201
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)

	st := &fakeStore{items: map[int64]*models.Item{
		1: lostPhone(), 2: older, 6: newer,
	}}
	e := newTestEngine(st)

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, result[0].Score, result[1].Score)
	assert.Equal(t, int64(6), result[0].Item.ID)
	assert.Equal(t, int64(2), result[1].Item.ID)
}

func TestRank_LimitTruncates(t *testing.T) {
	items := map[int64]*models.Item{1: lostPhone()}
	for i := int64(2); i <= 9; i++ {
		c := foundPhone()
		c.ID = i
		c.CreatedAt = day0.Add(time.Duration(i) * time.Minute)
		items[i] = c
	}
	st := &fakeStore{items: items}
	e := newTestEngine(st)

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, result, 3)
	// over-fetch gives the scorer the full pool before truncation
	assert.Equal(t, 9, st.lastFilter.Limit)
}

func TestRank_DegenerateTextFallsBackWithoutError(t *testing.T) {
	source := lostPhone()
	source.Title = "..."
	source.Body = ""
	candidate := foundPhone()
	candidate.Title = "!!!"
	candidate.Body = ""

	st := &fakeStore{items: map[int64]*models.Item{1: source, 2: candidate}}
	e := newTestEngine(st)

	// Text signal is zero on both paths; category, location and time
	// still carry the pair over the cutoff.
	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.InDelta(t, 50.0, result[0].Score, 0.01)
}

// debugRecorder captures Debug fields so tests can check what the
// scoring fallback reports.
type debugRecorder struct {
	logger.Logger
	debugs []map[string]interface{}
}

func (d *debugRecorder) Debug(_ string, fields map[string]interface{}) {
	d.debugs = append(d.debugs, fields)
}

func TestRank_DegenerateTextReportsVectorizationFailure(t *testing.T) {
	source := lostPhone()
	source.Title = "..."
	source.Body = ""
	candidate := foundPhone()

	st := &fakeStore{items: map[int64]*models.Item{1: source, 2: candidate}}
	rec := &debugRecorder{Logger: logger.NewNoOpLogger()}
	e := New(testMatchingConfig(), st, nil, nil, rec)

	_, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	require.NotEmpty(t, rec.debugs)
	assert.Equal(t, "VECTORIZATION_FAILED", rec.debugs[len(rec.debugs)-1]["errorCode"])
}

func TestRank_RetrievalErrorIsFatal(t *testing.T) {
	st := &fakeStore{
		items:   map[int64]*models.Item{1: lostPhone()},
		findErr: apperrors.NewRetrievalFailedError(assert.AnError),
	}
	e := newTestEngine(st)

	_, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.Error(t, err)
}

func TestRank_SearcherFallsBackToStore(t *testing.T) {
	st := &fakeStore{items: map[int64]*models.Item{1: lostPhone(), 2: foundPhone()}}
	searcher := &fakeSearcher{err: apperrors.NewSearchQueryFailedError(assert.AnError)}
	e := New(testMatchingConfig(), st, searcher, nil, logger.NewNoOpLogger())

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, 1, st.findQueries)
}

func TestRank_SearcherServesCandidates(t *testing.T) {
	st := &fakeStore{items: map[int64]*models.Item{1: lostPhone()}}
	searcher := &fakeSearcher{items: []*models.Item{foundPhone()}}
	e := New(testMatchingConfig(), st, searcher, nil, logger.NewNoOpLogger())

	result, err := e.Rank(context.Background(), RankRequest{ItemID: 1})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Zero(t, st.findQueries)
}

func TestMatchOnCreate(t *testing.T) {
	t.Run("notifies authors of strong matches only", func(t *testing.T) {
		st := &fakeStore{items: map[int64]*models.Item{
			1: lostPhone(), 2: foundPhone(), 3: foundBicycle(),
		}}
		notifier := &capturingNotifier{}
		e := New(testMatchingConfig(), st, nil, notifier, logger.NewNoOpLogger())

		notified := e.MatchOnCreate(context.Background(), 1)

		assert.Equal(t, 1, notified)
		require.Len(t, notifier.sent, 1)
		n := notifier.sent[0]
		assert.Equal(t, int64(200), n.RecipientUserID)
		assert.Equal(t, int64(1), n.SourceItemID)
		assert.Equal(t, int64(2), n.CandidateItemID)
		assert.Greater(t, n.Score, 30.0)
		assert.NotEmpty(t, n.Summary)
	})

	t.Run("general item emits nothing", func(t *testing.T) {
		item := lostPhone()
		item.Kind = models.KindGeneral
		st := &fakeStore{items: map[int64]*models.Item{1: item, 2: foundPhone()}}
		notifier := &capturingNotifier{}
		e := New(testMatchingConfig(), st, nil, notifier, logger.NewNoOpLogger())

		assert.Zero(t, e.MatchOnCreate(context.Background(), 1))
		assert.Empty(t, notifier.sent)
	})

	t.Run("missing item is swallowed", func(t *testing.T) {
		e := New(testMatchingConfig(), &fakeStore{items: map[int64]*models.Item{}}, nil,
			&capturingNotifier{}, logger.NewNoOpLogger())
		assert.Zero(t, e.MatchOnCreate(context.Background(), 404))
	})

	t.Run("retrieval failure is swallowed", func(t *testing.T) {
		st := &fakeStore{
			items:   map[int64]*models.Item{1: lostPhone()},
			findErr: apperrors.NewRetrievalFailedError(assert.AnError),
		}
		e := New(testMatchingConfig(), st, nil, &capturingNotifier{}, logger.NewNoOpLogger())
		assert.Zero(t, e.MatchOnCreate(context.Background(), 1))
	})

	t.Run("notifier failure is swallowed", func(t *testing.T) {
		st := &fakeStore{items: map[int64]*models.Item{1: lostPhone(), 2: foundPhone()}}
		notifier := &capturingNotifier{err: assert.AnError}
		e := New(testMatchingConfig(), st, nil, notifier, logger.NewNoOpLogger())

		assert.Zero(t, e.MatchOnCreate(context.Background(), 1))
	})
}
