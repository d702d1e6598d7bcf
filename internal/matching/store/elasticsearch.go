// internal/matching/store/elasticsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "lostfound-matching/internal/common/errors"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/models"
)

// SearchStore pre-filters candidates through an Elasticsearch index.
// It is an optional accelerator: callers fall back to the Postgres
// ItemStore when a search fails.
type SearchStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchStore(client *elasticsearch.Client, index string, log logger.Logger) *SearchStore {
	return &SearchStore{
		client: client,
		index:  index,
		logger: log,
	}
}

// SearchCandidates runs a relevance query over title and body plus the
// structural filter, so an over-fetched pool is already roughly sorted
// by text affinity before the scoring pipeline sees it.
func (s *SearchStore) SearchCandidates(ctx context.Context, queryText string, f CandidateFilter) ([]*models.Item, error) {
	must := []map[string]interface{}{}
	if queryText != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  queryText,
				"fields": []string{"title^2", "body"},
			},
		})
	}

	filter := []map[string]interface{}{
		{"terms": map[string]interface{}{"status": []string{"published", "active"}}},
		{"term": map[string]interface{}{"kind": string(f.Kind)}},
		{"term": map[string]interface{}{"is_claimed": false}},
	}
	if f.CategoryID != nil {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category_id": *f.CategoryID},
		})
	}
	if f.OccurredAt != nil && f.WindowDays > 0 {
		window := time.Duration(f.WindowDays) * 24 * time.Hour
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"occurred_at": map[string]interface{}{
					"gte": f.OccurredAt.Add(-window).Format(time.RFC3339),
					"lte": f.OccurredAt.Add(window).Format(time.RFC3339),
				},
			},
		})
	}
	if f.Location != nil && *f.Location != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"location": *f.Location},
		})
	}

	query := map[string]interface{}{
		"size": f.Limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":     must,
				"filter":   filter,
				"must_not": []map[string]interface{}{{"term": map[string]interface{}{"id": f.ExcludeID}}},
			},
		},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, apperrors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(fmt.Errorf("search returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.Item `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(err)
	}

	items := make([]*models.Item, 0, len(parsed.Hits.Hits))
	for i := range parsed.Hits.Hits {
		item := parsed.Hits.Hits[i].Source
		items = append(items, &item)
	}
	return items, nil
}
