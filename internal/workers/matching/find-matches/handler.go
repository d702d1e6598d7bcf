// internal/workers/matching/find-matches/handler.go
package findmatches

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"

	apperrors "lostfound-matching/internal/common/errors"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/common/metrics"
	"lostfound-matching/internal/matching/engine"
	"lostfound-matching/internal/models"
)

const TaskType = "find-matches"

// Ranker is the slice of the engine this worker needs.
type Ranker interface {
	Rank(ctx context.Context, req engine.RankRequest) ([]models.ScoredCandidate, error)
}

type Handler struct {
	config       *Config
	engine       Ranker
	redis        *redis.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, eng Ranker, rdb *redis.Client, log logger.Logger) *Handler {
	taskLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       eng,
		redis:        rdb,
		logger:       taskLog,
		errorHandler: apperrors.NewErrorHandler(taskLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.ErrCodeInvalidMatchRequest)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		code := "INTERNAL_ERROR"
		if stdErr, ok := err.(*apperrors.StandardError); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// parseInput unmarshals and schema-validates the job variables.
func parseInput(variables string) (*Input, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("parse variables: %v", err))
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(inputSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		descs := make([]string, len(result.Errors()))
		for i, d := range result.Errors() {
			descs[i] = d.String()
		}
		return nil, apperrors.NewInvalidMatchRequestError(strings.Join(descs, "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute runs one lookup. Results for plain requests are served from
// a short-lived Redis cache keyed by item, limit and window; requests
// with a custom cutoff or scorer selection bypass it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cacheable := input.MinScore == nil && input.UseTextSimilarity == nil
	cacheKey := fmt.Sprintf("match:%d:%d:%d", input.ItemID, input.Limit, input.TimeWindowDays)

	if cacheable && h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var matches []Match
			if err := json.Unmarshal([]byte(val), &matches); err == nil {
				return &Output{
					ItemID:  input.ItemID,
					Matches: matches,
					Count:   len(matches),
					Cached:  true,
				}, nil
			}
		}
	}

	req := engine.RankRequest{
		ItemID:     input.ItemID,
		Limit:      input.Limit,
		WindowDays: input.TimeWindowDays,
		MinScore:   input.MinScore,
	}
	if input.UseTextSimilarity != nil && !*input.UseTextSimilarity {
		req.LexicalOnly = true
	}

	scored, err := h.engine.Rank(ctx, req)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(scored))
	for i, sc := range scored {
		matches[i] = Match{
			ItemID:     sc.Item.ID,
			Title:      sc.Item.Title,
			Kind:       string(sc.Item.Kind),
			Score:      math.Round(sc.Score*100) / 100,
			Location:   sc.Item.Location,
			OccurredAt: sc.Item.OccurredAt,
		}
	}

	if cacheable && h.redis != nil {
		if data, err := json.Marshal(matches); err == nil {
			h.redis.Set(ctx, cacheKey, data, h.config.ResultCacheTTL)
		}
	}

	return &Output{
		ItemID:  input.ItemID,
		Matches: matches,
		Count:   len(matches),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
