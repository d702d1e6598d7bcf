// internal/workers/matching/match-on-create/handler.go

// The match-on-create worker runs the proactive matching hook right
// after a new item is persisted. It never fails the surrounding
// workflow: a bad input or a scoring problem completes the job with
// zero notifications, because item creation must not depend on
// matching.
package matchoncreate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/common/metrics"
)

const TaskType = "match-on-create"

// Matcher is the proactive slice of the engine.
type Matcher interface {
	MatchOnCreate(ctx context.Context, itemID int64) int
}

type Handler struct {
	config *Config
	engine Matcher
	logger logger.Logger
}

func NewHandler(config *Config, eng Matcher, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		engine: eng,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(started).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.logger.Warn("unparseable input, completing without matching", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.completeJob(ctx, client, job, &Output{CheckedAt: time.Now().UTC().Format(time.RFC3339)})
		return
	}

	output := h.Execute(ctx, &input)
	h.completeJob(ctx, client, job, output)
}

// Execute triggers proactive matching. The engine swallows its own
// failures, so this always produces an output.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	notified := 0
	if input.ItemID > 0 {
		notified = h.engine.MatchOnCreate(ctx, input.ItemID)
	}

	h.logger.Info("proactive matching finished", map[string]interface{}{
		"itemId":        input.ItemID,
		"notifications": notified,
	})

	return &Output{
		ItemID:        input.ItemID,
		Notifications: notified,
		CheckedAt:     time.Now().UTC().Format(time.RFC3339),
	}
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
