// Package media provides asynchronous creative generation: jobs are
// queued on a Redis stream and a worker renders them through the
// image service.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
)

const (
	// StreamKey is the Redis stream for generation jobs.
	StreamKey = "stream:media_jobs"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:media_jobs:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 10000
)

// GenerationJob is the stream payload for one asset to render.
type GenerationJob struct {
	AssetID    string `json:"aid"`
	CampaignID string `json:"cid"`
	Kind       string `json:"k"`
	Prompt     string `json:"p,omitempty"`
	QueuedAt   int64  `json:"t"` // Unix milliseconds
}

// ValidateJob checks a decoded job for the fields the worker needs.
func ValidateJob(job GenerationJob) error {
	if job.AssetID == "" {
		return errors.New("asset id missing")
	}
	if job.CampaignID == "" {
		return errors.New("campaign id missing")
	}
	if !model.AssetKind(job.Kind).IsGenerated() {
		return fmt.Errorf("unknown generation kind %q", job.Kind)
	}
	return nil
}

// Publisher enqueues generation jobs to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new generation job publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "media.publisher"),
		metrics: recorder,
	}
}

// Publish adds a generation job to the stream. Enqueueing is
// synchronous: the asset row is already pending, so the caller must
// know whether the job actually made it onto the queue.
func (p *Publisher) Publish(ctx context.Context, job GenerationJob) (string, error) {
	if job.QueuedAt == 0 {
		job.QueuedAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		p.metrics.IncMediaJobQueued("failed")
		return "", fmt.Errorf("xadd: %w", err)
	}

	p.logger.Debug("generation job queued",
		"asset_id", job.AssetID,
		"kind", job.Kind,
		"stream_id", result,
	)
	p.metrics.IncMediaJobQueued("success")

	return result, nil
}
