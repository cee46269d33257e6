package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "media_workers"

	// DefaultBatchSize is the max jobs read per iteration. Rendering
	// is slow, so batches stay small to keep redeliveries cheap.
	DefaultBatchSize = 4

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimInterval is how often to scan pending messages.
	DefaultClaimInterval = 30 * time.Second

	// DefaultClaimIdle is the idle time before reclaiming pending
	// messages. Must exceed the render client timeout.
	DefaultClaimIdle = 3 * time.Minute
)

// Repository defines the persistence surface the worker needs.
type Repository interface {
	GetAsset(ctx context.Context, id string) (*model.Asset, error)
	ListAssets(ctx context.Context, campaignID string) ([]*model.Asset, error)
	MarkAssetReady(ctx context.Context, id, url string) error
	MarkAssetFailed(ctx context.Context, id, errMsg string) error
}

// Worker renders generation jobs from the Redis stream.
type Worker struct {
	redis         *redis.Client
	repo          Repository
	renderer      Renderer
	logger        *slog.Logger
	metrics       metrics.Recorder
	consumerID    string
	batchSize     int
	blockTimeout  time.Duration
	maxAttempts   int
	claimInterval time.Duration
	claimIdle     time.Duration
	claimStartID  string
	lastClaim     time.Time

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a new media worker.
func NewWorker(client *redis.Client, repo Repository, renderer Renderer, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:         client,
		repo:          repo,
		renderer:      renderer,
		logger:        logger.With("component", "media.worker", "consumer_id", consumerID),
		metrics:       recorder,
		consumerID:    consumerID,
		batchSize:     DefaultBatchSize,
		blockTimeout:  DefaultBlockTimeout,
		maxAttempts:   DefaultMaxAttempts,
		claimInterval: DefaultClaimInterval,
		claimIdle:     DefaultClaimIdle,
		claimStartID:  "0-0",
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("media worker started")

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()

		if draining {
			w.logger.Info("media worker draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("media worker stopping")
			return ctx.Err()
		default:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Shutdown gracefully stops the worker, completing any in-flight job.
// It implements server.ShutdownFunc for integration with graceful shutdown.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	w.logger.Info("media worker shutdown initiated")

	if cancel != nil {
		cancel()
	}

	if done != nil {
		select {
		case <-done:
			w.logger.Info("media worker shutdown complete")
			return nil
		case <-ctx.Done():
			w.logger.Warn("media worker shutdown timed out")
			return ctx.Err()
		}
	}
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist.
func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// processOnce reads and processes a single batch of jobs.
func (w *Worker) processOnce(ctx context.Context) error {
	claimed, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", "error", err)
	}

	messages := claimed
	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}

	if len(messages) == 0 {
		return nil
	}

	var ackIDs []string
	for _, msg := range messages {
		job, err := parseJob(msg)
		if err != nil {
			w.deadLetterMessage(ctx, msg, "invalid_job", err.Error())
			ackIDs = append(ackIDs, msg.ID)
			continue
		}

		if err := w.processJob(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			// Leave un-ACKed so the job is redelivered.
			w.logger.Error("job processing failed",
				"asset_id", job.AssetID,
				"error", err,
			)
			continue
		}

		ackIDs = append(ackIDs, msg.ID)
	}

	return w.ackMessages(ctx, ackIDs)
}

// processJob renders one asset with retries, then records the outcome.
// Returns an error only when the outcome could not be persisted.
func (w *Worker) processJob(ctx context.Context, job *GenerationJob) error {
	asset, err := w.repo.GetAsset(ctx, job.AssetID)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}

	// Redelivered job for an asset that already completed.
	if asset.Status != model.AssetPending {
		return nil
	}

	sourceURLs, err := w.sourceURLs(ctx, job.CampaignID)
	if err != nil {
		return fmt.Errorf("load source assets: %w", err)
	}

	start := time.Now()
	url, renderErr := w.renderWithRetry(ctx, RenderRequest{
		CampaignID: job.CampaignID,
		Kind:       job.Kind,
		Prompt:     job.Prompt,
		SourceURLs: sourceURLs,
	})

	if renderErr != nil {
		if errors.Is(renderErr, context.Canceled) {
			return renderErr
		}
		if err := w.repo.MarkAssetFailed(ctx, job.AssetID, renderErr.Error()); err != nil {
			return fmt.Errorf("mark asset failed: %w", err)
		}
		w.metrics.IncMediaJobProcessed("failed")
		w.logger.Warn("asset generation failed",
			"asset_id", job.AssetID,
			"kind", job.Kind,
			"error", renderErr,
		)
		return nil
	}

	if err := w.repo.MarkAssetReady(ctx, job.AssetID, url); err != nil {
		return fmt.Errorf("mark asset ready: %w", err)
	}

	w.metrics.IncMediaJobProcessed("success")
	w.metrics.ObserveMediaRenderDuration(time.Since(start))
	w.logger.Info("asset generated",
		"asset_id", job.AssetID,
		"kind", job.Kind,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// renderWithRetry calls the renderer with backoff. Client errors from
// the image service are terminal and not retried.
func (w *Worker) renderWithRetry(ctx context.Context, req RenderRequest) (string, error) {
	var lastErr error

	for attempt := 0; attempt < w.maxAttempts; attempt++ {
		url, err := w.renderer.Render(ctx, req)
		if err == nil {
			return url, nil
		}
		lastErr = err

		if errors.Is(err, ErrGenerationRejected) || errors.Is(err, context.Canceled) {
			return "", err
		}

		if IsExhausted(attempt+1, w.maxAttempts) {
			break
		}

		backoff := NextRetryDelay(attempt)
		w.logger.Warn("render failed, retrying",
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	return "", lastErr
}

// sourceURLs collects the ready source asset URLs for a campaign.
func (w *Worker) sourceURLs(ctx context.Context, campaignID string) ([]string, error) {
	assets, err := w.repo.ListAssets(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, a := range assets {
		if a.Kind.IsSource() && a.Status == model.AssetReady && a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls, nil
}

// maybeClaimPending checks for stuck pending messages and reclaims them.
func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if w.claimInterval <= 0 || w.claimIdle <= 0 {
		return nil, nil
	}
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}

	w.lastClaim = time.Now()
	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

// readBatch reads messages from the stream using XREADGROUP.
func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()

	if err == redis.Nil || len(streams) == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	return streams[0].Messages, nil
}

// parseJob decodes and validates a stream message.
func parseJob(msg redis.XMessage) (*GenerationJob, error) {
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, errors.New("payload field missing or not a string")
	}

	var job GenerationJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	if err := ValidateJob(job); err != nil {
		return nil, err
	}

	return &job, nil
}

// deadLetterMessage moves a poison message to the dead-letter queue.
func (w *Worker) deadLetterMessage(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering poison message",
		"message_id", msg.ID,
		"reason", reason,
		"detail", detail,
	)

	_, err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 1000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"original_stream":  StreamKey,
			"reason":           reason,
			"detail":           detail,
			"payload":          msg.Values["payload"],
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Result()

	if err != nil {
		w.logger.Error("failed to write to dead-letter queue",
			"message_id", msg.ID,
			"error", err,
		)
	}

	w.metrics.IncMediaJobProcessed("dead_lettered")
}

// ackMessages acknowledges processed messages.
func (w *Worker) ackMessages(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	_, err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, messageIDs...).Result()
	if err != nil {
		return fmt.Errorf("xack: %w", err)
	}

	return nil
}

// isConsumerGroupExistsError checks if the error is "BUSYGROUP" (group exists).
func isConsumerGroupExistsError(err error) bool {
	return err != nil && (err.Error() == "BUSYGROUP Consumer Group name already exists" ||
		err.Error() == "BUSYGROUP")
}
