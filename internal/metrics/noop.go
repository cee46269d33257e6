package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncChatMessage is a no-op.
func (n *NoopRecorder) IncChatMessage() {}

// ObserveChatDuration is a no-op.
func (n *NoopRecorder) ObserveChatDuration(duration time.Duration) {}

// ObserveAgentIterations is a no-op.
func (n *NoopRecorder) ObserveAgentIterations(iterations int) {}

// IncToolCall is a no-op.
func (n *NoopRecorder) IncToolCall(name, status string) {}

// IncCampaignCreated is a no-op.
func (n *NoopRecorder) IncCampaignCreated() {}

// IncCampaignUpdated is a no-op.
func (n *NoopRecorder) IncCampaignUpdated() {}

// IncCampaignDeleted is a no-op.
func (n *NoopRecorder) IncCampaignDeleted() {}

// IncAuthAttempt is a no-op.
func (n *NoopRecorder) IncAuthAttempt(status string) {}

// IncMediaJobQueued is a no-op.
func (n *NoopRecorder) IncMediaJobQueued(status string) {}

// IncMediaJobProcessed is a no-op.
func (n *NoopRecorder) IncMediaJobProcessed(status string) {}

// ObserveMediaRenderDuration is a no-op.
func (n *NoopRecorder) ObserveMediaRenderDuration(duration time.Duration) {}
