// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Chat metrics
	IncChatMessage()
	ObserveChatDuration(duration time.Duration)
	ObserveAgentIterations(iterations int)
	IncToolCall(name, status string) // status: "success" or "error"

	// Campaign management metrics
	IncCampaignCreated()
	IncCampaignUpdated()
	IncCampaignDeleted()

	// Auth metrics
	IncAuthAttempt(status string) // status: "success", "failed", "rate_limited"

	// Media pipeline metrics
	IncMediaJobQueued(status string)    // status: "success" or "failed"
	IncMediaJobProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveMediaRenderDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
