package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ChatMessages        uint64
	ChatDurationCount   uint64
	ChatDurationTotalNs int64
	AgentIterations     uint64
	ToolCalls           map[string]uint64 // key: "name/status"

	CampaignsCreated uint64
	CampaignsUpdated uint64
	CampaignsDeleted uint64

	AuthAttempts map[string]uint64 // key: status

	MediaJobsQueued    map[string]uint64 // key: status
	MediaJobsProcessed map[string]uint64 // key: status
	MediaRenderCount   uint64
	MediaRenderTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	chatMessages        uint64
	chatDurationCount   uint64
	chatDurationTotalNs int64
	agentIterations     uint64

	campaignsCreated uint64
	campaignsUpdated uint64
	campaignsDeleted uint64

	mediaRenderCount   uint64
	mediaRenderTotalNs int64

	mu                 sync.Mutex
	toolCalls          map[string]uint64
	authAttempts       map[string]uint64
	mediaJobsQueued    map[string]uint64
	mediaJobsProcessed map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		toolCalls:          make(map[string]uint64),
		authAttempts:       make(map[string]uint64),
		mediaJobsQueued:    make(map[string]uint64),
		mediaJobsProcessed: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		ChatMessages:        atomic.LoadUint64(&m.chatMessages),
		ChatDurationCount:   atomic.LoadUint64(&m.chatDurationCount),
		ChatDurationTotalNs: atomic.LoadInt64(&m.chatDurationTotalNs),
		AgentIterations:     atomic.LoadUint64(&m.agentIterations),
		ToolCalls:           copyMap(m.toolCalls),
		CampaignsCreated:    atomic.LoadUint64(&m.campaignsCreated),
		CampaignsUpdated:    atomic.LoadUint64(&m.campaignsUpdated),
		CampaignsDeleted:    atomic.LoadUint64(&m.campaignsDeleted),
		AuthAttempts:        copyMap(m.authAttempts),
		MediaJobsQueued:     copyMap(m.mediaJobsQueued),
		MediaJobsProcessed:  copyMap(m.mediaJobsProcessed),
		MediaRenderCount:    atomic.LoadUint64(&m.mediaRenderCount),
		MediaRenderTotalNs:  atomic.LoadInt64(&m.mediaRenderTotalNs),
	}
}

// IncChatMessage increments the chat message counter.
func (m *InMemoryRecorder) IncChatMessage() {
	atomic.AddUint64(&m.chatMessages, 1)
}

// ObserveChatDuration records a chat turn duration.
func (m *InMemoryRecorder) ObserveChatDuration(duration time.Duration) {
	atomic.AddUint64(&m.chatDurationCount, 1)
	atomic.AddInt64(&m.chatDurationTotalNs, duration.Nanoseconds())
}

// ObserveAgentIterations records the model round trips of one turn.
func (m *InMemoryRecorder) ObserveAgentIterations(iterations int) {
	atomic.AddUint64(&m.agentIterations, uint64(iterations))
}

// IncToolCall increments a tool call counter.
func (m *InMemoryRecorder) IncToolCall(name, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls[name+"/"+status]++
}

// IncCampaignCreated increments the campaign created counter.
func (m *InMemoryRecorder) IncCampaignCreated() {
	atomic.AddUint64(&m.campaignsCreated, 1)
}

// IncCampaignUpdated increments the campaign updated counter.
func (m *InMemoryRecorder) IncCampaignUpdated() {
	atomic.AddUint64(&m.campaignsUpdated, 1)
}

// IncCampaignDeleted increments the campaign deleted counter.
func (m *InMemoryRecorder) IncCampaignDeleted() {
	atomic.AddUint64(&m.campaignsDeleted, 1)
}

// IncAuthAttempt increments an auth attempt counter.
func (m *InMemoryRecorder) IncAuthAttempt(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authAttempts[status]++
}

// IncMediaJobQueued increments a media queue counter.
func (m *InMemoryRecorder) IncMediaJobQueued(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaJobsQueued[status]++
}

// IncMediaJobProcessed increments a media processing counter.
func (m *InMemoryRecorder) IncMediaJobProcessed(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaJobsProcessed[status]++
}

// ObserveMediaRenderDuration records a render duration.
func (m *InMemoryRecorder) ObserveMediaRenderDuration(duration time.Duration) {
	atomic.AddUint64(&m.mediaRenderCount, 1)
	atomic.AddInt64(&m.mediaRenderTotalNs, duration.Nanoseconds())
}

func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
