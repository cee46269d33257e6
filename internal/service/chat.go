package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/adpilot/adpilot/internal/claude"
	"github.com/adpilot/adpilot/internal/metrics"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
	"github.com/adpilot/adpilot/internal/tool"
)

// systemPrompt frames the assistant for campaign work.
const systemPrompt = `You are AdPilot, an assistant that helps users plan and manage
advertising campaigns. Use the available tools to create, inspect and
update the user's campaigns and to queue creative generation. Always
confirm what you did. If a tool reports missing source assets, tell the
user which assets to upload first.`

const maxTitleLength = 80

// AgentRunner drives the model loop. *claude.Client satisfies this.
type AgentRunner interface {
	RunAgent(ctx context.Context, executor claude.ToolExecutor, tc tool.Context, system string, history []claude.Turn, userMessage string) (*claude.AgentResult, error)
}

// ChatService orchestrates conversations: it persists the transcript,
// runs the agent loop and records the tool activity it produced.
type ChatService struct {
	repo     *repository.Repository
	agent    AgentRunner
	registry *tool.Registry
	metrics  metrics.Recorder
}

// NewChatService creates a new ChatService.
func NewChatService(repo *repository.Repository, agent AgentRunner, registry *tool.Registry, recorder metrics.Recorder) *ChatService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ChatService{
		repo:     repo,
		agent:    agent,
		registry: registry,
		metrics:  recorder,
	}
}

// ChatResponse is the outcome of one chat turn.
type ChatResponse struct {
	ConversationID string           `json:"conversation_id"`
	Reply          string           `json:"reply"`
	ToolCalls      []claude.ToolCall `json:"-"`
}

// SendMessage runs one chat turn. An empty conversationID starts a new
// conversation titled after the message.
func (s *ChatService) SendMessage(ctx context.Context, user *model.AuthUser, conversationID, content string) (*ChatResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewCampaignValidation("message", "must not be empty")
	}

	start := time.Now()

	conversation, history, err := s.loadConversation(ctx, user.UserID, conversationID, content)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, conversation.ID, model.RoleUser, content, "", ""); err != nil {
		return nil, err
	}

	tc := tool.Context{User: user}
	result, err := s.agent.RunAgent(ctx, s.registry, tc, systemPrompt, history, content)
	if err != nil {
		return nil, fmt.Errorf("agent run failed: %w", err)
	}

	s.recordToolCalls(ctx, conversation.ID, result.ToolCalls)

	if err := s.appendMessage(ctx, conversation.ID, model.RoleAssistant, result.Reply, "", ""); err != nil {
		return nil, err
	}

	if err := s.repo.TouchConversation(ctx, conversation.ID); err != nil {
		slog.Warn("failed to touch conversation",
			"conversation_id", conversation.ID,
			"error", err,
		)
	}

	s.metrics.IncChatMessage()
	s.metrics.ObserveChatDuration(time.Since(start))
	s.metrics.ObserveAgentIterations(result.Iterations)
	for _, call := range result.ToolCalls {
		status := "success"
		if call.Err != "" {
			status = "error"
		}
		s.metrics.IncToolCall(call.Name, status)
	}

	return &ChatResponse{
		ConversationID: conversation.ID,
		Reply:          result.Reply,
		ToolCalls:      result.ToolCalls,
	}, nil
}

// ListConversations retrieves the user's conversations.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	return s.repo.ListConversations(ctx, userID)
}

// GetTranscript retrieves a conversation with its full message history.
func (s *ChatService) GetTranscript(ctx context.Context, conversationID, userID string) (*model.Conversation, []*model.Message, error) {
	conversation, err := s.repo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	return conversation, messages, nil
}

// loadConversation resolves or creates the conversation and builds the
// replay history for the agent.
func (s *ChatService) loadConversation(ctx context.Context, userID, conversationID, content string) (*model.Conversation, []claude.Turn, error) {
	if conversationID == "" {
		now := time.Now()
		conversation := &model.Conversation{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     deriveTitle(content),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateConversation(ctx, conversation); err != nil {
			return nil, nil, err
		}
		return conversation, nil, nil
	}

	conversation, err := s.repo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	history := make([]claude.Turn, 0, len(messages))
	for _, m := range messages {
		// Tool records stay in the transcript for the API but are
		// not replayed to the model.
		if m.Role == model.RoleTool {
			continue
		}
		history = append(history, claude.Turn{Role: m.Role, Content: m.Content})
	}

	return conversation, history, nil
}

// recordToolCalls persists tool activity as transcript entries.
// Failures are logged, not fatal: the reply already happened.
func (s *ChatService) recordToolCalls(ctx context.Context, conversationID string, calls []claude.ToolCall) {
	for _, call := range calls {
		content := call.Output
		if call.Err != "" {
			content = "error: " + call.Err
		}
		if err := s.appendMessage(ctx, conversationID, model.RoleTool, content, call.Name, string(call.Input)); err != nil {
			slog.Warn("failed to record tool call",
				"conversation_id", conversationID,
				"tool", call.Name,
				"error", err,
			)
		}
	}
}

func (s *ChatService) appendMessage(ctx context.Context, conversationID string, role model.MessageRole, content, toolName, toolInput string) error {
	return s.repo.CreateMessage(ctx, &model.Message{
		ID:             ulid.Make().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ToolName:       toolName,
		ToolInput:      toolInput,
		CreatedAt:      time.Now(),
	})
}

// deriveTitle builds a conversation title from the first message.
// Truncation backs up to a rune boundary so multibyte input never
// produces an invalid UTF-8 title.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if len(title) > maxTitleLength {
		cut := maxTitleLength
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	return title
}
