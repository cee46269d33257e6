//go:build integration

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/adpilot/adpilot/internal/claude"
	"github.com/adpilot/adpilot/internal/model"
	"github.com/adpilot/adpilot/internal/repository"
	"github.com/adpilot/adpilot/internal/testutil"
	"github.com/adpilot/adpilot/internal/tool"
)

type stubAgent struct {
	result      *claude.AgentResult
	err         error
	gotHistory  []claude.Turn
	gotMessages []string
}

func (s *stubAgent) RunAgent(_ context.Context, _ claude.ToolExecutor, _ tool.Context, _ string, history []claude.Turn, userMessage string) (*claude.AgentResult, error) {
	s.gotHistory = history
	s.gotMessages = append(s.gotMessages, userMessage)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestIntegrationSendMessage_NewConversation(t *testing.T) {
	ctx, repo, user := newChatTestEnv(t)

	agent := &stubAgent{result: &claude.AgentResult{
		Reply:      "Created the campaign.",
		Iterations: 2,
		ToolCalls: []claude.ToolCall{{
			Name:       "create_campaign",
			Input:      json.RawMessage(`{"name":"Morning Brew"}`),
			Output:     `{"id":"camp-1"}`,
			DurationMs: 5,
		}},
	}}
	svc := NewChatService(repo, agent, tool.NewRegistry(), nil)

	resp, err := svc.SendMessage(ctx, user, "", "Create a campaign for my coffee shop")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("expected a conversation ID")
	}
	if resp.Reply != "Created the campaign." {
		t.Errorf("Reply = %q", resp.Reply)
	}

	conversation, messages, err := svc.GetTranscript(ctx, resp.ConversationID, user.UserID)
	if err != nil {
		t.Fatalf("GetTranscript failed: %v", err)
	}
	if conversation.Title != "Create a campaign for my coffee shop" {
		t.Errorf("Title = %q", conversation.Title)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	byRole := make(map[model.MessageRole]*model.Message)
	for _, m := range messages {
		byRole[m.Role] = m
	}
	if m := byRole[model.RoleUser]; m == nil || m.Content != "Create a campaign for my coffee shop" {
		t.Errorf("user message = %+v", m)
	}
	if m := byRole[model.RoleAssistant]; m == nil || m.Content != "Created the campaign." {
		t.Errorf("assistant message = %+v", m)
	}
	toolMsg := byRole[model.RoleTool]
	if toolMsg == nil || toolMsg.ToolName != "create_campaign" {
		t.Fatalf("tool message = %+v", toolMsg)
	}
	if toolMsg.Content != `{"id":"camp-1"}` || toolMsg.ToolInput != `{"name":"Morning Brew"}` {
		t.Errorf("tool record content = %q, input = %q", toolMsg.Content, toolMsg.ToolInput)
	}
}

func TestIntegrationSendMessage_MultibyteTitle(t *testing.T) {
	ctx, repo, user := newChatTestEnv(t)

	agent := &stubAgent{result: &claude.AgentResult{Reply: "OK", Iterations: 1}}
	svc := NewChatService(repo, agent, tool.NewRegistry(), nil)

	message := "campagne café " + strings.Repeat("é", 60)
	resp, err := svc.SendMessage(ctx, user, "", message)
	if err != nil {
		t.Fatalf("SendMessage with multibyte input failed: %v", err)
	}

	conversation, _, err := svc.GetTranscript(ctx, resp.ConversationID, user.UserID)
	if err != nil {
		t.Fatalf("GetTranscript failed: %v", err)
	}
	if !utf8.ValidString(conversation.Title) {
		t.Errorf("stored title is invalid UTF-8: %q", conversation.Title)
	}
	if len(conversation.Title) > maxTitleLength {
		t.Errorf("title length = %d, want <= %d", len(conversation.Title), maxTitleLength)
	}
}

func TestIntegrationSendMessage_FollowUp(t *testing.T) {
	ctx, repo, user := newChatTestEnv(t)

	agent := &stubAgent{result: &claude.AgentResult{Reply: "First reply", Iterations: 1}}
	svc := NewChatService(repo, agent, tool.NewRegistry(), nil)

	resp, err := svc.SendMessage(ctx, user, "", "First message")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	agent.result = &claude.AgentResult{Reply: "Second reply", Iterations: 1}
	if _, err := svc.SendMessage(ctx, user, resp.ConversationID, "Second message"); err != nil {
		t.Fatalf("SendMessage (follow-up) failed: %v", err)
	}

	// The follow-up replays the prior user and assistant turns.
	if len(agent.gotHistory) != 2 {
		t.Fatalf("history = %d turns, want 2", len(agent.gotHistory))
	}
	if agent.gotHistory[0].Content != "First message" || agent.gotHistory[0].Role != model.RoleUser {
		t.Errorf("history[0] = %+v", agent.gotHistory[0])
	}
	if agent.gotHistory[1].Content != "First reply" || agent.gotHistory[1].Role != model.RoleAssistant {
		t.Errorf("history[1] = %+v", agent.gotHistory[1])
	}

	_, messages, err := svc.GetTranscript(ctx, resp.ConversationID, user.UserID)
	if err != nil {
		t.Fatalf("GetTranscript failed: %v", err)
	}
	if len(messages) != 4 {
		t.Errorf("expected 4 messages, got %d", len(messages))
	}
}

func TestIntegrationSendMessage_EmptyMessage(t *testing.T) {
	ctx, repo, user := newChatTestEnv(t)

	svc := NewChatService(repo, &stubAgent{}, tool.NewRegistry(), nil)

	_, err := svc.SendMessage(ctx, user, "", "   ")
	var validation *model.CampaignValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}

func newChatTestEnv(t *testing.T) (context.Context, *repository.Repository, *model.AuthUser) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := repository.New(ctx, dbURL, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	err = testutil.ResetSchema(ctx, repo.Pool(),
		"000001_create_users",
		"000002_create_campaigns",
		"000003_create_assets",
		"000004_create_conversations",
		"000005_create_api_keys",
	)
	if err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	owner := testutil.NewTestUser(t, testutil.UniqueID("user"))
	if err := repo.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return ctx, repo, &model.AuthUser{
		UserID: owner.ID,
		Email:  owner.Email,
		Name:   owner.Name,
		Method: model.MethodSession,
	}
}
