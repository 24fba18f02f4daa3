package bot_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/platform"
)

type sent struct {
	Kind      string // "post", "update" or "ephemeral"
	ChannelID string
	UserID    string
	ThreadTS  string
	Text      string
	Blocks    int
}

type mockPlatform struct {
	mu   sync.Mutex
	sent []sent

	postErr      error
	historyFn    func(ctx context.Context, channelID string, limit int) ([]platform.HistoryMessage, error)
	userNameFn   func(ctx context.Context, userID string) (string, error)
	userNameHits int
}

func (m *mockPlatform) record(s sent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

func (m *mockPlatform) PostMessage(_ context.Context, channelID string, msg platform.Message) (string, error) {
	if m.postErr != nil {
		return "", m.postErr
	}
	m.record(sent{Kind: "post", ChannelID: channelID, ThreadTS: msg.ThreadTS, Text: msg.Text, Blocks: len(msg.Blocks)})
	return "1700000000.000200", nil
}

func (m *mockPlatform) UpdateMessage(_ context.Context, channelID, _ string, msg platform.Message) error {
	m.record(sent{Kind: "update", ChannelID: channelID, ThreadTS: msg.ThreadTS, Text: msg.Text, Blocks: len(msg.Blocks)})
	return nil
}

func (m *mockPlatform) PostEphemeral(_ context.Context, channelID, userID string, msg platform.Message) error {
	m.record(sent{Kind: "ephemeral", ChannelID: channelID, UserID: userID, Text: msg.Text, Blocks: len(msg.Blocks)})
	return nil
}

func (m *mockPlatform) ScheduleMessage(context.Context, string, time.Time, string) (string, error) {
	return "Q1", nil
}

func (m *mockPlatform) DeleteScheduledMessage(context.Context, string, string) error {
	return nil
}

func (m *mockPlatform) ListScheduledMessages(context.Context, string) ([]platform.ScheduledMessage, error) {
	return nil, nil
}

func (m *mockPlatform) History(ctx context.Context, channelID string, limit int) ([]platform.HistoryMessage, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, channelID, limit)
	}
	return nil, nil
}

func (m *mockPlatform) UserName(ctx context.Context, userID string) (string, error) {
	m.userNameHits++
	if m.userNameFn != nil {
		return m.userNameFn(ctx, userID)
	}
	return userID, nil
}

func (m *mockPlatform) AuthTest(context.Context) (*platform.Identity, error) {
	return &platform.Identity{UserID: "UBOT"}, nil
}

func (m *mockPlatform) last() sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sent{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *mockPlatform) all() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sent(nil), m.sent...)
}

type mockGateway struct {
	mu         sync.Mutex
	completeFn func(ctx context.Context, task llm.Task, prompt string) string
	calls      []llm.Task
	prompts    []string
}

func (m *mockGateway) Complete(ctx context.Context, task llm.Task, prompt string) string {
	m.mu.Lock()
	m.calls = append(m.calls, task)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.completeFn != nil {
		return m.completeFn(ctx, task, prompt)
	}
	return "model answer"
}

func (m *mockGateway) CompleteRaw(ctx context.Context, task llm.Task, prompt string) string {
	return m.Complete(ctx, task, prompt)
}

func (m *mockGateway) Available() bool   { return true }
func (m *mockGateway) Status() llm.Status { return llm.Status{Available: true} }
func (m *mockGateway) Model() string      { return "test-model" }

type mockRoadmapGateway struct {
	available bool
	getFn     func(ctx context.Context, projectID string) *model.Roadmap
	listFn    func(ctx context.Context) []model.RoadmapSummary
}

func (m *mockRoadmapGateway) Get(ctx context.Context, projectID string) *model.Roadmap {
	if m.getFn != nil {
		return m.getFn(ctx, projectID)
	}
	return nil
}

func (m *mockRoadmapGateway) List(ctx context.Context) []model.RoadmapSummary {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.RoadmapSummary{}
}

func (m *mockRoadmapGateway) Upsert(_ context.Context, projectID string, data json.RawMessage) *model.Roadmap {
	return &model.Roadmap{ProjectID: projectID, Data: data}
}

func (m *mockRoadmapGateway) Available() bool { return m.available }

type mockIssueAuditStore struct {
	findFn func(ctx context.Context, limit int) ([]model.IssueFinding, error)
}

func (m *mockIssueAuditStore) FindIncomplete(ctx context.Context, limit int) ([]model.IssueFinding, error) {
	if m.findFn != nil {
		return m.findFn(ctx, limit)
	}
	return nil, nil
}

type mockInflight struct {
	acquireFn func(ctx context.Context, key string) bool
	released  []string
}

func (m *mockInflight) Acquire(ctx context.Context, key string) bool {
	if m.acquireFn != nil {
		return m.acquireFn(ctx, key)
	}
	return true
}

func (m *mockInflight) Release(_ context.Context, key string) {
	m.released = append(m.released, key)
}
