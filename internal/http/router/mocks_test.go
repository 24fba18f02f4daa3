package router_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Zay2006/Slacking-Capstone/common/llm"
	"github.com/Zay2006/Slacking-Capstone/core/db"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

type recordingHandler struct {
	commands chan model.Command
	messages chan model.Message
	actions  chan model.Action
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		commands: make(chan model.Command, 4),
		messages: make(chan model.Message, 4),
		actions:  make(chan model.Action, 4),
	}
}

func (h *recordingHandler) HandleCommand(_ context.Context, cmd model.Command) error {
	h.commands <- cmd
	return nil
}

func (h *recordingHandler) HandleMessage(_ context.Context, msg model.Message) error {
	h.messages <- msg
	return nil
}

func (h *recordingHandler) HandleAction(_ context.Context, a model.Action) error {
	h.actions <- a
	return nil
}

type mockGateway struct {
	status llm.Status
}

func (m *mockGateway) Complete(_ context.Context, task llm.Task, prompt string) string {
	return llm.Fallback(task, prompt)
}
func (m *mockGateway) CompleteRaw(ctx context.Context, task llm.Task, prompt string) string {
	return m.Complete(ctx, task, prompt)
}
func (m *mockGateway) Available() bool   { return m.status.Available }
func (m *mockGateway) Status() llm.Status { return m.status }
func (m *mockGateway) Model() string      { return "test-model" }

type mockChecker struct{ health db.Health }

func (m mockChecker) Check(context.Context) db.Health { return m.health }

type mockRoadmaps struct {
	mu        sync.Mutex
	available bool
	docs      map[string]json.RawMessage
	failWrite bool
}

func newMockRoadmaps() *mockRoadmaps {
	return &mockRoadmaps{available: true, docs: map[string]json.RawMessage{}}
}

func (m *mockRoadmaps) Get(_ context.Context, projectID string) *model.Roadmap {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[projectID]
	if !ok {
		return nil
	}
	return &model.Roadmap{ProjectID: projectID, Data: data, UpdatedAt: time.Unix(0, 0).UTC()}
}

func (m *mockRoadmaps) List(context.Context) []model.RoadmapSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.RoadmapSummary{}
	for id, data := range m.docs {
		r := model.Roadmap{Data: data}
		out = append(out, model.RoadmapSummary{ProjectID: id, Name: r.Name()})
	}
	return out
}

func (m *mockRoadmaps) Upsert(_ context.Context, projectID string, data json.RawMessage) *model.Roadmap {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return nil
	}
	m.docs[projectID] = data
	return &model.Roadmap{ProjectID: projectID, Data: data}
}

func (m *mockRoadmaps) Available() bool { return m.available }
