package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomnoms/nomnoms/internal/log"
	"github.com/nomnoms/nomnoms/internal/ordering"
)

// fakeModel replays scripted replies; the last reply repeats forever.
type fakeModel struct {
	replies []*Reply
	err     error

	calls [][]Message
}

func (m *fakeModel) Generate(_ context.Context, messages []Message, _ []Tool) (*Reply, error) {
	m.calls = append(m.calls, slices.Clone(messages))
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return &Reply{Text: "done"}, nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

func newTestOrchestrator(t *testing.T, model ModelClient) (*Orchestrator, *ThreadStore) {
	t.Helper()
	dispatcher := newTestDispatcher(t, &fakeOrdering{
		cart: &ordering.Cart{RestaurantID: testRestaurantID, Subtotal: 12.99, Total: 15.98},
	}, &fakeDelivery{})
	store := NewThreadStore(20)
	return NewOrchestrator(model, dispatcher, store, 10, log.NewNop()), store
}

func TestChatPlainText(t *testing.T) {
	model := &fakeModel{replies: []*Reply{{Text: "Hi! What can I get you?"}}}
	o, store := newTestOrchestrator(t, model)

	response, threadID, err := o.Chat(t.Context(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "Hi! What can I get you?", response)
	assert.NotEmpty(t, threadID)

	// System prompt goes to the model on the first turn only and is
	// never persisted.
	require.Len(t, model.calls, 1)
	assert.Equal(t, RoleSystem, model.calls[0][0].Role)

	history := store.History(threadID)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)
}

func TestChatSecondTurnOmitsSystemPrompt(t *testing.T) {
	model := &fakeModel{replies: []*Reply{{Text: "first"}, {Text: "second"}}}
	o, _ := newTestOrchestrator(t, model)

	_, threadID, err := o.Chat(t.Context(), "hello", "")
	require.NoError(t, err)
	_, _, err = o.Chat(t.Context(), "and again", threadID)
	require.NoError(t, err)

	require.Len(t, model.calls, 2)
	for _, msg := range model.calls[1] {
		assert.NotEqual(t, RoleSystem, msg.Role)
	}
	// Prior turn is visible on the second call.
	assert.Equal(t, "hello", model.calls[1][0].Content)
	assert.Equal(t, "first", model.calls[1][1].Content)
	assert.Equal(t, "and again", model.calls[1][2].Content)
}

func TestChatToolCallFlow(t *testing.T) {
	model := &fakeModel{replies: []*Reply{
		{ToolCalls: []ToolCall{{
			ID:   "call_1",
			Name: ToolBuildCart,
			Args: map[string]any{
				"restaurant_name": "U ME",
				"items": []any{
					map[string]any{"item_name": "California Roll", "quantity": float64(1)},
				},
			},
		}}},
		{Text: "Your cart totals $15.98."},
	}}
	o, store := newTestOrchestrator(t, model)

	response, threadID, err := o.Chat(t.Context(), "order a california roll from u me", "")
	require.NoError(t, err)
	assert.Equal(t, "Your cart totals $15.98.", response)

	// Second model call sees the tool result.
	require.Len(t, model.calls, 2)
	last := model.calls[1][len(model.calls[1])-1]
	assert.Equal(t, RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Content), &result))
	assert.Equal(t, 15.98, result["total"])

	history := store.History(threadID)
	require.Len(t, history, 4) // user, assistant+call, tool, assistant
}

func TestChatToolErrorRewrapped(t *testing.T) {
	model := &fakeModel{replies: []*Reply{
		{ToolCalls: []ToolCall{{ID: "call_1", Name: "no_such_tool"}}},
		{Text: "sorry"},
	}}
	o, _ := newTestOrchestrator(t, model)

	_, _, err := o.Chat(t.Context(), "hi", "")
	require.NoError(t, err)

	last := model.calls[1][len(model.calls[1])-1]
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Content), &result))
	assert.Equal(t, false, result["success"])
	assert.Equal(t, "Unknown function: no_such_tool", result["error"])
	assert.NotEmpty(t, result["error_type"])
	assert.NotEmpty(t, result["suggestion"])
}

func TestChatStopsAtIterationCap(t *testing.T) {
	// The model asks for another tool call every turn.
	model := &fakeModel{replies: []*Reply{
		{ToolCalls: []ToolCall{{ID: "call_x", Name: "no_such_tool"}}},
	}}
	o, _ := newTestOrchestrator(t, model)

	response, _, err := o.Chat(t.Context(), "loop forever", "")
	require.NoError(t, err)

	assert.Len(t, model.calls, 10)
	// No assistant text anywhere, so the last tool error is surfaced.
	assert.Equal(t, "I encountered an error: Unknown function: no_such_tool", response)
}

func TestChatFallbackPrefersAssistantText(t *testing.T) {
	model := &fakeModel{replies: []*Reply{
		{Text: "thinking about it", ToolCalls: []ToolCall{{ID: "call_x", Name: "no_such_tool"}}},
	}}
	o, _ := newTestOrchestrator(t, model)

	response, _, err := o.Chat(t.Context(), "loop forever", "")
	require.NoError(t, err)
	assert.Equal(t, "thinking about it", response)
}

func TestChatFallbackApology(t *testing.T) {
	// Tool calls that succeed every time: no text, no errors.
	model := &fakeModel{replies: []*Reply{
		{ToolCalls: []ToolCall{{
			ID:   "call_x",
			Name: ToolBuildCart,
			Args: map[string]any{
				"restaurant_name": "U ME",
				"items": []any{
					map[string]any{"item_name": "California Roll", "quantity": float64(1)},
				},
			},
		}}},
	}}
	o, _ := newTestOrchestrator(t, model)

	response, _, err := o.Chat(t.Context(), "loop forever", "")
	require.NoError(t, err)
	assert.Equal(t, fallbackResponse, response)
}

func TestChatProviderErrorPropagates(t *testing.T) {
	model := &fakeModel{err: fmt.Errorf("quota exceeded")}
	o, _ := newTestOrchestrator(t, model)

	_, _, err := o.Chat(t.Context(), "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestChatTrimsStoredHistory(t *testing.T) {
	model := &fakeModel{}
	o, store := newTestOrchestrator(t, model)

	var threadID string
	var err error
	for i := 0; i < 15; i++ {
		_, threadID, err = o.Chat(t.Context(), fmt.Sprintf("turn %d", i), threadID)
		require.NoError(t, err)
	}

	history := store.History(threadID)
	assert.Len(t, history, 20)
	for _, msg := range history {
		assert.NotEqual(t, RoleSystem, msg.Role)
	}
	// Newest turn is last.
	assert.Equal(t, "done", history[len(history)-1].Content)
	assert.Equal(t, "turn 14", history[len(history)-2].Content)
}
