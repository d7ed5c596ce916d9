package agent

import "context"

// Reply is one model turn: assistant text, tool calls, or both.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// ModelClient generates the next assistant turn for a conversation.
// Implementations adapt a concrete provider's wire format; the
// orchestration loop only ever sees Message and Reply.
type ModelClient interface {
	Generate(ctx context.Context, messages []Message, tools []Tool) (*Reply, error)
}
