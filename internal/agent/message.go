// Package agent implements the conversational ordering assistant: a
// provider-agnostic tool-calling loop over an in-process conversation
// store, with tool dispatch into the ordering and delivery services.
package agent

// Message roles in a conversation thread.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model request to invoke a named tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Message is the internal conversation message type. Provider wire
// formats are translated to and from it at the model adapter boundary
// so the orchestration loop stays provider-independent.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Set on tool-result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}
