package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nomnoms/nomnoms/internal/log"
)

const systemPrompt = "You are a helpful assistant for the NomNoms food delivery service. You can help users " +
	"browse restaurants, view menus, build carts, create orders, and manage deliveries. Use the available " +
	"functions to interact with the API when needed. CRITICAL SEARCH INSTRUCTIONS FOR CUISINE REQUESTS: When a " +
	"user asks for specific cuisine types (e.g., 'Japanese restaurants', 'I want sushi', 'show me Italian " +
	"places'), you MUST: 1) FIRST call list_restaurants with limit=100 (not 10, not 50, but 100) to get ALL " +
	"available restaurants, 2) EXAMINE each restaurant's 'description' field carefully - cuisine types are " +
	"listed there (e.g., 'Japanese, Fast Casual', 'Sushi, Salads', 'Japanese, Sushi'), 3) FILTER the results to " +
	"only show restaurants whose description contains the requested cuisine keyword (case-insensitive search), " +
	"4) PRESENT the filtered list to the user. Example: If user asks for Japanese, search for 'Japanese' or " +
	"'sushi' in description fields. IMPORTANT: Restaurant descriptions look like '$ • Japanese, Fast Casual' or " +
	"'$$ • Sushi, Salads' - the cuisine appears after the price and bullet. Never say a cuisine is unavailable " +
	"until you've searched through ALL 100 restaurants. If you receive a list of restaurants, you MUST search " +
	"through ALL of them before concluding none match. RESTAURANT MENU REQUESTS: When a user asks for a menu by " +
	"restaurant name (e.g., 'Show me U ME menu', 'What does Denny's have?'), you can directly call " +
	"get_restaurant_menu with the restaurant_name parameter. You don't need to look up IDs - just use the " +
	"restaurant name the user provides. The search is case-insensitive and handles exact or partial matches. " +
	"CRITICAL: When function calls return errors (check for 'success: false' or 'error' fields), you MUST show " +
	"the user the exact error message from the function result. Do NOT say 'temporary issue' or 'unable to " +
	"retrieve' - instead, quote the actual error message so the user knows what went wrong."

const errorSuggestion = "Please try again. If the problem persists, the backing service may be temporarily unavailable."

const fallbackResponse = "I apologize, but I encountered an issue processing your request. The agent may have " +
	"exceeded the maximum iterations or encountered an unexpected error."

// Orchestrator runs the tool-calling loop: ask the model for the next
// turn, dispatch any requested tools, feed results back, and repeat
// until the model answers in plain text or the iteration budget runs
// out. Tool failures never abort a chat; they are folded into the
// conversation for the model to explain.
type Orchestrator struct {
	model         ModelClient
	dispatcher    *Dispatcher
	threads       *ThreadStore
	tools         []Tool
	logger        log.Logger
	maxIterations int
}

func NewOrchestrator(model ModelClient, dispatcher *Dispatcher, threads *ThreadStore, maxIterations int, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{
		model:         model,
		dispatcher:    dispatcher,
		threads:       threads,
		tools:         Registry(),
		logger:        logger,
		maxIterations: maxIterations,
	}
}

// Chat runs one user turn. An empty threadID starts a new thread; the
// (possibly minted) thread id is returned so the caller can continue
// the conversation. Only a provider-communication failure is returned
// as an error.
func (o *Orchestrator) Chat(ctx context.Context, prompt, threadID string) (string, string, error) {
	if threadID == "" {
		threadID = o.threads.NewThreadID()
	}

	// Serializes concurrent turns on the same thread.
	th := o.threads.acquire(threadID)
	th.mu.Lock()
	defer th.mu.Unlock()

	history := trimHistory(th.messages, o.threads.window)
	history = append(history, Message{Role: RoleUser, Content: prompt})

	messages := history
	if len(history) == 1 {
		// First turn on this thread.
		messages = append([]Message{{Role: RoleSystem, Content: systemPrompt}}, history...)
	}

	var finalResponse string
	for iteration := 0; iteration < o.maxIterations; iteration++ {
		reply, err := o.model.Generate(ctx, messages, o.tools)
		if err != nil {
			return "", threadID, fmt.Errorf("model provider: %w", err)
		}

		messages = append(messages, Message{
			Role:      RoleAssistant,
			Content:   reply.Text,
			ToolCalls: reply.ToolCalls,
		})

		if len(reply.ToolCalls) == 0 {
			finalResponse = reply.Text
			break
		}

		for _, call := range reply.ToolCalls {
			result := o.dispatcher.Execute(ctx, call.Name, call.Args)
			if errMsg, ok := result["error"]; ok {
				errType := result["error_type"]
				if errType == nil {
					errType = "unknown"
				}
				result = map[string]any{
					"success":    false,
					"error":      errMsg,
					"error_type": errType,
					"suggestion": errorSuggestion,
				}
			}

			content, err := json.Marshal(result)
			if err != nil {
				content = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
			}
			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    truncateContent(string(content), resultLimit(call.Name)),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	if finalResponse == "" {
		finalResponse = o.fallback(messages)
	}

	// Persist everything but the system prompt, within the window.
	var kept []Message
	for _, msg := range messages {
		if msg.Role != RoleSystem {
			kept = append(kept, msg)
		}
	}
	th.messages = trimHistory(kept, o.threads.window)

	o.logger.Info("agent turn complete", "thread_id", threadID, "messages", len(th.messages))
	return finalResponse, threadID, nil
}

// fallback picks a response when the loop ended without assistant
// text: the most recent assistant message, else the most recent tool
// error, else a generic apology.
func (o *Orchestrator) fallback(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleAssistant && messages[i].Content != "" {
			return messages[i].Content
		}
	}

	var lastError string
	for _, msg := range messages {
		if msg.Role != RoleTool {
			continue
		}
		var content map[string]any
		if err := json.Unmarshal([]byte(msg.Content), &content); err != nil {
			continue
		}
		if errMsg, ok := content["error"].(string); ok {
			lastError = errMsg
		}
	}
	if lastError != "" {
		return "I encountered an error: " + lastError
	}
	return fallbackResponse
}
