package agent

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Per-message truncation limits. Restaurant lists get a larger budget
// so the model can still filter by cuisine across the full catalog.
const (
	listResultLimit     = 15000
	toolResultLimit     = 5000
	defaultContentLimit = 3000

	truncationMarker = "\n\n[Content truncated due to length...]"
)

// ThreadStore holds conversation histories keyed by thread id. Threads
// are created lazily on first use. Each thread carries its own mutex
// so concurrent chats on the same thread serialize while distinct
// threads proceed independently.
type ThreadStore struct {
	mu      sync.Mutex
	threads map[string]*thread
	window  int
}

type thread struct {
	mu       sync.Mutex
	messages []Message
}

// NewThreadStore builds a store with the given history window: the
// number of non-system messages retained per thread after each turn.
func NewThreadStore(window int) *ThreadStore {
	return &ThreadStore{
		threads: make(map[string]*thread),
		window:  window,
	}
}

// NewThreadID mints a fresh thread identifier.
func (s *ThreadStore) NewThreadID() string {
	return "thread_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *ThreadStore) acquire(id string) *thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.threads[id]
	if !ok {
		th = &thread{}
		s.threads[id] = th
	}
	return th
}

// History returns a copy of a thread's stored messages. An unknown
// thread id yields an empty history.
func (s *ThreadStore) History(id string) []Message {
	s.mu.Lock()
	th, ok := s.threads[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	out := make([]Message, len(th.messages))
	copy(out, th.messages)
	return out
}

// Len reports the number of stored threads.
func (s *ThreadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// trimHistory keeps all system messages plus the most recent window
// non-system messages, preserving relative order.
func trimHistory(messages []Message, window int) []Message {
	if len(messages) <= window {
		return messages
	}

	var system, rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}
	if len(rest) > window {
		rest = rest[len(rest)-window:]
	}
	return append(system, rest...)
}

// truncateContent caps a string at max characters, appending a marker
// so the model knows content was dropped.
func truncateContent(content string, max int) string {
	if len(content) <= max {
		return content
	}
	return content[:max] + truncationMarker
}

// resultLimit picks the truncation budget for a tool's serialized
// result.
func resultLimit(toolName string) int {
	if strings.EqualFold(toolName, "list_restaurants") {
		return listResultLimit
	}
	return toolResultLimit
}
