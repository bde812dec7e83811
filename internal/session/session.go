// Package session holds per-conversation message history, keyed by thread
// id, enabling multi-turn continuity across concurrent conversations.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"
)

// Message is one entry of a conversation. AuthoredBy names the worker that
// produced an assistant message; it is set exactly once, when the message
// is appended, and never changed afterwards.
type Message struct {
	Role       string    `json:"role"` // system, user, assistant
	Content    string    `json:"content"`
	AuthoredBy string    `json:"authored_by,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Conversation is the append-only history of one thread. Hop counts and
// seen-worker sets are always derived from Messages by the caller, never
// stored, so they cannot drift from history.
type Conversation struct {
	ID       string
	mu       sync.Mutex
	messages []Message
}

// Append adds a message to the history.
func (c *Conversation) Append(m Message) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
}

// Snapshot returns a copy of the history safe to read while other turns of
// other conversations run concurrently.
func (c *Conversation) Snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Sink receives every appended message for durability. Implementations must
// be safe for concurrent use.
type Sink interface {
	Append(threadID string, m Message) error
}

// Store maps thread ids to conversations. Conversations are created on
// first access and live for the process lifetime; growth is unbounded by
// design of the source behavior.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	sink          Sink
	logger        *logging.Logger
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
		logger:        logging.New().WithComponent("session"),
	}
}

// SetSink mirrors every append to the given sink. Call before serving.
func (s *Store) SetSink(sink Sink) {
	s.sink = sink
}

// Get returns the conversation for a thread id, creating it on first
// access. An empty thread id gets a fresh generated id.
func (s *Store) Get(threadID string) *Conversation {
	if threadID == "" {
		threadID = uuid.NewString()
	}

	s.mu.RLock()
	conv, ok := s.conversations[threadID]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok = s.conversations[threadID]; ok {
		return conv
	}
	conv = &Conversation{ID: threadID}
	s.conversations[threadID] = conv
	s.logger.Debug("conversation created", map[string]interface{}{"thread_id": threadID})
	return conv
}

// Append adds a message to a thread's history and mirrors it to the sink.
func (s *Store) Append(threadID string, m Message) {
	conv := s.Get(threadID)
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	conv.Append(m)

	if s.sink != nil {
		if err := s.sink.Append(conv.ID, m); err != nil {
			s.logger.Warn("failed to persist message", map[string]interface{}{
				"thread_id": conv.ID,
				"error":     err.Error(),
			})
		}
	}
}

// Len returns the number of active conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
