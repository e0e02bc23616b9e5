package store

import (
	"context"
	"database/sql"
	"sync"
)

// Driver is the interface implemented by each storage backend.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	EnsureChatTables(ctx context.Context) error

	CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error)
	ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error)
	UpdateChatSession(ctx context.Context, update *UpdateChatSession) (*ChatSession, error)
	DeleteChatSession(ctx context.Context, uid string) error

	CreateChatMessage(ctx context.Context, create *CreateChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)
	DeleteChatMessages(ctx context.Context, sessionID int32) error
}

// Store wraps a Driver and pushes session-list updates to subscribers.
type Store struct {
	driver Driver

	mu          sync.Mutex
	subscribers map[int]chan []*ChatSession
	nextSubID   int
}

// New creates a Store backed by the given driver.
func New(driver Driver) *Store {
	return &Store{
		driver:      driver,
		subscribers: make(map[int]chan []*ChatSession),
	}
}

// Migrate creates the chat tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.EnsureChatTables(ctx)
}

// Close closes the underlying driver and detaches all subscribers.
func (s *Store) Close() error {
	s.mu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()
	return s.driver.Close()
}

// Subscribe registers a live read of the session list. The returned channel
// receives the full, freshly-read list after every session mutation. Updates
// coalesce: a slow reader only ever sees the most recent list.
func (s *Store) Subscribe() (<-chan []*ChatSession, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan []*ChatSession, 1)
	s.subscribers[id] = ch
	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.subscribers[id]; ok {
			close(ch)
			delete(s.subscribers, id)
		}
	}
	return ch, cancel
}

// notifySessionChange re-reads the session list and pushes it to every
// subscriber, replacing any update they have not consumed yet.
func (s *Store) notifySessionChange(ctx context.Context) {
	list, err := s.driver.ListChatSessions(ctx, &FindChatSession{})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- list:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- list
		}
	}
}

// NextAfterDelete returns the UID to navigate to after deleting the session
// with deletedUID from sessions: the first remaining session, or "" when no
// session remains ("no chat selected").
func NextAfterDelete(sessions []*ChatSession, deletedUID string) string {
	for _, sess := range sessions {
		if sess.UID != deletedUID {
			return sess.UID
		}
	}
	return ""
}
