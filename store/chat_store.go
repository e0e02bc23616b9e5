package store

import "context"

// CreateChatSession creates a new chat session.
func (s *Store) CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error) {
	sess, err := s.driver.CreateChatSession(ctx, create)
	if err != nil {
		return nil, err
	}
	s.notifySessionChange(ctx)
	return sess, nil
}

// ListChatSessions lists sessions matching the given filter, most recently
// created first.
func (s *Store) ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error) {
	return s.driver.ListChatSessions(ctx, find)
}

// GetChatSession returns the first session matching the given filter, or nil.
func (s *Store) GetChatSession(ctx context.Context, find *FindChatSession) (*ChatSession, error) {
	list, err := s.driver.ListChatSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateChatSession updates a session's mutable fields (currently the title).
func (s *Store) UpdateChatSession(ctx context.Context, update *UpdateChatSession) (*ChatSession, error) {
	sess, err := s.driver.UpdateChatSession(ctx, update)
	if err != nil {
		return nil, err
	}
	s.notifySessionChange(ctx)
	return sess, nil
}

// DeleteChatSession deletes a session and its messages in one transaction;
// a session and its conversation are never deleted separately.
func (s *Store) DeleteChatSession(ctx context.Context, uid string) error {
	if err := s.driver.DeleteChatSession(ctx, uid); err != nil {
		return err
	}
	s.notifySessionChange(ctx)
	return nil
}

// CreateChatMessage persists a new message to a session.
func (s *Store) CreateChatMessage(ctx context.Context, create *CreateChatMessage) (*ChatMessage, error) {
	return s.driver.CreateChatMessage(ctx, create)
}

// ListChatMessages returns all messages for a session, oldest first.
func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

// DeleteChatMessages deletes all messages for the given session.
func (s *Store) DeleteChatMessages(ctx context.Context, sessionID int32) error {
	return s.driver.DeleteChatMessages(ctx, sessionID)
}
