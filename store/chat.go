package store

// ChatSession is a single conversation thread shown in the chat history list.
type ChatSession struct {
	ID        int32
	UID       string // stable external identifier, immutable after creation
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

// ChatMessage is a single message within a session.
type ChatMessage struct {
	ID        int32
	SessionID int32
	Role      string // "user" | "assistant"
	Content   string
	CreatedTs int64
}

// FindChatSession filters for ListChatSessions.
type FindChatSession struct {
	ID  *int32
	UID *string
}

// UpdateChatSession carries fields accepted by UpdateChatSession.
// The session is addressed by its surrogate ID; UID and message
// history are never touched by an update.
type UpdateChatSession struct {
	ID    int32
	Title *string
}

// FindChatMessage filters for ListChatMessages.
type FindChatMessage struct {
	SessionID int32
}

// CreateChatMessage is the payload for CreateChatMessage.
type CreateChatMessage struct {
	SessionID int32
	Role      string
	Content   string
}
