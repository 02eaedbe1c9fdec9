package repository

import (
	"context"
	"time"

	"github.com/gemweb/gemweb/internal/domain/entity"
)

// ExportFormat selects the rendering of an exported session.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportTXT  ExportFormat = "txt"
)

// SearchResult is one cross-session search hit.
type SearchResult struct {
	SessionID    string      `json:"session_id"`
	SessionTitle string      `json:"session_title"`
	Sender       entity.Role `json:"sender"`
	Content      string      `json:"content"`
	Timestamp    time.Time   `json:"timestamp"`
}

// ChatRepository is the durable conversation store. Each call is atomic on
// its own; no multi-call transaction is exposed.
type ChatRepository interface {
	// CreateSession inserts a new session row. A duplicate id fails with
	// an AlreadyExists error.
	CreateSession(ctx context.Context, id, title, modelName string) error

	// GetSession returns the session or a NotFound error.
	GetSession(ctx context.Context, id string) (*entity.Session, error)

	// ListSessions returns up to limit sessions with message counts,
	// most recently updated first.
	ListSessions(ctx context.Context, limit int) ([]*entity.Session, error)

	// AppendMessage inserts a message, refreshes the session's updated_at,
	// and sets the title from the first user message while it is still the
	// default. An unknown session fails with a NotFound error.
	AppendMessage(ctx context.Context, sessionID string, sender entity.Role, content, formatted string) error

	// GetMessages returns the session's messages in insertion order.
	// Unknown sessions yield an empty slice.
	GetMessages(ctx context.Context, sessionID string) ([]*entity.Message, error)

	// DeleteSession removes the session and cascades to its messages.
	// Deleting an absent session is a no-op.
	DeleteSession(ctx context.Context, id string) error

	// SearchMessages returns up to limit messages containing query as a
	// substring (case-insensitive), most recent first, across all sessions.
	SearchMessages(ctx context.Context, query string, limit int) ([]*SearchResult, error)

	// ExportSession renders the full session in the given format. Unknown
	// formats fail with UnsupportedFormat, unknown ids with NotFound.
	ExportSession(ctx context.Context, id string, format ExportFormat) (string, error)
}
