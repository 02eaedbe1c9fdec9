package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/domain/entity"
	"github.com/gemweb/gemweb/internal/domain/repository"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

// Conversation is the live in-memory context for one session: the ordered
// turn history handed to the model provider.
type Conversation struct {
	ID        string
	ModelName string
	Turns     []entity.Turn
}

// Append extends the turn history.
func (c *Conversation) Append(role entity.TurnRole, text string) {
	c.Turns = append(c.Turns, entity.Turn{Role: role, Text: text})
}

// SessionRegistry maps session ids to live conversations. Entries live for
// the process lifetime and are rehydrated from the store on first use;
// nothing here is persistent. Entries are never evicted.
type SessionRegistry struct {
	mu            sync.Mutex
	conversations map[string]*Conversation

	store        repository.ChatRepository
	defaultModel string
	logger       *zap.Logger
}

// NewSessionRegistry creates an empty registry backed by the store.
func NewSessionRegistry(store repository.ChatRepository, defaultModel string, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		conversations: make(map[string]*Conversation),
		store:         store,
		defaultModel:  defaultModel,
		logger:        logger,
	}
}

// GetOrCreate returns the live conversation for id. On first reference the
// session is created in the store if absent and its persisted messages are
// replayed into the turn history.
func (r *SessionRegistry) GetOrCreate(ctx context.Context, id string) (*Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv, ok := r.conversations[id]; ok {
		return conv, nil
	}

	modelName := r.defaultModel
	session, err := r.store.GetSession(ctx, id)
	switch {
	case err == nil:
		if session.ModelName != "" {
			modelName = session.ModelName
		}
	case domainErrors.IsCode(err, domainErrors.CodeNotFound):
		if err := r.store.CreateSession(ctx, id, "", r.defaultModel); err != nil {
			return nil, err
		}
		r.logger.Info("Created session", zap.String("session_id", id))
	default:
		return nil, err
	}

	messages, err := r.store.GetMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{ID: id, ModelName: modelName}
	for _, msg := range messages {
		conv.Turns = append(conv.Turns, entity.TurnFromMessage(msg))
	}

	r.conversations[id] = conv
	r.logger.Debug("Rehydrated session context",
		zap.String("session_id", id),
		zap.Int("turns", len(conv.Turns)),
	)
	return conv, nil
}

// Remove drops the registry entry for id, if present. The store keeps the
// history; the next access rehydrates.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, id)
}
