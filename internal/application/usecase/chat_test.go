package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/domain/entity"
	"github.com/gemweb/gemweb/internal/domain/repository"
	"github.com/gemweb/gemweb/internal/domain/service"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

type fakeStore struct {
	sessions map[string]*entity.Session
	messages map[string][]*entity.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*entity.Session),
		messages: make(map[string][]*entity.Message),
	}
}

func (f *fakeStore) CreateSession(ctx context.Context, id, title, modelName string) error {
	if _, ok := f.sessions[id]; ok {
		return domainErrors.NewAlreadyExistsError("exists")
	}
	if title == "" {
		title = entity.DefaultTitle
	}
	f.sessions[id] = &entity.Session{ID: id, Title: title, ModelName: modelName}
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, domainErrors.NewNotFoundError("session not found")
	}
	return s, nil
}

func (f *fakeStore) ListSessions(ctx context.Context, limit int) ([]*entity.Session, error) {
	return nil, nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, sessionID string, sender entity.Role, content, formatted string) error {
	if _, ok := f.sessions[sessionID]; !ok {
		return domainErrors.NewNotFoundError("session not found")
	}
	f.messages[sessionID] = append(f.messages[sessionID], &entity.Message{
		SessionID:        sessionID,
		Sender:           sender,
		Content:          content,
		FormattedContent: formatted,
	})
	return nil
}

func (f *fakeStore) GetMessages(ctx context.Context, sessionID string) ([]*entity.Message, error) {
	return f.messages[sessionID], nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	delete(f.messages, id)
	return nil
}

func (f *fakeStore) SearchMessages(ctx context.Context, query string, limit int) ([]*repository.SearchResult, error) {
	return nil, nil
}

func (f *fakeStore) ExportSession(ctx context.Context, id string, format repository.ExportFormat) (string, error) {
	return "", nil
}

type fakeLLM struct {
	reply string
	err   error
	calls int
	turns []entity.Turn
}

func (f *fakeLLM) Generate(ctx context.Context, model string, turns []entity.Turn) (string, error) {
	f.calls++
	f.turns = append([]entity.Turn(nil), turns...)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeFormatter struct{}

func (fakeFormatter) Format(text string) (string, error) {
	return "<p>" + text + "</p>", nil
}

func newTestChat(store repository.ChatRepository, llm LLMClient) *ChatUseCase {
	registry := service.NewSessionRegistry(store, "gemini-2.5-pro", zap.NewNop())
	return NewChatUseCase(store, registry, llm, fakeFormatter{}, zap.NewNop())
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("empty message is rejected", func(t *testing.T) {
		uc := newTestChat(newFakeStore(), &fakeLLM{reply: "hi"})
		_, err := uc.Send(ctx, "s1", "")
		if !domainErrors.IsCode(err, domainErrors.CodeInvalidInput) {
			t.Errorf("expected InvalidInput, got %v", err)
		}
	})

	t.Run("empty session id gets a server-assigned one", func(t *testing.T) {
		uc := newTestChat(newFakeStore(), &fakeLLM{reply: "hi"})
		result, err := uc.Send(ctx, "", "hello")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if result.SessionID == "" {
			t.Error("expected a generated session id")
		}
	})

	t.Run("persists both turns and formats the reply", func(t *testing.T) {
		store := newFakeStore()
		llm := &fakeLLM{reply: "Hello there"}
		uc := newTestChat(store, llm)

		result, err := uc.Send(ctx, "s1", "Hi")
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if result.RawResponse != "Hello there" {
			t.Errorf("unexpected raw response: %s", result.RawResponse)
		}
		if result.Response != "<p>Hello there</p>" {
			t.Errorf("unexpected formatted response: %s", result.Response)
		}

		messages, _ := store.GetMessages(ctx, "s1")
		if len(messages) != 2 {
			t.Fatalf("expected 2 persisted messages, got %d", len(messages))
		}
		if messages[0].Sender != entity.RoleUser || messages[0].Content != "Hi" {
			t.Errorf("first message wrong: %+v", messages[0])
		}
		if messages[1].Sender != entity.RoleAssistant || messages[1].FormattedContent == "" {
			t.Errorf("assistant message missing formatted content: %+v", messages[1])
		}
	})

	t.Run("provider sees the full history", func(t *testing.T) {
		store := newFakeStore()
		llm := &fakeLLM{reply: "ok"}
		uc := newTestChat(store, llm)

		uc.Send(ctx, "s1", "first")
		uc.Send(ctx, "s1", "second")

		// history: user, model, user
		if len(llm.turns) != 3 {
			t.Fatalf("expected 3 turns on second call, got %d", len(llm.turns))
		}
		if llm.turns[1].Role != entity.TurnModel || llm.turns[1].Text != "ok" {
			t.Errorf("model turn not in history: %+v", llm.turns[1])
		}
	})

	t.Run("provider failure leaves the user turn persisted", func(t *testing.T) {
		store := newFakeStore()
		llm := &fakeLLM{err: errors.New("rate limited")}
		uc := newTestChat(store, llm)

		_, err := uc.Send(ctx, "s1", "Hi")
		if !domainErrors.IsCode(err, domainErrors.CodeUpstream) {
			t.Fatalf("expected UpstreamError, got %v", err)
		}

		messages, _ := store.GetMessages(ctx, "s1")
		if len(messages) != 1 {
			t.Fatalf("expected the orphaned user turn, got %d messages", len(messages))
		}
		if messages[0].Sender != entity.RoleUser {
			t.Errorf("unexpected sender: %s", messages[0].Sender)
		}
	})
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	llm := &fakeLLM{reply: "ok"}
	registry := service.NewSessionRegistry(store, "m", zap.NewNop())
	uc := NewChatUseCase(store, registry, llm, fakeFormatter{}, zap.NewNop())

	uc.Send(ctx, "s1", "hello")
	if err := uc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, err := store.GetSession(ctx, "s1"); !domainErrors.IsCode(err, domainErrors.CodeNotFound) {
		t.Errorf("session still in store after clear: %v", err)
	}

	// Next turn starts a fresh context and recreates the session.
	conv, err := registry.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate after clear failed: %v", err)
	}
	if len(conv.Turns) != 0 {
		t.Errorf("expected fresh context, got %d turns", len(conv.Turns))
	}

	t.Run("empty session id is a no-op", func(t *testing.T) {
		if err := uc.Clear(ctx, ""); err != nil {
			t.Errorf("expected no-op, got %v", err)
		}
	})
}
