package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gemweb/gemweb/internal/domain/entity"
	"github.com/gemweb/gemweb/internal/domain/repository"
	"github.com/gemweb/gemweb/internal/domain/service"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

// LLMClient generates a reply from the full turn history.
type LLMClient interface {
	Generate(ctx context.Context, model string, turns []entity.Turn) (string, error)
}

// Formatter renders raw model output into sanitized HTML.
type Formatter interface {
	Format(text string) (string, error)
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Response    string `json:"response"`
	RawResponse string `json:"raw_response"`
	SessionID   string `json:"session_id"`
}

// ChatUseCase orchestrates one chat turn: resolve the live conversation,
// persist the user message, call the provider with the full history, format
// the reply and persist it.
type ChatUseCase struct {
	store     repository.ChatRepository
	registry  *service.SessionRegistry
	llm       LLMClient
	formatter Formatter
	logger    *zap.Logger
}

// NewChatUseCase wires the chat turn orchestration.
func NewChatUseCase(
	store repository.ChatRepository,
	registry *service.SessionRegistry,
	llm LLMClient,
	formatter Formatter,
	logger *zap.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		store:     store,
		registry:  registry,
		llm:       llm,
		formatter: formatter,
		logger:    logger,
	}
}

// Send handles one user message. An empty session id gets a server-assigned
// UUID, returned to the client for subsequent turns.
func (uc *ChatUseCase) Send(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	if message == "" {
		return nil, domainErrors.NewInvalidInputError("no message provided")
	}
	if !entity.ValidSessionID(sessionID) {
		sessionID = uuid.New().String()
	}

	conv, err := uc.registry.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The user message is durable before the provider call. A provider
	// failure leaves an orphaned user turn with no reply, recoverable by
	// retry.
	if err := uc.store.AppendMessage(ctx, sessionID, entity.RoleUser, message, ""); err != nil {
		return nil, err
	}
	conv.Append(entity.TurnUser, message)

	reply, err := uc.llm.Generate(ctx, conv.ModelName, conv.Turns)
	if err != nil {
		uc.logger.Error("Provider call failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, domainErrors.NewUpstreamError("model call failed", err)
	}
	conv.Append(entity.TurnModel, reply)

	formatted, err := uc.formatter.Format(reply)
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to format response: " + err.Error())
	}

	if err := uc.store.AppendMessage(ctx, sessionID, entity.RoleAssistant, reply, formatted); err != nil {
		return nil, err
	}

	return &ChatResult{
		Response:    formatted,
		RawResponse: reply,
		SessionID:   sessionID,
	}, nil
}

// Clear deletes the session's stored history and drops its live context.
// Clearing an unknown or empty session id is a no-op.
func (uc *ChatUseCase) Clear(ctx context.Context, sessionID string) error {
	if !entity.ValidSessionID(sessionID) {
		return nil
	}
	if err := uc.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	uc.registry.Remove(sessionID)
	return nil
}
