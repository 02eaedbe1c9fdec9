package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/gemweb/gemweb/internal/domain/entity"
	"github.com/gemweb/gemweb/internal/domain/repository"
	"github.com/gemweb/gemweb/internal/infrastructure/persistence/models"
	domainErrors "github.com/gemweb/gemweb/pkg/errors"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// GormChatRepository is the gorm-backed conversation store.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates the gorm conversation store.
func NewGormChatRepository(db *gorm.DB) repository.ChatRepository {
	return &GormChatRepository{db: db}
}

// CreateSession inserts a new session row.
func (r *GormChatRepository) CreateSession(ctx context.Context, id, title, modelName string) error {
	if title == "" {
		title = entity.DefaultTitle
	}

	model := &models.SessionModel{
		ID:        id,
		Title:     title,
		ModelName: modelName,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainErrors.NewAlreadyExistsError("session already exists: " + id)
		}
		return domainErrors.NewInternalError("failed to create session: " + err.Error())
	}
	return nil
}

// GetSession returns session details.
func (r *GormChatRepository) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	var model models.SessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("session not found: " + id)
		}
		return nil, domainErrors.NewInternalError("failed to find session: " + err.Error())
	}
	return sessionToEntity(&model, 0), nil
}

// sessionRow carries the list query result including the message count.
type sessionRow struct {
	models.SessionModel
	MessageCount int64
}

// ListSessions returns sessions with message counts, most recently updated
// first.
func (r *GormChatRepository) ListSessions(ctx context.Context, limit int) ([]*entity.Session, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []sessionRow
	err := r.db.WithContext(ctx).
		Model(&models.SessionModel{}).
		Select("sessions.*, (SELECT COUNT(*) FROM messages WHERE messages.session_id = sessions.id) AS message_count").
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to list sessions: " + err.Error())
	}

	sessions := make([]*entity.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, sessionToEntity(&row.SessionModel, row.MessageCount))
	}
	return sessions, nil
}

// AppendMessage inserts a message, refreshes the session timestamp and sets
// the title from the first user message while it is still the default. The
// three statements run in one transaction so a single call stays atomic.
func (r *GormChatRepository) AppendMessage(ctx context.Context, sessionID string, sender entity.Role, content, formatted string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.SessionModel{}).Where("id = ?", sessionID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domainErrors.NewNotFoundError("session not found: " + sessionID)
		}

		msg := &models.MessageModel{
			SessionID:        sessionID,
			Sender:           string(sender),
			Content:          content,
			FormattedContent: formatted,
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.SessionModel{}).
			Where("id = ?", sessionID).
			Update("updated_at", tx.NowFunc()).Error; err != nil {
			return err
		}

		if sender == entity.RoleUser {
			if err := tx.Model(&models.SessionModel{}).
				Where("id = ? AND title = ?", sessionID, entity.DefaultTitle).
				Update("title", entity.DeriveTitle(content)).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		var appErr *domainErrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return domainErrors.NewInternalError("failed to append message: " + err.Error())
	}
	return nil
}

// GetMessages returns all messages for a session in insertion order. Unknown
// sessions yield an empty slice.
func (r *GormChatRepository) GetMessages(ctx context.Context, sessionID string) ([]*entity.Message, error) {
	var rows []models.MessageModel
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to find messages: " + err.Error())
	}

	messages := make([]*entity.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, messageToEntity(&row))
	}
	return messages, nil
}

// DeleteSession removes a session and all its messages. Deleting an absent
// session is a no-op.
func (r *GormChatRepository) DeleteSession(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MessageModel{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SessionModel{}, "id = ?", id).Error
	})
	if err != nil {
		return domainErrors.NewInternalError("failed to delete session: " + err.Error())
	}
	return nil
}

// SearchMessages searches message content across all sessions, most recent
// first. Matching is a case-insensitive substring (lower() on both sides, so
// behavior is identical on sqlite and postgres).
func (r *GormChatRepository) SearchMessages(ctx context.Context, query string, limit int) ([]*repository.SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	type searchRow struct {
		SessionID    string
		SessionTitle string
		Sender       string
		Content      string
		CreatedAt    time.Time
	}

	var rows []searchRow
	err := r.db.WithContext(ctx).
		Table("messages").
		Select("messages.session_id, sessions.title AS session_title, messages.sender, messages.content, messages.created_at").
		Joins("JOIN sessions ON sessions.id = messages.session_id").
		Where("LOWER(messages.content) LIKE ?", "%"+strings.ToLower(query)+"%").
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, domainErrors.NewInternalError("failed to search messages: " + err.Error())
	}

	results := make([]*repository.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, &repository.SearchResult{
			SessionID:    row.SessionID,
			SessionTitle: row.SessionTitle,
			Sender:       entity.Role(row.Sender),
			Content:      row.Content,
			Timestamp:    row.CreatedAt,
		})
	}
	return results, nil
}

// ExportSession renders a session's full history as json or txt. The format
// is validated before any I/O.
func (r *GormChatRepository) ExportSession(ctx context.Context, id string, format repository.ExportFormat) (string, error) {
	switch format {
	case repository.ExportJSON, repository.ExportTXT:
	default:
		return "", domainErrors.NewUnsupportedFormatError("unsupported export format: " + string(format))
	}

	session, err := r.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	messages, err := r.GetMessages(ctx, id)
	if err != nil {
		return "", err
	}

	if format == repository.ExportJSON {
		doc := struct {
			Session  *entity.Session   `json:"session"`
			Messages []*entity.Message `json:"messages"`
		}{Session: session, Messages: messages}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", domainErrors.NewInternalError("failed to encode export: " + err.Error())
		}
		return string(data), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chat Session: %s\n", session.Title)
	fmt.Fprintf(&b, "Created: %s\n", session.CreatedAt.Format(exportTimeLayout))
	fmt.Fprintf(&b, "Model: %s\n", session.ModelName)
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, msg := range messages {
		fmt.Fprintf(&b, "%s [%s]:\n", strings.ToUpper(string(msg.Sender)), msg.Timestamp.Format(exportTimeLayout))
		fmt.Fprintf(&b, "%s\n\n", msg.Content)
	}
	return b.String(), nil
}

func sessionToEntity(model *models.SessionModel, messageCount int64) *entity.Session {
	return &entity.Session{
		ID:           model.ID,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		Title:        model.Title,
		ModelName:    model.ModelName,
		MessageCount: messageCount,
	}
}

func messageToEntity(model *models.MessageModel) *entity.Message {
	return &entity.Message{
		ID:               model.ID,
		SessionID:        model.SessionID,
		Sender:           entity.Role(model.Sender),
		Content:          model.Content,
		FormattedContent: model.FormattedContent,
		Timestamp:        model.CreatedAt,
	}
}
