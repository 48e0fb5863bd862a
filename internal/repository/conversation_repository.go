package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type ConversationRepository struct {
	db *pgxpool.Pool
}

var _ interfaces.ConversationStore = (*ConversationRepository)(nil)

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `id, company_id, COALESCE(visitor_id, ''), source, title, language, created_at, updated_at`

func scanConversation(row pgx.Row) (*entities.Conversation, error) {
	var c entities.Conversation
	err := row.Scan(&c.ID, &c.CompanyID, &c.VisitorID, &c.Source, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("Conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return &c, nil
}

func (r *ConversationRepository) Create(ctx context.Context, c *entities.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, company_id, visitor_id, source, title, language)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		c.ID, c.CompanyID, nullable(c.VisitorID), c.Source, c.Title, c.Language,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Get(ctx context.Context, companyID, id string) (*entities.Conversation, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("Conversation not found")
	}
	return scanConversation(r.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 AND company_id = $2`, id, companyID))
}

// GetOrCreateWidget relies on the partial unique index over (company_id, visitor_id)
// so concurrent starts for the same visitor converge on one row.
func (r *ConversationRepository) GetOrCreateWidget(ctx context.Context, c *entities.Conversation) (*entities.Conversation, bool, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	created, err := scanConversation(r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, company_id, visitor_id, source, title, language)
		VALUES ($1, $2, $3, 'widget', $4, $5)
		ON CONFLICT (company_id, visitor_id) WHERE source = 'widget' DO NOTHING
		RETURNING `+conversationColumns,
		c.ID, c.CompanyID, c.VisitorID, c.Title, c.Language))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	existing, err := scanConversation(r.db.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE company_id = $1 AND visitor_id = $2 AND source = 'widget'`,
		c.CompanyID, c.VisitorID))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *ConversationRepository) GetWidget(ctx context.Context, companyID, id, visitorID string) (*entities.Conversation, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("Conversation not found")
	}
	return scanConversation(r.db.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1 AND company_id = $2 AND visitor_id = $3 AND source = 'widget'`,
		id, companyID, visitorID))
}

func (r *ConversationRepository) List(ctx context.Context, companyID string, page, limit int) ([]entities.ConversationSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.company_id, COALESCE(c.visitor_id, ''), c.source, c.title, c.language, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
		       lm.id, lm.role, lm.content, lm.language, lm.created_at
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, role, content, language, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.company_id = $1
		ORDER BY c.updated_at DESC
		LIMIT $2 OFFSET $3`, companyID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	list := []entities.ConversationSummary{}
	for rows.Next() {
		var (
			s         entities.ConversationSummary
			msgID     *string
			msgRole   *string
			msgBody   *string
			msgLang   *string
			msgCreate *time.Time
		)
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.VisitorID, &s.Source, &s.Title, &s.Language, &s.CreatedAt, &s.UpdatedAt,
			&s.MessageCount, &msgID, &msgRole, &msgBody, &msgLang, &msgCreate); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if msgID != nil {
			s.LastMessage = &entities.Message{
				ID:             *msgID,
				ConversationID: s.ID,
				Role:           entities.Role(*msgRole),
				Content:        *msgBody,
				Language:       entities.Language(*msgLang),
				CreatedAt:      *msgCreate,
			}
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *ConversationRepository) Delete(ctx context.Context, companyID, id string) error {
	if !validID(id) {
		return apperrors.NotFound("Conversation not found")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Conversation not found")
	}
	return nil
}

func (r *ConversationRepository) Touch(ctx context.Context, companyID, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// AddMessage only inserts when the conversation belongs to companyID.
func (r *ConversationRepository) AddMessage(ctx context.Context, companyID string, m *entities.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if !validID(m.ConversationID) {
		return apperrors.NotFound("Conversation not found")
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, language)
		SELECT $1, c.id, $3, $4, $5
		FROM conversations c
		WHERE c.id = $2 AND c.company_id = $6
		RETURNING created_at`,
		m.ID, m.ConversationID, m.Role, m.Content, m.Language, companyID,
	).Scan(&m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("Conversation not found")
	}
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

func (r *ConversationRepository) RecentMessages(ctx context.Context, companyID, conversationID string, limit int) ([]entities.Message, error) {
	if !validID(conversationID) {
		return []entities.Message{}, nil
	}
	return r.queryMessages(ctx, `
		SELECT m.id, m.conversation_id, m.role, m.content, m.language, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.conversation_id = $1 AND c.company_id = $2
		ORDER BY m.created_at DESC
		LIMIT $3`, conversationID, companyID, limit)
}

func (r *ConversationRepository) Messages(ctx context.Context, companyID, conversationID string, page, limit int) ([]entities.Message, error) {
	if !validID(conversationID) {
		return []entities.Message{}, nil
	}
	return r.queryMessages(ctx, `
		SELECT m.id, m.conversation_id, m.role, m.content, m.language, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.conversation_id = $1 AND c.company_id = $2
		ORDER BY m.created_at ASC
		LIMIT $3 OFFSET $4`, conversationID, companyID, limit, (page-1)*limit)
}

func (r *ConversationRepository) queryMessages(ctx context.Context, query string, args ...any) ([]entities.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []entities.Message{}
	for rows.Next() {
		var m entities.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Language, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
