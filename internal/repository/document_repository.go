package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/interfaces"
)

type DocumentRepository struct {
	db *pgxpool.Pool
}

var _ interfaces.DocumentStore = (*DocumentRepository)(nil)

func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, company_id, filename, original_name, file_type, file_size, content, language, created_at, updated_at`

func scanDocument(row pgx.Row) (*entities.Document, error) {
	var d entities.Document
	err := row.Scan(&d.ID, &d.CompanyID, &d.Filename, &d.OriginalName, &d.MimeType, &d.FileSize,
		&d.Content, &d.Language, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]entities.Document, error) {
	defer rows.Close()
	docs := []entities.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Create(ctx context.Context, d *entities.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO documents (id, company_id, filename, original_name, file_type, file_size, content, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		d.ID, d.CompanyID, d.Filename, d.OriginalName, d.MimeType, d.FileSize, d.Content, d.Language,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, companyID, id string) (*entities.Document, error) {
	if !validID(id) {
		return nil, apperrors.NotFound("Document not found")
	}
	d, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND company_id = $2`, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("Document not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// List returns one page of documents without their content, newest first.
func (r *DocumentRepository) List(ctx context.Context, companyID string, f entities.DocumentFilter) ([]entities.Document, int, error) {
	where := []string{"company_id = $1"}
	args := []any{companyID}

	if f.Search != "" {
		args = append(args, containsPattern(f.Search))
		n := len(args)
		where = append(where, fmt.Sprintf("(original_name ILIKE $%d OR content ILIKE $%d)", n, n))
	}
	if f.Language != "" && f.Language != "all" {
		args = append(args, f.Language)
		where = append(where, fmt.Sprintf("language = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT id, company_id, filename, original_name, file_type, file_size, '' AS content, language, created_at, updated_at
		FROM documents
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, companyID, id string) error {
	if !validID(id) {
		return apperrors.NotFound("Document not found")
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Document not found")
	}
	return nil
}

func (r *DocumentRepository) ForLanguage(ctx context.Context, companyID string, lang entities.Language, limit int) ([]entities.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE company_id = $1 AND language IN ($2, 'auto')
		ORDER BY created_at DESC
		LIMIT $3`, companyID, lang, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query context documents: %w", err)
	}
	return collectDocuments(rows)
}

func (r *DocumentRepository) All(ctx context.Context, companyID string, limit int) ([]entities.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE company_id = $1 ORDER BY created_at DESC`
	args := []any{companyID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return collectDocuments(rows)
}
