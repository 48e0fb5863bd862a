package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
)

func TestUpload_RejectsBeforeWriting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name string
		in   UploadInput
		want string
	}{
		{"no file", UploadInput{CompanyID: "c1", OriginalName: "a.txt"}, "No file uploaded"},
		{"bad extension", uploadOf("c1", "photo.png", "image/png", "png"), "Only PDF, DOC, DOCX, TXT, and RTF files are allowed"},
		{"extension ok but type is not", uploadOf("c1", "notes.txt", "image/png", "png"), "Only PDF, DOC, DOCX, TXT, and RTF files are allowed"},
		{"too large", uploadOf("c1", "big.txt", "text/plain", strings.Repeat("a", 2048)), "File too large. Maximum size is 1024 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.documents.Upload(ctx, tt.in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.want, apperrors.Message(err, ""))
		})
	}
	assert.Zero(t, env.files.count())
	assert.Empty(t, env.events.events)
}

func TestUpload_StoresAndDetectsLanguage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	doc, err := env.documents.Upload(ctx, uploadOf("c1", "Guide.TXT", "text/plain; charset=utf-8", "የኩባንያ መመሪያ"))
	require.NoError(t, err)
	assert.Equal(t, entities.LanguageAmharic, doc.Language)
	assert.Equal(t, "text/plain", doc.MimeType)
	assert.Equal(t, "Guide.TXT", doc.OriginalName)
	assert.True(t, strings.HasPrefix(doc.Filename, "document-"))
	assert.True(t, strings.HasSuffix(doc.Filename, ".txt"))
	assert.Equal(t, 1, env.files.count())

	published := env.events.ofType(entities.EventDocumentUploaded)
	require.Len(t, published, 1)
	payload := published[0].Data.(entities.DocumentUploadedPayload)
	assert.Equal(t, doc.ID, payload.ID)
	assert.Equal(t, "c1", published[0].CompanyID)

	explicit := uploadOf("c1", "manual.txt", "text/plain", "English words")
	explicit.Language = "auto"
	doc, err = env.documents.Upload(ctx, explicit)
	require.NoError(t, err)
	assert.Equal(t, entities.LanguageAuto, doc.Language)
}

func TestUpload_SniffsGenericType(t *testing.T) {
	env := newTestEnv()

	doc, err := env.documents.Upload(context.Background(), uploadOf("c1", "notes.txt", "application/octet-stream", "plain words here"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", doc.MimeType)
	assert.Equal(t, "plain words here", env.files.content(doc.Filename), "reader rewound after sniffing")
}

func TestUpload_RemovesFileWhenRecordFails(t *testing.T) {
	env := newTestEnv()
	uc := NewDocumentUsecase(failingDocumentStore{}, env.files, plainExtractor{env.files}, env.events, 1024, zap.NewNop())

	_, err := uc.Upload(context.Background(), uploadOf("c1", "a.txt", "text/plain", "hello"))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, env.files.count())
	assert.Empty(t, env.events.events)
}

func TestDocuments_ListAndDeleteAreTenantScoped(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	mine, err := env.documents.Upload(ctx, uploadOf("c1", "mine.txt", "text/plain", "alpha"))
	require.NoError(t, err)
	theirs, err := env.documents.Upload(ctx, uploadOf("c2", "theirs.txt", "text/plain", "alpha"))
	require.NoError(t, err)

	docs, page, err := env.documents.List(ctx, "c1", entities.DocumentFilter{Search: "ALPHA", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, mine.ID, docs[0].ID)
	assert.Equal(t, entities.Pagination{Page: 1, Limit: 10, Total: 1, Pages: 1}, page)

	_, err = env.documents.Get(ctx, "c1", theirs.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, env.documents.Delete(ctx, "c1", theirs.ID), apperrors.ErrNotFound)

	require.NoError(t, env.documents.Delete(ctx, "c1", mine.ID))
	assert.Equal(t, 1, env.files.count())
	deleted := env.events.ofType(entities.EventDocumentDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, entities.DocumentDeletedPayload{ID: mine.ID}, deleted[0].Data)
}
