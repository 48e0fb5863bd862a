package infrastructure

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeDOCX(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Refunds take 5 days. ሰላም"), 0o644))

	e := NewFileTextExtractor(zap.NewNop())
	assert.Equal(t, "Refunds take 5 days. ሰላም", e.Extract(path, MimeText))
}

func TestExtractDOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.docx")
	writeDOCX(t, path, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Shipping</w:t></w:r><w:r><w:t xml:space="preserve"> policy</w:t></w:r></w:p>
    <w:p><w:r><w:t>Ships in 2 days</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	e := NewFileTextExtractor(zap.NewNop())
	assert.Equal(t, "Shipping policy\nShips in 2 days", e.Extract(path, MimeDOCX))
}

func TestExtractUnsupportedOrBroken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.rtf")
	require.NoError(t, os.WriteFile(path, []byte(`{\rtf1 hello}`), 0o644))

	e := NewFileTextExtractor(zap.NewNop())
	assert.Equal(t, "", e.Extract(path, "application/rtf"))
	assert.Equal(t, "", e.Extract(path, MimePDF), "not a pdf")
	assert.Equal(t, "", e.Extract(path, MimeDOCX), "not a zip")
	assert.Equal(t, "", e.Extract(filepath.Join(dir, "missing.txt"), MimeText))
}
