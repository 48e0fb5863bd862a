package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"amharic greeting", "ሰላም ነው?", LanguageAmharic},
		{"english", "Hello, how are you?", LanguageEnglish},
		{"mixed", "Hello ሰላም", LanguageAmharic},
		{"empty", "", LanguageEnglish},
		{"block start", "\u1200", LanguageAmharic},
		{"block end", "x\u137F", LanguageAmharic},
		{"just outside block", "\u1380", LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestResolveLanguage(t *testing.T) {
	assert.Equal(t, LanguageAmharic, ResolveLanguage("am", "plain english"))
	assert.Equal(t, LanguageEnglish, ResolveLanguage("en", "ሰላም"))
	assert.Equal(t, LanguageAmharic, ResolveLanguage("", "ሰላም"))
	assert.Equal(t, LanguageEnglish, ResolveLanguage("auto", "hi"))
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 0, Pages: 0}, NewPagination(1, 10, 0))
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 21, Pages: 3}, NewPagination(2, 10, 21))
	assert.Equal(t, 10, DocumentFilter{Page: 2, Limit: 10}.Offset())
}
