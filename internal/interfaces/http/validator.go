package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"project_amharicAI/internal/entities"
)

// Input validation constants
const (
	MaxTitleLength     = 256
	MaxVisitorIDLength = 128

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

var (
	visitorIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)
	registerOnce     sync.Once
)

// RegisterValidators adds the custom binding tags used by the request schemas.
func RegisterValidators() {
	registerOnce.Do(registerValidators)
}

func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return entities.Language(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("visitorid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= MaxVisitorIDLength && visitorIDPattern.MatchString(s)
	})
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString cuts s to at most maxLen runes.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// bindError turns a binding failure into a client message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "max":
			return fmt.Sprintf("%s is too long", fe.Field())
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		}
		return "Invalid " + fe.Field()
	}
	return "Invalid request"
}

// bindJSON binds the request body into req and answers 400 on failure.
// An empty body leaves req at its zero value.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindError(err)})
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// pageParams reads page and limit with the list defaults. limit is capped.
func pageParams(c *gin.Context, defLimit int) (page, limit int) {
	page = queryInt(c, "page", defaultPage)
	limit = min(queryInt(c, "limit", defLimit), maxLimit)
	return page, limit
}
