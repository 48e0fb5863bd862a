package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"project_amharicAI/internal/apperrors"
	"project_amharicAI/internal/entities"
	"project_amharicAI/internal/infrastructure"
	"project_amharicAI/internal/usecases"
)

const companyKey = "company"

type Middleware struct {
	auth          *usecases.AuthUsecase
	widgets       *usecases.WidgetUsecase
	widgetLimiter *infrastructure.WindowRateLimiter
	clientURL     string
	production    bool
	logger        *zap.Logger

	rateLimiters map[string]*rate.Limiter
	mu           sync.Mutex
}

func NewMiddleware(
	auth *usecases.AuthUsecase,
	widgets *usecases.WidgetUsecase,
	widgetLimiter *infrastructure.WindowRateLimiter,
	clientURL string,
	production bool,
	logger *zap.Logger,
) *Middleware {
	return &Middleware{
		auth:          auth,
		widgets:       widgets,
		widgetLimiter: widgetLimiter,
		clientURL:     clientURL,
		production:    production,
		logger:        logger.Named("http"),
		rateLimiters:  make(map[string]*rate.Limiter),
	}
}

// currentCompany returns the tenant resolved by AuthRequired or APIKeyRequired.
func currentCompany(c *gin.Context) *entities.Company {
	v, ok := c.Get(companyKey)
	if !ok {
		return nil
	}
	company, _ := v.(*entities.Company)
	return company
}

func companyID(c *gin.Context) string {
	if company := currentCompany(c); company != nil {
		return company.ID
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// AuthRequired resolves the bearer token to an active company.
// Browsers cannot set headers on a websocket handshake, so the token
// query parameter is accepted as well when allowQuery is set.
func (m *Middleware) AuthRequired(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		company, err := m.auth.AuthenticateToken(c.Request.Context(), token)
		if err != nil {
			m.abort(c, err, "Invalid token")
			return
		}

		c.Set(companyKey, company)
		c.Next()
	}
}

// APIKeyRequired resolves the x-api-key header for the public widget API.
func (m *Middleware) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := m.auth.AuthenticateAPIKey(c.Request.Context(), c.GetHeader("x-api-key"))
		if err != nil {
			m.abort(c, err, "Invalid API key")
			return
		}

		c.Set(companyKey, company)
		c.Next()
	}
}

// WidgetAccess must follow APIKeyRequired. With requireEnabled false only the
// domain allow-list is enforced.
func (m *Middleware) WidgetAccess(requireEnabled bool) gin.HandlerFunc {
	check := m.widgets.CheckOrigin
	if requireEnabled {
		check = m.widgets.CheckAccess
	}
	return func(c *gin.Context) {
		if err := check(c.Request.Context(), companyID(c), c.GetHeader("Origin")); err != nil {
			m.abort(c, err, "Widget access denied")
			return
		}
		c.Next()
	}
}

// WidgetRateLimit allows a fixed number of requests per client address per window.
func (m *Middleware) WidgetRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		allowed, reset := m.widgetLimiter.Allow(key)

		c.Header("RateLimit-Limit", strconv.Itoa(m.widgetLimiter.Limit()))
		c.Header("RateLimit-Remaining", strconv.Itoa(m.widgetLimiter.Remaining(key)))
		c.Header("RateLimit-Reset", strconv.Itoa(int(math.Ceil(reset.Seconds()))))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}

// RateLimitPerIP is a token bucket per client address, used on the auth endpoints.
func (m *Middleware) RateLimitPerIP(r rate.Limit, b int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		m.mu.Lock()
		limiter, exists := m.rateLimiters[key]
		if !exists {
			limiter = rate.NewLimiter(r, b)
			m.rateLimiters[key] = limiter
		}
		m.mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func (m *Middleware) abort(c *gin.Context, err error, fallback string) {
	status := apperrors.Status(err)
	if status == http.StatusInternalServerError {
		m.logger.Error("Authentication failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperrors.Message(err, fallback)})
}

// allowedOrigin accepts the dashboard client and, outside production, any local dev server.
func (m *Middleware) allowedOrigin(origin string) bool {
	if origin == m.clientURL {
		return true
	}
	if !m.production {
		return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
	}
	return false
}

// CORSMiddleware allows the dashboard client to call the API with credentials.
// The widget API is open to any site; its origin checks happen in WidgetAccess.
func (m *Middleware) CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if strings.HasPrefix(c.Request.URL.Path, "/api/widget/") {
			header.Set("Access-Control-Allow-Origin", "*")
			header.Set("Access-Control-Allow-Headers", "Content-Type, x-api-key")
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		} else {
			origin := c.GetHeader("Origin")
			if origin != "" && m.allowedOrigin(origin) {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Add("Vary", "Origin")
			}
			header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept")
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			header.Set("Access-Control-Expose-Headers", "Authorization")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityHeaders adds security headers to prevent common attacks
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "SAMEORIGIN")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// widget.js is loaded from customer sites
		c.Writer.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")

		c.Next()
	}
}

// RequestSizeLimiter limits request body size to prevent DoS
func RequestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// RequestLogger writes one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := companyID(c); id != "" {
			fields = append(fields, zap.String("company_id", id))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Request completed", fields...)
			return
		}
		logger.Debug("Request completed", fields...)
	}
}
