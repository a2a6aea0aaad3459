package internal

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel/trace"

	"fieldbook/internal/apperr"
	"fieldbook/internal/domain"
)

const (
	cookieName = "fieldbook_token"

	ctxUserID    = "uid"
	ctxRole      = "role"
	ctxProfileID = "pid"
)

type claims struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	ProfileID string `json:"pid"`
	jwt.RegisteredClaims
}

// bearerToken reads the Authorization header, falling back to the cookie
// set by Login.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	tok, _ := c.Cookie(cookieName)
	return tok
}

func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			fail(c, apperr.New(apperr.InvalidToken))
			c.Abort()
			return
		}

		tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now() }))
		if err != nil || !tok.Valid {
			fail(c, apperr.Wrap(apperr.InvalidToken, err))
			c.Abort()
			return
		}

		cl, ok := tok.Claims.(*claims)
		if !ok || cl.UserID == "" || !domain.Role(cl.Role).Valid() {
			fail(c, apperr.New(apperr.InvalidToken))
			c.Abort()
			return
		}

		c.Set(ctxUserID, cl.UserID)
		c.Set(ctxRole, cl.Role)
		c.Set(ctxProfileID, cl.ProfileID)
		c.Next()
	}
}

// RequireRole lets only users of role through.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if domain.Role(c.GetString(ctxRole)) != role {
			fail(c, apperr.New(apperr.Forbidden))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Errors renders the last error attached to the request as the fixed
// status/message pair of its kind.
func Errors(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		kind := apperr.KindOf(err)
		if kind == apperr.Internal {
			logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		} else {
			logger.Debug("request rejected", "kind", kind, "error", err)
		}
		if c.Writer.Written() {
			return
		}
		c.JSON(kind.Status(), gin.H{"error": kind.Message(), "kind": kind})
	}
}

// RequestLogger emits one line per request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}
		logger.Info("request", attrs...)
	}
}

func uid(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// profileID is the caller's player or field id, depending on its role.
func profileID(c *gin.Context) string {
	return c.GetString(ctxProfileID)
}
