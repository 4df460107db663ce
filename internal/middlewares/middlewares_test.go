package middlewares

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject, ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func setupAuthRouter(required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthenticator(testSecret, zerolog.Nop())
	r := gin.New()
	mw := auth.OptionalUser()
	if required {
		mw = auth.RequireUser()
	}
	r.GET("/me", mw, func(c *gin.Context) {
		userID, _ := UserIDFromContext(c)
		c.String(http.StatusOK, userID)
	})
	return r
}

func doGet(r *gin.Engine, target, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireUser(t *testing.T) {
	r := setupAuthRouter(true)
	valid := signToken(t, testSecret, "user-1", time.Now().Add(time.Hour))

	w := doGet(r, "/me", "Bearer "+valid)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "user-1", w.Body.String())

	// 普通接口不接受 query 里的 token
	w = doGet(r, "/me?access_token="+valid, "")
	assert.Equal(t, 401, w.Code)

	rejected := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"bad secret":   "Bearer " + signToken(t, "other", "user-1", time.Now().Add(time.Hour)),
		"expired":      "Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(-time.Hour)),
		"no subject":   "Bearer " + signToken(t, testSecret, "", time.Now().Add(time.Hour)),
		"garbage":      "Bearer not-a-jwt",
		"empty bearer": "Bearer ",
	}
	for name, header := range rejected {
		w := doGet(r, "/me", header)
		assert.Equal(t, 401, w.Code, name)
		assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String(), name)
	}
}

func TestRequireWebsocketUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuthenticator(testSecret, zerolog.Nop())
	r := gin.New()
	r.GET("/ws", auth.RequireWebsocketUser(), func(c *gin.Context) {
		userID, _ := UserIDFromContext(c)
		c.String(http.StatusOK, userID)
	})
	valid := signToken(t, testSecret, "user-3", time.Now().Add(time.Hour))

	w := doGet(r, "/ws?access_token="+valid, "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "user-3", w.Body.String())

	w = doGet(r, "/ws", "Bearer "+valid)
	assert.Equal(t, 200, w.Code)

	w = doGet(r, "/ws?access_token=not-a-jwt", "")
	assert.Equal(t, 401, w.Code)
}

func TestOptionalUser(t *testing.T) {
	r := setupAuthRouter(false)

	w := doGet(r, "/me", "")
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Body.String())

	w = doGet(r, "/me", "Bearer not-a-jwt")
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Body.String())

	valid := signToken(t, testSecret, "user-2", time.Now().Add(time.Hour))
	w = doGet(r, "/me?access_token="+valid, "")
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Body.String())

	w = doGet(r, "/me", "Bearer "+signToken(t, testSecret, "user-2", time.Now().Add(time.Hour)))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "user-2", w.Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	w := doGet(r, "/id", "")
	generated := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/id", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), LoggingMiddleware(zerolog.New(&buf)), MetricsMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})

	req, _ := http.NewRequest("GET", "/boom?x=1", nil)
	req.Header.Set(requestIDHeader, "req-9")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.True(t, strings.Contains(line, `"level":"error"`), line)
	assert.Contains(t, line, `"request_id":"req-9"`)
	assert.Contains(t, line, `"status":500`)
	assert.Contains(t, line, `"query":"x=1"`)
}

// 测试访问日志不记录 query 里的 token
func TestLoggingMiddlewareRedactsAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	auth := NewAuthenticator(testSecret, zerolog.Nop())
	r := gin.New()
	r.Use(LoggingMiddleware(zerolog.New(&buf)))
	r.GET("/ws", auth.RequireWebsocketUser(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	token := signToken(t, testSecret, "user-4", time.Now().Add(time.Hour))

	w := doGet(r, "/ws?date=2024-05-01&access_token="+token, "")
	require.Equal(t, 200, w.Code)

	line := buf.String()
	assert.NotContains(t, line, token)
	assert.Contains(t, line, "access_token=")
	assert.Contains(t, line, "date=2024-05-01")
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "", redactQuery(""))
	assert.Equal(t, "limit=2&since=2024-05-01", redactQuery("limit=2&since=2024-05-01"))
	assert.Equal(t, "access_token=%2A%2A%2A&x=1", redactQuery("x=1&access_token=secret"))
	assert.Equal(t, "[unparsable]", redactQuery("a=%zz"))
}
