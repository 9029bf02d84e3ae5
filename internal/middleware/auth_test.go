package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func testUser() *models.User {
	u := &models.User{Email: "ann@example.com", Password: "$2a$10$hash", IsStaff: false}
	u.ID = "0192f0a0-0000-7000-8000-000000000001"
	return u
}

func protectedRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextUserID)})
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	user := testUser()

	t.Run("valid_access_token", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		require.NoError(t, err)

		w := doGet(protectedRouter(), "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.ID)
	})

	t.Run("missing_header", func(t *testing.T) {
		w := doGet(protectedRouter(), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed_header", func(t *testing.T) {
		w := doGet(protectedRouter(), "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh_token_rejected", func(t *testing.T) {
		token, err := GenerateRefreshToken(user)
		require.NoError(t, err)

		w := doGet(protectedRouter(), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("reset_token_rejected", func(t *testing.T) {
		token, err := GenerateResetToken(user, time.Minute)
		require.NoError(t, err)

		w := doGet(protectedRouter(), "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireStaff(t *testing.T) {
	user := testUser()
	token, err := GenerateAccessToken(user)
	require.NoError(t, err)

	w := doGet(protectedRouter(RequireStaff()), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	user.IsStaff = true
	token, err = GenerateAccessToken(user)
	require.NoError(t, err)

	w = doGet(protectedRouter(RequireStaff()), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateRefreshToken(t *testing.T) {
	user := testUser()

	refresh, err := GenerateRefreshToken(user)
	require.NoError(t, err)
	claims, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	access, err := GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)

	_, err = ValidateRefreshToken("not-a-jwt")
	assert.Error(t, err)
}

func TestValidateResetToken(t *testing.T) {
	user := testUser()

	t.Run("valid", func(t *testing.T) {
		token, err := GenerateResetToken(user, time.Minute)
		require.NoError(t, err)

		claims, err := ValidateResetToken(token, "ANN@example.com")
		require.NoError(t, err)
		assert.Equal(t, PasswordFingerprint(user.Password), claims.Fingerprint)
	})

	t.Run("other_email", func(t *testing.T) {
		token, err := GenerateResetToken(user, time.Minute)
		require.NoError(t, err)

		_, err = ValidateResetToken(token, "bob@example.com")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateResetToken(user, -time.Minute)
		require.NoError(t, err)

		_, err = ValidateResetToken(token, user.Email)
		assert.Error(t, err)
	})

	t.Run("access_token", func(t *testing.T) {
		token, err := GenerateAccessToken(user)
		require.NoError(t, err)

		_, err = ValidateResetToken(token, user.Email)
		assert.Error(t, err)
	})
}

func TestPasswordFingerprintChangesWithHash(t *testing.T) {
	assert.NotEqual(t, PasswordFingerprint("hash-a"), PasswordFingerprint("hash-b"))
	assert.Len(t, PasswordFingerprint("hash-a"), 16)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.WithFields(map[string][]string{"email": {"This field is required."}}))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
	})

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error struct {
			Code   string              `json:"code"`
			Fields map[string][]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Equal(t, []string{"This field is required."}, body.Error.Fields["email"])

	req = httptest.NewRequest(http.MethodGet, "/boom", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db exploded")
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	incoming := "0192f0a0-0000-7000-8000-0000000000aa"
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, incoming, w.Header().Get("X-Request-ID"))
}
