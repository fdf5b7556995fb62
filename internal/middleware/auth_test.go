package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residence/internal/pkg/jwt"
)

func setupAuthRouter(t *testing.T, tokens *jwt.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", Auth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id")})
	})
	return r
}

func doRequest(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := jwt.New("test-secret", time.Hour)
	r := setupAuthRouter(t, tokens)

	token, err := tokens.GenerateToken(42)
	require.NoError(t, err)

	rr := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"user_id":42`)
}

func TestAuth_MissingHeader(t *testing.T) {
	r := setupAuthRouter(t, jwt.New("test-secret", time.Hour))

	rr := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	tokens := jwt.New("test-secret", time.Hour)
	r := setupAuthRouter(t, tokens)

	token, err := tokens.GenerateToken(42)
	require.NoError(t, err)

	for _, header := range []string{"Basic abc", token, "Bearer"} {
		rr := doRequest(r, header)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	r := setupAuthRouter(t, jwt.New("right-secret", time.Hour))

	foreign, err := jwt.New("wrong-secret", time.Hour).GenerateToken(42)
	require.NoError(t, err)

	rr := doRequest(r, "Bearer "+foreign)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	tokens := jwt.New("test-secret", -time.Minute)
	r := setupAuthRouter(t, jwt.New("test-secret", time.Hour))

	expired, err := tokens.GenerateToken(42)
	require.NoError(t, err)

	rr := doRequest(r, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
