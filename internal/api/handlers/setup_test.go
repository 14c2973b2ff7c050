package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"dwellhub/backend/internal/api/middleware"
	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:              "test",
		JwtAccessSecret:  "test-access-secret",
		JwtRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   24 * time.Hour,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		ClientURL:        "http://localhost:5173",
		ImageMaxSizeMB:   5,
		ImageMaxBatch:    5,
	}
}

// asUser injects an authenticated user the way AuthMiddleware would, so
// handler tests exercise the handler alone.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUser, user)
		c.Next()
	}
}

func testUser(role models.Role) *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func performJSON(r *gin.Engine, method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
