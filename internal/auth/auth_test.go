package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewJWTManager("secret")

	token, err := m.Issue("owner-1", time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.UserID())

	_, err = NewJWTManager("other").Verify(token)
	assert.Error(t, err)

	expired, err := NewJWTManager("secret").Issue("owner-1", -time.Minute)
	require.NoError(t, err)
	_, err = m.Verify(expired)
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret")

	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	token, err := m.Issue("owner-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "owner-1"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "owner-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
