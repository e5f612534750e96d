package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/lecture-notes-api/internal/session"
)

const testSecret = "test-secret"

type staticCreds bool

func (s staticCreds) Configured() bool { return bool(s) }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	token, expires, err := GenerateSessionToken("abc", testSecret, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := ParseSessionToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.SessionID)

	_, err = ParseSessionToken(token, "other-secret")
	assert.Error(t, err)
}

func TestSessionToken_Expired(t *testing.T) {
	token, _, err := GenerateSessionToken("abc", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseSessionToken(token, testSecret)
	assert.Error(t, err)
}

func newSessionRouter(t *testing.T, m *session.Manager) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.GET("/sessions/:id", SessionAuth(m, testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, GetSession(c).ID)
	})
	return r
}

func TestSessionAuth(t *testing.T) {
	m := session.NewManager(session.Options{})
	defer m.Stop()
	r := newSessionRouter(t, m)

	s, err := m.Create()
	require.NoError(t, err)
	other, err := m.Create()
	require.NoError(t, err)

	valid, _, err := GenerateSessionToken(s.ID, testSecret, time.Hour)
	require.NoError(t, err)
	orphan, _, err := GenerateSessionToken("deleted", testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"valid token", "/sessions/" + s.ID, "Bearer " + valid, http.StatusOK},
		{"missing header", "/sessions/" + s.ID, "", http.StatusUnauthorized},
		{"wrong scheme", "/sessions/" + s.ID, "Token " + valid, http.StatusUnauthorized},
		{"garbage token", "/sessions/" + s.ID, "Bearer nope", http.StatusUnauthorized},
		{"token for another session", "/sessions/" + other.ID, "Bearer " + valid, http.StatusForbidden},
		{"session gone", "/sessions/deleted", "Bearer " + orphan, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, s.ID, w.Body.String())
			}
		})
	}
}

func TestRequireCredential(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		wantStatus int
	}{
		{"configured", true, http.StatusOK},
		{"not configured", false, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", RequireCredential(staticCreds(tt.configured)), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if !tt.configured {
				assert.Contains(t, w.Body.String(), "credential_required")
			}
		})
	}
}

func TestCredentialAuth(t *testing.T) {
	owner, _, err := GenerateCredentialToken(testSecret, time.Hour)
	require.NoError(t, err)
	expired, _, err := GenerateCredentialToken(testSecret, -time.Minute)
	require.NoError(t, err)
	sessionToken, _, err := GenerateSessionToken("abc", testSecret, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.PUT("/credential", CredentialAuth(testSecret), func(c *gin.Context) {
		if IsCredentialOwner(c) {
			c.String(http.StatusOK, "owner")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no header", "", http.StatusOK, "anonymous"},
		{"owner token", "Bearer " + owner, http.StatusOK, "owner"},
		{"expired owner token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"session token", "Bearer " + sessionToken, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/credential", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestCredentialToken_NotASessionToken(t *testing.T) {
	owner, _, err := GenerateCredentialToken(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseSessionToken(owner, testSecret)
	assert.Error(t, err)
}
