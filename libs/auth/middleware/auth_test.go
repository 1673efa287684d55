package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hunterianlab/modules-platform/libs/auth/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	tg := service.NewTokenGenerator("middleware-test-secret", time.Hour)

	adminToken, err := tg.GenerateAccessToken("ana@example.org", 1)
	require.NoError(t, err)
	lowRoleToken, err := tg.GenerateAccessToken("guest@example.org", 0)
	require.NoError(t, err)

	tests := []struct {
		name            string
		setupRequest    func(r *http.Request)
		expectedStatus  int
		expectedAdminID string
	}{
		{
			name: "bearer header",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+adminToken)
			},
			expectedStatus:  http.StatusOK,
			expectedAdminID: "ana@example.org",
		},
		{
			name: "cookie",
			setupRequest: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken})
			},
			expectedStatus:  http.StatusOK,
			expectedAdminID: "ana@example.org",
		},
		{
			name:           "missing token",
			setupRequest:   func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "malformed header",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Token "+adminToken)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "invalid token",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer not-a-token")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "insufficient role",
			setupRequest: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+lowRoleToken)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAdminID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAdminID, _ = GetAdminID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/modules", nil)
			tt.setupRequest(req)
			w := httptest.NewRecorder()

			AuthMiddleware(tg, 1)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedAdminID, gotAdminID)
		})
	}
}
