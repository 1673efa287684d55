package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/hunterianlab/modules-platform/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockTokenIssuer is a mock implementation of TokenIssuer
type mockTokenIssuer struct {
	err     error
	adminID string
	role    int
}

func (m *mockTokenIssuer) GenerateAccessToken(adminID string, role int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.adminID = adminID
	m.role = role
	return "token-for-" + adminID, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoadAdmins(t *testing.T) {
	hash := hashPassword(t, "secret")

	tests := []struct {
		name          string
		input         string
		expectedError bool
		expectedIDs   []string
	}{
		{
			name:        "success",
			input:       "admin_id,password_hash\nAna@Example.org," + hash + "\n bo@example.org , " + hash + "\n",
			expectedIDs: []string{"ana@example.org", "bo@example.org"},
		},
		{
			name:        "header only",
			input:       "admin_id,password_hash\n",
			expectedIDs: []string{},
		},
		{
			name:          "empty file",
			input:         "",
			expectedError: true,
		},
		{
			name:          "wrong header",
			input:         "email,password\nana@example.org," + hash + "\n",
			expectedError: true,
		},
		{
			name:          "missing column",
			input:         "admin_id,password_hash\nana@example.org\n",
			expectedError: true,
		},
		{
			name:          "plain text password",
			input:         "admin_id,password_hash\nana@example.org,secret\n",
			expectedError: true,
		},
		{
			name:          "blank admin id",
			input:         "admin_id,password_hash\n ," + hash + "\n",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admins, err := LoadAdmins(strings.NewReader(tt.input))

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(admins))
			for i, admin := range admins {
				ids[i] = admin.AdminID
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestLoadAdminsFile_Missing(t *testing.T) {
	_, err := LoadAdminsFile("/nonexistent/admins.csv")
	assert.Error(t, err)
}

func TestAdminService_Login(t *testing.T) {
	admins := []models.Admin{{AdminID: "ana@example.org", PasswordHash: hashPassword(t, "correct horse")}}

	tests := []struct {
		name          string
		req           models.LoginRequest
		issuerErr     error
		expectedError error
		expectedToken string
	}{
		{
			name:          "success",
			req:           models.LoginRequest{AdminID: "ana@example.org", Password: "correct horse"},
			expectedToken: "token-for-ana@example.org",
		},
		{
			name:          "admin id is case insensitive",
			req:           models.LoginRequest{AdminID: " ANA@example.org ", Password: "correct horse"},
			expectedToken: "token-for-ana@example.org",
		},
		{
			name:          "wrong password",
			req:           models.LoginRequest{AdminID: "ana@example.org", Password: "battery staple"},
			expectedError: models.ErrInvalidCredentials,
		},
		{
			name:          "unknown admin",
			req:           models.LoginRequest{AdminID: "eve@example.org", Password: "correct horse"},
			expectedError: models.ErrInvalidCredentials,
		},
		{
			name:          "missing password",
			req:           models.LoginRequest{AdminID: "ana@example.org"},
			expectedError: models.ErrValidation,
		},
		{
			name:          "token issuing fails",
			req:           models.LoginRequest{AdminID: "ana@example.org", Password: "correct horse"},
			issuerErr:     errors.New("sign failure"),
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer := &mockTokenIssuer{err: tt.issuerErr}
			svc := NewAdminService(admins, issuer, zap.NewNop())

			resp, err := svc.Login(tt.req)

			switch {
			case tt.issuerErr != nil:
				assert.ErrorIs(t, err, tt.issuerErr)
				assert.Nil(t, resp)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, resp)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedToken, resp.AccessToken)
				assert.Equal(t, models.RoleAdmin, issuer.role)
			}
		})
	}
}
