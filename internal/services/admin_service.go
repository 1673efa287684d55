package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hunterianlab/modules-platform/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer issues access tokens for authenticated admins
type TokenIssuer interface {
	GenerateAccessToken(adminID string, role int) (string, error)
}

// AdminService authenticates admins against the approved-admins list
type AdminService struct {
	admins map[string]models.Admin
	tokens TokenIssuer
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(admins []models.Admin, tokens TokenIssuer, logger *zap.Logger) *AdminService {
	byID := make(map[string]models.Admin, len(admins))
	for _, admin := range admins {
		byID[normalizeAdminID(admin.AdminID)] = admin
	}
	return &AdminService{
		admins: byID,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies the password and returns an access token
func (s *AdminService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	adminID := normalizeAdminID(req.AdminID)
	if adminID == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: admin id and password are required", models.ErrValidation)
	}

	admin, ok := s.admins[adminID]
	if !ok {
		s.logger.Warn("login attempt for unknown admin", zap.String("admin_id", adminID))
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login attempt with wrong password", zap.String("admin_id", adminID))
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(adminID, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	s.logger.Info("admin logged in", zap.String("admin_id", adminID))
	return &models.LoginResponse{AccessToken: token}, nil
}

// LoadAdminsFile reads the approved-admins CSV file at path
func LoadAdminsFile(path string) ([]models.Admin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open admins file: %w", err)
	}
	defer f.Close()

	return LoadAdmins(f)
}

// LoadAdmins parses an approved-admins CSV with the header admin_id,password_hash
func LoadAdmins(r io.Reader) ([]models.Admin, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("admins file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read admins header: %w", err)
	}
	if strings.TrimSpace(header[0]) != "admin_id" || strings.TrimSpace(header[1]) != "password_hash" {
		return nil, fmt.Errorf("unexpected admins header %q", strings.Join(header, ","))
	}

	admins := []models.Admin{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read admins file: %w", err)
		}

		adminID := normalizeAdminID(record[0])
		hash := strings.TrimSpace(record[1])
		if adminID == "" || hash == "" {
			return nil, fmt.Errorf("admins file has an incomplete row")
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("admin %s: invalid password hash: %w", adminID, err)
		}
		admins = append(admins, models.Admin{AdminID: adminID, PasswordHash: hash})
	}

	return admins, nil
}

func normalizeAdminID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
