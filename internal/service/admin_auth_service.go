package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/utils"
)

// AdminStore reads and writes admin accounts.
type AdminStore interface {
	GetByEmail(email string) (*models.AdminUser, error)
	Create(user *models.AdminUser) error
	TouchLastLogin(id int) error
}

// TokenStore keeps each admin's marketplace bearer token.
type TokenStore interface {
	SetToken(ctx context.Context, adminID int, token string) error
	ClearToken(ctx context.Context, adminID int) error
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      *models.AdminUser `json:"user"`
}

type AdminAuthService struct {
	adminRepo AdminStore
	sessions  TokenStore
	jwtSecret string
	jwtTTL    time.Duration
}

func NewAdminAuthService(adminRepo AdminStore, sessions TokenStore, jwtSecret string, jwtTTL time.Duration) *AdminAuthService {
	return &AdminAuthService{
		adminRepo: adminRepo,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

func (s *AdminAuthService) Login(email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	log.Debug().Str("email", email).Msg("Login attempt")

	user, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
		}
		return nil, utils.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		return nil, utils.ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		return nil, utils.ErrInvalidCredentials
	}

	token, expires, err := utils.GenerateJWT(s.jwtSecret, user.ID, user.Email, s.jwtTTL)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.TouchLastLogin(user.ID); err != nil {
		log.Warn().Err(err).Int("admin_id", user.ID).Msg("Failed to record last login")
	}
	log.Info().Str("email", email).Msg("Login successful")

	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

func (s *AdminAuthService) CreateAdmin(email, password, name string) (*models.AdminUser, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.AdminUser{
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureBootstrapAdmin creates the configured first admin if it is missing.
// Nothing happens when email or password is empty.
func (s *AdminAuthService) EnsureBootstrapAdmin(email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.adminRepo.GetByEmail(email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if _, err := s.CreateAdmin(email, password, name); err != nil {
		return err
	}
	log.Info().Str("email", email).Msg("Bootstrap admin created")
	return nil
}

// SetMarketplaceToken stores the bearer token used for the admin's marketplace calls.
func (s *AdminAuthService) SetMarketplaceToken(ctx context.Context, adminID int, token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return invalid("Token is required")
	}
	return s.sessions.SetToken(ctx, adminID, token)
}

// ClearMarketplaceToken falls the admin back to the service token.
func (s *AdminAuthService) ClearMarketplaceToken(ctx context.Context, adminID int) error {
	return s.sessions.ClearToken(ctx, adminID)
}
