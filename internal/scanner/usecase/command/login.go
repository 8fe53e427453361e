package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/auth"
	"github.com/tair/inventory-scanner/pkg/logger"
)

// LoginCommand represents the command to login an operator
type LoginCommand struct {
	Email    string
	Password string
}

// LoginResponse represents the response after successful login
type LoginResponse struct {
	Token   string          `json:"token"`
	Profile *domain.Profile `json:"profile"`
}

// LoginHandler handles login command
type LoginHandler struct {
	repo   domain.ProfileRepository
	tokens *auth.TokenManager
	now    func() time.Time
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(repo domain.ProfileRepository, tokens *auth.TokenManager) *LoginHandler {
	return &LoginHandler{repo: repo, tokens: tokens, now: time.Now}
}

// Handle executes the login command
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if email == "" || cmd.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	profile, err := h.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, domain.Persistence("load profile", err)
	}

	if !auth.CheckPassword(profile.PasswordHash, cmd.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !profile.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	token, err := h.tokens.GenerateToken(profile.ID, profile.Email, profile.Role, profile.OrganizationID)
	if err != nil {
		return nil, err
	}

	if err := h.repo.TouchLastLogin(ctx, profile.ID, h.now()); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("user_id", profile.ID).
			Msg("Failed to record last login")
	}

	return &LoginResponse{Token: token, Profile: profile}, nil
}
