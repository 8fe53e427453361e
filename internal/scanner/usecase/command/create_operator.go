package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/auth"
)

// CreateOperatorCommand represents the command to add a user to an organization
type CreateOperatorCommand struct {
	Email          string
	FullName       string
	Password       string
	Role           string
	OrganizationID string
}

// CreateOperatorHandler handles create operator command
type CreateOperatorHandler struct {
	repo domain.ProfileRepository
}

// NewCreateOperatorHandler creates a new create operator handler
func NewCreateOperatorHandler(repo domain.ProfileRepository) *CreateOperatorHandler {
	return &CreateOperatorHandler{repo: repo}
}

// Handle executes the create operator command
func (h *CreateOperatorHandler) Handle(ctx context.Context, cmd CreateOperatorCommand) (*domain.Profile, error) {
	if cmd.Role == "" {
		cmd.Role = domain.RoleOperator
	}
	if !domain.ValidRole(cmd.Role) {
		return nil, fmt.Errorf("invalid role %q", cmd.Role)
	}
	if cmd.OrganizationID == "" {
		return nil, &domain.ConfigurationError{Reason: "administrator has no organization"}
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:             uuid.NewString(),
		Email:          strings.ToLower(strings.TrimSpace(cmd.Email)),
		FullName:       strings.TrimSpace(cmd.FullName),
		PasswordHash:   hash,
		Role:           cmd.Role,
		OrganizationID: cmd.OrganizationID,
		IsActive:       true,
	}

	if err := h.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, domain.Persistence("create profile", err)
	}

	return profile, nil
}
