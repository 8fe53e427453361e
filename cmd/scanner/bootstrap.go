package main

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tair/inventory-scanner/internal/config"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/pkg/logger"
)

// bootstrapAdmin creates the configured administrator unless the email is
// already registered. It returns the admin's organization, empty when no
// admin is configured.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, profiles domain.ProfileRepository) (string, error) {
	if cfg.AdminEmail == "" {
		return "", nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	existing, err := profiles.FindByEmail(ctx, email)
	if err == nil {
		return existing.OrganizationID, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return "", err
	}

	organizationID := cfg.AdminOrganizationID
	if organizationID == "" {
		organizationID = uuid.NewString()
	}

	profile, err := command.NewCreateOperatorHandler(profiles).Handle(ctx, command.CreateOperatorCommand{
		Email:          email,
		FullName:       "Administrator",
		Password:       cfg.AdminPassword,
		Role:           domain.RoleAdmin,
		OrganizationID: organizationID,
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx).
		Str("user_id", profile.ID).
		Str("email", profile.Email).
		Str("organization_id", organizationID).
		Msg("Bootstrap administrator created")
	return organizationID, nil
}
