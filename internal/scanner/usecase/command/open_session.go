package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/pkg/logger"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// OpenSessionCommand resolves the active session for a caller
type OpenSessionCommand struct {
	Caller domain.Caller
}

// OpenSessionResult is the resolved session
type OpenSessionResult struct {
	Session *domain.InventorySession `json:"session"`
	Created bool                     `json:"created"`
}

// OpenSessionHandler finds the organization's active session or creates one
type OpenSessionHandler struct {
	sessions domain.SessionRepository
	profiles domain.ProfileRepository
	locker   domain.SessionLocker
	metrics  *metrics.ScannerMetrics
	now      func() time.Time
}

// NewOpenSessionHandler creates a new open session handler
func NewOpenSessionHandler(
	sessions domain.SessionRepository,
	profiles domain.ProfileRepository,
	locker domain.SessionLocker,
	m *metrics.ScannerMetrics,
) *OpenSessionHandler {
	return &OpenSessionHandler{
		sessions: sessions,
		profiles: profiles,
		locker:   locker,
		metrics:  m,
		now:      time.Now,
	}
}

// Handle executes the open session command
func (h *OpenSessionHandler) Handle(ctx context.Context, cmd OpenSessionCommand) (*OpenSessionResult, error) {
	if cmd.Caller.UserID == "" {
		return nil, domain.ErrNoCaller
	}

	organizationID, err := h.resolveOrganization(ctx, cmd.Caller)
	if err != nil {
		return nil, err
	}

	session, err := h.sessions.FindLatestActive(ctx, organizationID)
	if err == nil {
		return &OpenSessionResult{Session: session}, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.Persistence("look up active session", err)
	}

	if h.locker != nil {
		unlock, err := h.locker.Lock(ctx, organizationID)
		if err != nil {
			return nil, domain.Persistence("lock organization sessions", err)
		}
		defer unlock()

		// Another caller may have created it while we waited.
		session, err = h.sessions.FindLatestActive(ctx, organizationID)
		if err == nil {
			return &OpenSessionResult{Session: session}, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.Persistence("look up active session", err)
		}
	}

	now := h.now()
	session = &domain.InventorySession{
		ID:             uuid.NewString(),
		Name:           domain.SessionNameFor(now),
		OrganizationID: organizationID,
		CreatedBy:      cmd.Caller.UserID,
		Status:         domain.SessionStatusActive,
		CreatedAt:      now,
	}

	if err := h.sessions.Create(ctx, session); err != nil {
		if !errors.Is(err, domain.ErrActiveSessionExists) {
			return nil, domain.Persistence("create session", err)
		}
		winner, err := h.sessions.FindLatestActive(ctx, organizationID)
		if err != nil {
			return nil, domain.Persistence("look up active session", err)
		}
		return &OpenSessionResult{Session: winner}, nil
	}

	h.metrics.SessionCreated()
	logger.Info(ctx).
		Str("session_id", session.ID).
		Str("organization_id", organizationID).
		Str("created_by", cmd.Caller.UserID).
		Msg("Inventory session created")

	return &OpenSessionResult{Session: session, Created: true}, nil
}

// resolveOrganization prefers the organization carried by the token and
// falls back to the caller's profile.
func (h *OpenSessionHandler) resolveOrganization(ctx context.Context, caller domain.Caller) (string, error) {
	if caller.OrganizationID != "" {
		return caller.OrganizationID, nil
	}

	profile, err := h.profiles.FindByID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return "", &domain.ConfigurationError{UserID: caller.UserID, Reason: "profile not found"}
	}
	if err != nil {
		return "", domain.Persistence("load profile", err)
	}
	if profile.OrganizationID == "" {
		return "", &domain.ConfigurationError{UserID: caller.UserID, Reason: "no organization assigned"}
	}
	return profile.OrganizationID, nil
}
