package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
)

var tracer = otel.Tracer("scanner-repository")

// TracingSessionRepository wraps a SessionRepository with spans
type TracingSessionRepository struct {
	next domain.SessionRepository
}

// NewTracingSessionRepository decorates next with tracing
func NewTracingSessionRepository(next domain.SessionRepository) *TracingSessionRepository {
	return &TracingSessionRepository{next: next}
}

func (r *TracingSessionRepository) Create(ctx context.Context, session *domain.InventorySession) error {
	ctx, span := tracer.Start(ctx, "repository.Session.Create",
		trace.WithAttributes(
			attribute.String("session.id", session.ID),
			attribute.String("session.organization_id", session.OrganizationID),
			attribute.String("session.name", session.Name),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, session)
	addDBErrorToSpan(span, err)
	return err
}

func (r *TracingSessionRepository) FindByID(ctx context.Context, id string) (*domain.InventorySession, error) {
	ctx, span := tracer.Start(ctx, "repository.Session.FindByID",
		trace.WithAttributes(attribute.String("session.id", id)),
	)
	defer span.End()

	session, err := r.next.FindByID(ctx, id)
	addDBErrorToSpan(span, err)
	return session, err
}

func (r *TracingSessionRepository) FindLatestActive(ctx context.Context, organizationID string) (*domain.InventorySession, error) {
	ctx, span := tracer.Start(ctx, "repository.Session.FindLatestActive",
		trace.WithAttributes(attribute.String("session.organization_id", organizationID)),
	)
	defer span.End()

	session, err := r.next.FindLatestActive(ctx, organizationID)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("session.id", session.ID))
	return session, nil
}

func (r *TracingSessionRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.InventorySession, error) {
	ctx, span := tracer.Start(ctx, "repository.Session.ListByOrganization",
		trace.WithAttributes(
			attribute.String("session.organization_id", organizationID),
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	sessions, err := r.next.ListByOrganization(ctx, organizationID, limit, offset)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(sessions)))
	return sessions, nil
}

func (r *TracingSessionRepository) CountActive(ctx context.Context, organizationID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.Session.CountActive",
		trace.WithAttributes(attribute.String("session.organization_id", organizationID)),
	)
	defer span.End()

	count, err := r.next.CountActive(ctx, organizationID)
	addDBErrorToSpan(span, err)
	return count, err
}

// TracingScannedProductRepository wraps a ScannedProductRepository with spans
type TracingScannedProductRepository struct {
	next domain.ScannedProductRepository
}

// NewTracingScannedProductRepository decorates next with tracing
func NewTracingScannedProductRepository(next domain.ScannedProductRepository) *TracingScannedProductRepository {
	return &TracingScannedProductRepository{next: next}
}

func (r *TracingScannedProductRepository) Create(ctx context.Context, product *domain.ScannedProduct) error {
	ctx, span := tracer.Start(ctx, "repository.ScannedProduct.Create",
		trace.WithAttributes(
			attribute.String("product.session_id", product.SessionID),
			attribute.String("product.barcode", product.Barcode),
			attribute.Int("product.quantity", product.Quantity),
		),
	)
	defer span.End()

	if err := r.next.Create(ctx, product); err != nil {
		addDBErrorToSpan(span, err)
		return err
	}

	span.SetAttributes(attribute.String("product.id", product.ID))
	return nil
}

func (r *TracingScannedProductRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.ScannedProduct.CountBySession",
		trace.WithAttributes(attribute.String("product.session_id", sessionID)),
	)
	defer span.End()

	count, err := r.next.CountBySession(ctx, sessionID)
	if err != nil {
		addDBErrorToSpan(span, err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("result.count", count))
	return count, nil
}

func (r *TracingScannedProductRepository) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ScannedProduct, error) {
	ctx, span := tracer.Start(ctx, "repository.ScannedProduct.ListBySession",
		trace.WithAttributes(
			attribute.String("product.session_id", sessionID),
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	products, err := r.next.ListBySession(ctx, sessionID, limit, offset)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(products)))
	return products, nil
}

func (r *TracingScannedProductRepository) StatsBySessions(ctx context.Context, sessionIDs []string) (map[string]domain.SessionStats, error) {
	ctx, span := tracer.Start(ctx, "repository.ScannedProduct.StatsBySessions",
		trace.WithAttributes(attribute.Int("query.sessions", len(sessionIDs))),
	)
	defer span.End()

	stats, err := r.next.StatsBySessions(ctx, sessionIDs)
	addDBErrorToSpan(span, err)
	return stats, err
}

func (r *TracingScannedProductRepository) CountByOrganization(ctx context.Context, organizationID string, since time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "repository.ScannedProduct.CountByOrganization",
		trace.WithAttributes(
			attribute.String("session.organization_id", organizationID),
			attribute.String("query.since", since.Format(time.RFC3339)),
		),
	)
	defer span.End()

	count, err := r.next.CountByOrganization(ctx, organizationID, since)
	addDBErrorToSpan(span, err)
	return count, err
}

// TracingProfileRepository wraps a ProfileRepository with spans
type TracingProfileRepository struct {
	next domain.ProfileRepository
}

// NewTracingProfileRepository decorates next with tracing
func NewTracingProfileRepository(next domain.ProfileRepository) *TracingProfileRepository {
	return &TracingProfileRepository{next: next}
}

func (r *TracingProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	ctx, span := tracer.Start(ctx, "repository.Profile.Create",
		trace.WithAttributes(
			attribute.String("profile.id", profile.ID),
			attribute.String("profile.role", profile.Role),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, profile)
	addDBErrorToSpan(span, err)
	return err
}

func (r *TracingProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "repository.Profile.FindByID",
		trace.WithAttributes(attribute.String("profile.id", id)),
	)
	defer span.End()

	profile, err := r.next.FindByID(ctx, id)
	addDBErrorToSpan(span, err)
	return profile, err
}

func (r *TracingProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "repository.Profile.FindByEmail")
	defer span.End()

	profile, err := r.next.FindByEmail(ctx, email)
	addDBErrorToSpan(span, err)
	return profile, err
}

func (r *TracingProfileRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "repository.Profile.ListByOrganization",
		trace.WithAttributes(
			attribute.String("profile.organization_id", organizationID),
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	profiles, err := r.next.ListByOrganization(ctx, organizationID, limit, offset)
	if err != nil {
		addDBErrorToSpan(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(profiles)))
	return profiles, nil
}

func (r *TracingProfileRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "repository.Profile.TouchLastLogin",
		trace.WithAttributes(attribute.String("profile.id", id)),
	)
	defer span.End()

	err := r.next.TouchLastLogin(ctx, id, at)
	addDBErrorToSpan(span, err)
	return err
}

// addDBErrorToSpan records err on span. Not-found results are expected
// outcomes and leave the span status unset.
func addDBErrorToSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrProfileNotFound) {
		span.SetAttributes(attribute.Bool("result.found", false))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, fmt.Sprintf("database error: %v", err))
}
