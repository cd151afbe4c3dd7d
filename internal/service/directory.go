package service

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/brightform/userhub/internal/domain"
	"github.com/brightform/userhub/internal/identity"
	"github.com/brightform/userhub/internal/repository"
)

// DirectoryService serves the access-controlled user listing.
type DirectoryService struct {
	users  repository.UserRepository
	logger *zap.Logger
	tracer trace.Tracer
}

// NewDirectoryService wires dependencies.
func NewDirectoryService(users repository.UserRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		users:  users,
		logger: logger,
		tracer: otel.Tracer("github.com/brightform/userhub/internal/service"),
	}
}

// ListAll returns the full user collection in creation order. Requires an
// authenticated caller with the ADMIN role.
func (s *DirectoryService) ListAll(ctx context.Context, caller *identity.Caller) ([]domain.User, error) {
	ctx, span := s.directorySpan(ctx, "DirectoryService.ListAll")
	defer span.End()

	if caller == nil {
		return nil, newAPIError(http.StatusUnauthorized, "Authentication required", "")
	}
	if caller.Role != domain.RoleAdmin {
		return nil, newAPIError(http.StatusForbidden, "Admin role required", "")
	}

	users, err := s.users.List(ctx)
	if err != nil {
		span.RecordError(err)
		if s.logger != nil {
			s.logger.Error("list users failed", zap.String("caller_id", caller.ID), zap.Error(err))
		}
		return nil, newAPIError(http.StatusInternalServerError, "Listing failed", err.Error())
	}
	return users, nil
}

func (s *DirectoryService) directorySpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}
