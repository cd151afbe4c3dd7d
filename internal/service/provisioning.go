package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/brightform/userhub/internal/config"
	"github.com/brightform/userhub/internal/domain"
	"github.com/brightform/userhub/internal/identity"
	pw "github.com/brightform/userhub/internal/password"
	"github.com/brightform/userhub/internal/repository"
)

// APIError carries an HTTP-mappable failure out of the service layer.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func newAPIError(status int, message, details string) *APIError {
	return &APIError{Status: status, Message: message, Details: details}
}

func errEmailExists() *APIError {
	return newAPIError(http.StatusConflict, "Email already exists", "")
}

// RegisterInput is the validated registration payload. Role is what the
// caller asked for; the orchestrator never honors it.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Registration is the outcome of a successful provisioning run. Pending is
// true when the identity still awaits email confirmation.
type Registration struct {
	User    domain.User
	Pending bool
}

// ProvisioningService runs the account-creation saga across the identity
// provider and the record store. The two systems cannot share a transaction,
// so a failed record write is compensated by deleting the fresh identity.
type ProvisioningService struct {
	users       repository.UserRepository
	idp         identity.Provider
	defaultRole domain.Role
	callTimeout time.Duration
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewProvisioningService wires dependencies.
func NewProvisioningService(users repository.UserRepository, idp identity.Provider, cfg config.Config, logger *zap.Logger) *ProvisioningService {
	return &ProvisioningService{
		users:       users,
		idp:         idp,
		defaultRole: cfg.SignupDefaultRole,
		callTimeout: cfg.IdentityTimeout,
		logger:      logger,
		tracer:      otel.Tracer("github.com/brightform/userhub/internal/service"),
	}
}

// Register provisions an account. Sequence: uniqueness pre-check against the
// record store, identity signup, password hash, record insert keyed by the
// provider-issued id. The pre-check is a fast path only; the store's unique
// constraint remains the authoritative guard, and a duplicate raced past the
// pre-check is compensated like any other store failure.
func (s *ProvisioningService) Register(ctx context.Context, input RegisterInput) (Registration, error) {
	ctx, span := s.startSpan(ctx, "ProvisioningService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := s.preCheck(ctx, email); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return Registration{}, err
		}
		span.RecordError(err)
		return Registration{}, newAPIError(http.StatusInternalServerError, "Registration failed", err.Error())
	}

	signup, err := s.signup(ctx, identity.SignupParams{
		Email:    email,
		Password: input.Password,
		Name:     input.Name,
		Role:     s.defaultRole,
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, identity.ErrConflict) {
			return Registration{}, errEmailExists()
		}
		return Registration{}, newAPIError(http.StatusInternalServerError, "Identity provider unavailable", err.Error())
	}

	pending := false
	if _, ok := signup.Confirmation.(identity.PendingConfirmation); ok {
		pending = true
	}

	hash, err := pw.Hash(input.Password)
	if err != nil {
		span.RecordError(err)
		s.compensate(ctx, signup.ID, email)
		return Registration{}, newAPIError(http.StatusInternalServerError, "Registration failed", err.Error())
	}

	created, err := s.createRecord(ctx, domain.User{
		ID:           signup.ID,
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         s.defaultRole,
	})
	if err != nil {
		span.RecordError(err)
		s.compensate(ctx, signup.ID, email)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return Registration{}, errEmailExists()
		}
		return Registration{}, newAPIError(http.StatusInternalServerError, "Registration failed", err.Error())
	}

	s.audit("user.provisioned", "user_id", created.ID, "email", created.Email, "role", created.Role, "pending_confirmation", pending)
	return Registration{User: created, Pending: pending}, nil
}

// preCheck returns nil when the email is free, an APIError on a hit.
func (s *ProvisioningService) preCheck(ctx context.Context, email string) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return errEmailExists()
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("uniqueness pre-check: %w", err)
	}
}

func (s *ProvisioningService) signup(ctx context.Context, params identity.SignupParams) (identity.Signup, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.idp.Signup(ctx, params)
}

func (s *ProvisioningService) createRecord(ctx context.Context, user domain.User) (domain.User, error) {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.users.Create(ctx, user)
}

// compensate deletes the identity created earlier in the saga. Best-effort:
// its failure is logged and never surfaces, so the caller always sees the
// original error. Runs detached from the request context so a caller cancel
// cannot skip cleanup.
func (s *ProvisioningService) compensate(ctx context.Context, identityID, email string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout())
	defer cancel()

	if err := s.idp.Delete(cleanupCtx, identityID); err != nil {
		s.log().Error("compensating identity delete failed, identity may be orphaned",
			zap.String("identity_id", identityID),
			zap.String("email", email),
			zap.Error(err),
		)
		return
	}
	s.audit("user.provisioning.compensated", "identity_id", identityID, "email", email)
}

func (s *ProvisioningService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout())
}

func (s *ProvisioningService) timeout() time.Duration {
	if s.callTimeout <= 0 {
		return 10 * time.Second
	}
	return s.callTimeout
}

func (s *ProvisioningService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *ProvisioningService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *ProvisioningService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
