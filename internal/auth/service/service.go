// Package service implements the auth flows: registration, login with
// lockout, access/refresh token issuance, refresh rotation with reuse
// detection, and logout.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"rbi-platform/internal/auth/jwt"
	"rbi-platform/internal/auth/models"
	"rbi-platform/internal/platform/config"
	"rbi-platform/internal/platform/metrics"
	"rbi-platform/internal/ratelimit"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/platform/secrets"
	"rbi-platform/pkg/requestcontext"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionStore persists login sessions.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByID(ctx context.Context, id string) (models.Session, error)
	Touch(ctx context.Context, id string, now time.Time, refreshed bool) (models.Session, error)
	Revoke(ctx context.Context, id string) error
}

// RefreshStore persists single-use refresh tokens.
type RefreshStore interface {
	Create(ctx context.Context, record *models.RefreshTokenRecord) error
	Consume(ctx context.Context, token, replacedBy string, now time.Time) (*models.RefreshTokenRecord, error)
	RevokeBySession(ctx context.Context, sessionID string) error
}

// RevocationStore marks sessions dead for the auth middleware.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Auditor records audit events.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LockoutGuard throttles failed logins.
type LockoutGuard interface {
	CheckLockout(ctx context.Context, identifier, ip string) (*ratelimit.LockoutResult, error)
	RecordFailure(ctx context.Context, identifier, ip string) (*ratelimit.LockoutResult, error)
	ClearFailures(ctx context.Context, identifier, ip string) error
}

// Service wires the auth stores and token machinery together.
type Service struct {
	users      UserStore
	sessions   SessionStore
	refresh    RefreshStore
	revocation RevocationStore
	tokens     *jwt.Service
	auditor    Auditor
	lockout    LockoutGuard
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cfg        config.JWT
	tracer     trace.Tracer
}

// New creates the auth service. lockout and metrics may be nil in tests.
func New(
	users UserStore,
	sessions SessionStore,
	refresh RefreshStore,
	revocation RevocationStore,
	tokens *jwt.Service,
	auditor Auditor,
	lockout LockoutGuard,
	met *metrics.Metrics,
	logger *slog.Logger,
	cfg config.JWT,
) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		refresh:    refresh,
		revocation: revocation,
		tokens:     tokens,
		auditor:    auditor,
		lockout:    lockout,
		metrics:    met,
		logger:     logger,
		cfg:        cfg,
		tracer:     otel.Tracer("rbi-platform/auth"),
	}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to hash password")
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		Status:       models.UserStatusActive,
		PasswordHash: hash,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionUserCreated,
		UserID:  user.ID,
		Subject: user.Email,
	}); err != nil {
		// user_created is a compliance event; creation must not stand
		// unrecorded.
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to record registration")
	}

	return &user, nil
}

// Login verifies credentials and opens a session with a fresh token pair.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenPair, *models.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	if req == nil {
		return nil, nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	ip := requestcontext.ClientIP(ctx)

	if s.lockout != nil {
		locked, err := s.lockout.CheckLockout(ctx, req.Email, ip)
		if err != nil {
			s.logger.ErrorContext(ctx, "lockout check failed", "error", err)
		} else if locked.Locked {
			return nil, nil, apperrors.New(apperrors.CodeRateLimited, "too many failed attempts, try again later")
		}
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		s.recordLoginFailure(ctx, req.Email, ip, "unknown_email")
		// Same error as a bad password so the endpoint doesn't leak which
		// emails exist.
		return nil, nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}

	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		s.recordLoginFailure(ctx, req.Email, ip, "invalid_password")
		return nil, nil, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}

	if user.Status != models.UserStatusActive {
		s.recordLoginFailure(ctx, req.Email, ip, "suspended")
		return nil, nil, apperrors.New(apperrors.CodeForbidden, "account suspended")
	}

	if s.lockout != nil {
		if err := s.lockout.ClearFailures(ctx, req.Email, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to clear lockout counter", "error", err)
		}
	}

	now := requestcontext.Now(ctx)
	session := models.Session{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Device:     deviceDescription(requestcontext.UserAgent(ctx)),
		ClientIP:   ip,
		Status:     models.SessionStatusActive,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create session")
	}

	pair, err := s.issueTokens(ctx, &user, session.ID, now)
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
		s.metrics.TokensIssued.Inc()
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionLoginSucceeded,
		UserID:  user.ID,
		Subject: session.ID,
	})
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionTokenIssued,
		UserID:  user.ID,
		Subject: session.ID,
	})

	return pair, &user, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, email, ip, reason string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionLoginFailed,
		Subject: email,
		Reason:  reason,
	})
	if s.lockout == nil {
		return
	}
	result, err := s.lockout.RecordFailure(ctx, email, ip)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "error", err)
		return
	}
	if result.Locked {
		_ = s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionAuthLockout,
			Subject: email,
			Reason:  "failed_attempts_exceeded",
		})
	}
}

// issueTokens mints an access token and a fresh refresh token for the session.
func (s *Service) issueTokens(ctx context.Context, user *models.User, sessionID string, now time.Time) (*models.TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, sessionID, string(user.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to sign access token")
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to generate refresh token")
	}

	record := &models.RefreshTokenRecord{
		Token:     refreshToken,
		SessionID: sessionID,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := s.refresh.Create(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to store refresh token")
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func newRefreshToken() (string, error) {
	secret, err := secrets.Generate()
	if err != nil {
		return "", err
	}
	return "rt_" + secret, nil
}

// deviceDescription turns a User-Agent header into a short human-readable
// label shown on the session list.
func deviceDescription(uaHeader string) string {
	if uaHeader == "" {
		return "unknown device"
	}
	ua := useragent.New(uaHeader)
	name, version := ua.Browser()
	if name == "" {
		return "unknown device"
	}
	os := ua.OSInfo().Name
	if os == "" {
		os = "unknown OS"
	}
	desc := name
	if version != "" {
		desc += " " + version
	}
	return desc + " on " + os
}
