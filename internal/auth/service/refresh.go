package service

import (
	"context"
	"errors"

	"rbi-platform/internal/auth/models"
	"rbi-platform/internal/auth/store/refresh"
	"rbi-platform/pkg/apperrors"
	"rbi-platform/pkg/platform/audit"
	"rbi-platform/pkg/requestcontext"
)

// Refresh rotates a refresh token: the presented token is consumed, a new
// pair is issued, and the old token's ReplacedBy points at the new one.
//
// Presenting an already-consumed token means the token leaked: either the
// client or a thief holds a copy, and there is no way to tell which request
// came first. The whole session is revoked so both copies go dark.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "auth.refresh")
	defer span.End()

	if req == nil {
		return nil, apperrors.New(apperrors.CodeBadRequest, "request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)

	newToken, err := newRefreshToken()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to generate refresh token")
	}

	record, err := s.refresh.Consume(ctx, req.RefreshToken, newToken, now)
	if err != nil {
		if errors.Is(err, refresh.ErrAlreadyUsed) {
			s.handleRefreshReuse(ctx, record)
			return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid refresh token")
		}
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, record.SessionID)
	if err != nil || session.Status != models.SessionStatusActive {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "session no longer active")
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "invalid refresh token")
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.New(apperrors.CodeForbidden, "account suspended")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, session.ID, string(user.Role), s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to sign access token")
	}

	newRecord := &models.RefreshTokenRecord{
		Token:     newToken,
		SessionID: session.ID,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := s.refresh.Create(ctx, newRecord); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to store refresh token")
	}

	if _, err := s.sessions.Touch(ctx, session.ID, now, true); err != nil {
		s.logger.WarnContext(ctx, "failed to touch session", "session_id", session.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.TokensRefreshed.Inc()
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionTokenRefreshed,
		UserID:  user.ID,
		Subject: session.ID,
	})

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// handleRefreshReuse revokes the session a reused token belonged to.
func (s *Service) handleRefreshReuse(ctx context.Context, record *models.RefreshTokenRecord) {
	if s.metrics != nil {
		s.metrics.RefreshReuse.Inc()
	}
	if record == nil {
		return
	}

	s.logger.WarnContext(ctx, "refresh token reuse detected, revoking session",
		"session_id", record.SessionID,
		"user_id", record.UserID,
	)

	if err := s.sessions.Revoke(ctx, record.SessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke session after reuse", "session_id", record.SessionID, "error", err)
	}
	if err := s.revocation.Revoke(ctx, record.SessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark session revoked", "session_id", record.SessionID, "error", err)
	}
	if err := s.refresh.RevokeBySession(ctx, record.SessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to purge session refresh tokens", "session_id", record.SessionID, "error", err)
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionRefreshReuse,
		UserID:  record.UserID,
		Subject: record.SessionID,
	})
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionSessionRevoked,
		UserID:  record.UserID,
		Subject: record.SessionID,
		Reason:  "refresh_token_reuse",
	})
}

// Logout revokes the caller's session and all of its refresh tokens.
func (s *Service) Logout(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	userID := requestcontext.UserID(ctx)
	if sessionID == "" {
		return apperrors.New(apperrors.CodeUnauthorized, "no active session")
	}

	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to revoke session")
	}
	if err := s.revocation.Revoke(ctx, sessionID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to mark session revoked")
	}
	if err := s.refresh.RevokeBySession(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to purge session refresh tokens", "session_id", sessionID, "error", err)
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionSessionRevoked,
		UserID:  userID,
		Subject: sessionID,
		Reason:  "logout",
	})
	return nil
}

// Profile returns the authenticated user's account.
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "not authenticated")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
