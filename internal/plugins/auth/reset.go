package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/events"
	"github.com/qualis-hq/backoffice/internal/metrics"
)

// RequestPasswordReset issues the user's reset token. A user holds at most
// one: a second request rotates the value and pushes the expiry out again.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (*ResetToken, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	value, err := newToken(s.random)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}

	rt := &ResetToken{
		OwnerID:    user.ID,
		OwnerEmail: user.Email,
		Token:      value,
		ExpiresAt:  s.nowFn().Add(s.resetTTL),
	}

	rotated, err := s.tokens.UpsertResetToken(ctx, rt)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	if rotated {
		s.metrics.RecordResetToken(metrics.ResetRotated)
	} else {
		s.metrics.RecordResetToken(metrics.ResetIssued)
	}

	slog.Info("password reset requested",
		slog.String("user_id", user.ID),
		slog.Bool("rotated", rotated),
		slog.Time("expires_at", rt.ExpiresAt),
	)
	s.recorder.Record(ctx, user.ID, events.KindPasswordResetRequested, user.ID,
		map[string]any{"expiresAt": rt.ExpiresAt})

	return rt, nil
}

// ResetPassword consumes a reset token. An expired token is rejected before
// the password policy is checked and leaves the stored password untouched.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	rt, err := s.tokens.FindResetToken(ctx, token)
	if err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("finding reset token: %w", err))
	}

	now := s.nowFn()
	if !rt.ExpiresAt.After(now) {
		s.metrics.RecordResetToken(metrics.ResetExpired)
		return apperror.NewBadRequest("reset token expired")
	}

	if err := ValidatePassword(newPassword); err != nil {
		return apperror.NewBadRequest(err.Error()).WithInternal(err)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	if err := s.tokens.CompleteReset(ctx, rt.Token, hash, now); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("completing password reset: %w", err))
	}

	s.metrics.RecordResetToken(metrics.ResetConsumed)
	slog.Info("password reset completed", slog.String("user_id", rt.OwnerID))
	s.recorder.Record(ctx, rt.OwnerID, events.KindPasswordResetCompleted, rt.OwnerID, nil)

	return nil
}
