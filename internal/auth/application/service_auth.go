package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stoliar/commerce-mesh/internal/auth/domain"
	"github.com/stoliar/commerce-mesh/internal/auth/ports"
)

// Login verifies credentials and issues an access/refresh token pair.
// The refresh token is persisted on the credential row so Refresh can check
// for rotation; failed attempts feed the lockout counter.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return TokenResponse{}, err
	}

	now := s.nowFn()
	state, err := s.lockouts.Get(ctx, email)
	if err != nil {
		// Lockout state being unavailable must not block logins.
		slog.Default().WarnContext(ctx, "lockout state unavailable",
			"module", "application",
			"layer", "service",
			"operation", "login",
			"outcome", "degraded",
			"error", err,
		)
	} else if state.LockedUntil != nil && state.LockedUntil.After(now) {
		return TokenResponse{}, domain.ErrAccountLocked
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return TokenResponse{}, domain.ErrInvalidCredentials
	}
	if !cred.Active {
		return TokenResponse{}, fmt.Errorf("%w: account is deactivated", domain.ErrInvalidCredentials)
	}
	if err := s.hasher.Compare(cred.PasswordHash, req.Password); err != nil {
		if _, recErr := s.lockouts.RecordFailure(ctx, email, now, s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); recErr != nil {
			slog.Default().WarnContext(ctx, "failed to record login failure",
				"module", "application",
				"layer", "service",
				"operation", "login",
				"outcome", "degraded",
				"error", recErr,
			)
		}
		return TokenResponse{}, domain.ErrInvalidCredentials
	}
	_ = s.lockouts.Clear(ctx, email)

	return s.issueTokenPair(ctx, cred)
}

// Refresh rotates the token pair after validating the presented refresh token
// against signature, kind, stored value and expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	claims, err := s.tokenSigner.Parse(refreshToken)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("%w: invalid refresh token", domain.ErrInvalidCredentials)
	}
	if claims.Kind != ports.TokenKindRefresh {
		return TokenResponse{}, fmt.Errorf("%w: not a refresh token", domain.ErrInvalidCredentials)
	}

	cred, err := s.credentials.GetByEmail(ctx, claims.Email)
	if err != nil {
		return TokenResponse{}, domain.ErrInvalidCredentials
	}
	if !cred.Active {
		return TokenResponse{}, fmt.Errorf("%w: account is deactivated", domain.ErrInvalidCredentials)
	}
	if cred.RefreshToken != refreshToken {
		return TokenResponse{}, fmt.Errorf("%w: refresh token superseded", domain.ErrInvalidCredentials)
	}
	if cred.RefreshTokenExpiry == nil || cred.RefreshTokenExpiry.Before(s.nowFn()) {
		return TokenResponse{}, fmt.Errorf("%w: refresh token expired", domain.ErrInvalidCredentials)
	}

	return s.issueTokenPair(ctx, cred)
}

// Validate reports token validity without failing the call: invalid tokens
// produce a negative response, not an error.
func (s *Service) Validate(ctx context.Context, token string) ValidateResponse {
	claims, err := s.tokenSigner.Parse(token)
	if err != nil || claims.Kind != ports.TokenKindAccess {
		return ValidateResponse{Valid: false, Message: "token is invalid"}
	}
	expiresAt := claims.ExpiresAt
	return ValidateResponse{
		Valid:     true,
		UserID:    claims.UserID.String(),
		Email:     claims.Email,
		Role:      string(claims.Role),
		ExpiresAt: &expiresAt,
		Message:   "token is valid",
	}
}

func (s *Service) issueTokenPair(ctx context.Context, cred domain.Credential) (TokenResponse, error) {
	now := s.nowFn()

	accessToken, err := s.tokenSigner.Sign(ports.TokenClaims{
		UserID:    cred.ID,
		Email:     cred.Email,
		Role:      cred.Role,
		Kind:      ports.TokenKindAccess,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	})
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshExpiry := now.Add(s.cfg.RefreshTokenTTL)
	refreshToken, err := s.tokenSigner.Sign(ports.TokenClaims{
		UserID:    cred.ID,
		Email:     cred.Email,
		Role:      cred.Role,
		Kind:      ports.TokenKindRefresh,
		IssuedAt:  now,
		ExpiresAt: refreshExpiry,
	})
	if err != nil {
		return TokenResponse{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.credentials.UpdateRefreshToken(ctx, cred.ID, refreshToken, refreshExpiry, now); err != nil {
		return TokenResponse{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}
