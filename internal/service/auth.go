package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/ecom_api/internal/models"
	"github.com/Skotchmaster/ecom_api/internal/repo"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/pkg/hash"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
	"github.com/Skotchmaster/ecom_api/pkg/tokens"
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup always creates a customer. Admins come from EnsureAdmin.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{Email: email, PasswordHash: pwHash, Role: models.RoleCustomer}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		l.Error("signup_error", "reason", "cannot create user", "error", err)
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, stored, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, stored); err != nil {
		return nil, err
	}
	return res, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked in the same transaction that stores its successor, so a replayed
// token fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	stored, err := s.Repo.FindRefreshByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if stored.TokenHash != hash.Sha256Hex(refreshToken) || strconv.FormatUint(uint64(stored.UserID), 10) != claims.Subject {
		l.Warn("refresh_mismatch", "jti", claims.ID)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	res, next, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, next); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) || errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return res, nil
}

// LogOut revokes the caller's refresh token. An empty token is a no-op.
func (s *AuthService) LogOut(ctx context.Context, userID uint, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.Repo.RevokeRefreshToken(ctx, hash.Sha256Hex(refreshToken), userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		return err
	}
	return nil
}

func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: admin email and password required", ErrValidation)
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Repo.EnsureAdmin(ctx, email, pwHash)
}

func (s *AuthService) issue(user *models.User) (*transport.LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	sub := strconv.FormatUint(uint64(user.ID), 10)

	accessExp := now.Add(s.AccessTTL)
	access, err := tokens.NewAccessToken(s.JWTSecret, sub, user.Role, accessExp)
	if err != nil {
		return nil, nil, err
	}

	refreshExp := now.Add(s.RefreshTTL)
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, sub, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	stored := &models.RefreshToken{
		TokenHash: hash.Sha256Hex(refresh),
		UserID:    user.ID,
		JTI:       jti,
		ExpiresAt: refreshExp,
	}
	return &transport.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         user.Role,
	}, stored, nil
}
