package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"nutrisync/internal/domain/user"
	"nutrisync/internal/logger"
	"nutrisync/internal/pkg/jwt"
	"nutrisync/internal/repository"
	ucauth "nutrisync/internal/usecase/auth"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInternal            = errors.New("internal error")
)

type AuthUsecase interface {
	Register(ctx context.Context, in ucauth.RegisterInput) (user.User, string, string, error)
	Login(ctx context.Context, in ucauth.LoginInput) (user.User, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
}

type Auth struct {
	authSvc  *ucauth.Service
	users    user.Repository
	sessions repository.SessionRepository
	jwt      jwt.Service
	log      logger.Logger

	refreshTTL time.Duration
}

func NewAuthUsecase(users user.Repository, sessions repository.SessionRepository, jwtSvc jwt.Service, refreshTTL time.Duration, log logger.Logger) *Auth {
	if log == nil {
		log = logger.NewNop()
	}
	return &Auth{
		authSvc:    ucauth.NewService(users),
		users:      users,
		sessions:   sessions,
		jwt:        jwtSvc,
		log:        log,
		refreshTTL: refreshTTL,
	}
}

func (u *Auth) Register(ctx context.Context, in ucauth.RegisterInput) (user.User, string, string, error) {
	usr, err := u.authSvc.Register(ctx, in)
	if err != nil {
		return user.User{}, "", "", err
	}
	access, refresh, err := u.issueTokens(ctx, usr)
	if err != nil {
		return user.User{}, "", "", err
	}
	return usr, access, refresh, nil
}

func (u *Auth) Login(ctx context.Context, in ucauth.LoginInput) (user.User, string, string, error) {
	usr, err := u.authSvc.Login(ctx, in)
	if err != nil {
		return user.User{}, "", "", err
	}
	access, refresh, err := u.issueTokens(ctx, usr)
	if err != nil {
		return user.User{}, "", "", err
	}
	return usr, access, refresh, nil
}

func (u *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", ErrUnauthorized
	}

	claims, err := u.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrRefreshTokenExpired
		}
		return "", "", ErrInvalidRefreshToken
	}

	usr, err := u.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", "", ErrInternal
	}

	access, refresh, err := u.issueTokens(ctx, usr)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (u *Auth) issueTokens(ctx context.Context, usr user.User) (string, string, error) {
	access, err := u.jwt.GenerateAccessToken(usr.ID, usr.Email)
	if err != nil {
		return "", "", ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(usr.ID)
	if err != nil {
		return "", "", ErrInternal
	}

	// Session rows exist for audit and retention accounting; losing one does
	// not invalidate the issued token pair.
	if u.sessions != nil {
		expiresAt := time.Now().UTC().Add(u.refreshTTL)
		if err := u.sessions.Create(ctx, usr.ID, hashToken(refresh), expiresAt); err != nil {
			u.log.Warn("session record failed", "user_id", usr.ID, "error", err)
		}
	}
	return access, refresh, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
