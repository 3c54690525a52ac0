package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	issuer = "nutrisync"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"token_type"`

	jwtlib.RegisteredClaims
}

type Service interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	ValidateAccessToken(tokenString string) (Claims, error)
	ValidateRefreshToken(tokenString string) (Claims, error)
}

type HMACService struct {
	accessSecret  []byte
	refreshSecret []byte

	accessExpiresIn  time.Duration
	refreshExpiresIn time.Duration

	now func() time.Time
}

func NewHMACService(accessSecret, refreshSecret string, accessExpiresIn, refreshExpiresIn time.Duration) *HMACService {
	return &HMACService{
		accessSecret:     []byte(accessSecret),
		refreshSecret:    []byte(refreshSecret),
		accessExpiresIn:  accessExpiresIn,
		refreshExpiresIn: refreshExpiresIn,
		now:              time.Now,
	}
}

func (s *HMACService) GenerateAccessToken(userID uuid.UUID, email string) (string, error) {
	return s.generate(TokenTypeAccess, userID, email)
}

func (s *HMACService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return s.generate(TokenTypeRefresh, userID, "")
}

func (s *HMACService) ValidateAccessToken(tokenString string) (Claims, error) {
	c, err := s.validateWithSecret(tokenString, s.accessSecret)
	if err != nil {
		return Claims{}, err
	}
	if c.TokenType != TokenTypeAccess {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func (s *HMACService) ValidateRefreshToken(tokenString string) (Claims, error) {
	c, err := s.validateWithSecret(tokenString, s.refreshSecret)
	if err != nil {
		return Claims{}, err
	}
	if c.TokenType != TokenTypeRefresh {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func (s *HMACService) generate(tokenType string, userID uuid.UUID, email string) (string, error) {
	now := s.now().UTC()
	secret, expIn, err := s.secretAndExpiry(tokenType)
	if err != nil {
		return "", err
	}

	c := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(expIn)),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(secret)
}

func (s *HMACService) validateWithSecret(tokenString string, secret []byte) (Claims, error) {
	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	if c.TokenType != TokenTypeAccess && c.TokenType != TokenTypeRefresh {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

func (s *HMACService) secretAndExpiry(tokenType string) ([]byte, time.Duration, error) {
	switch tokenType {
	case TokenTypeAccess:
		if len(s.accessSecret) == 0 || s.accessExpiresIn <= 0 {
			return nil, 0, ErrTokenInvalid
		}
		return s.accessSecret, s.accessExpiresIn, nil
	case TokenTypeRefresh:
		if len(s.refreshSecret) == 0 || s.refreshExpiresIn <= 0 {
			return nil, 0, ErrTokenInvalid
		}
		return s.refreshSecret, s.refreshExpiresIn, nil
	default:
		return nil, 0, ErrTokenInvalid
	}
}

var _ Service = (*HMACService)(nil)
