package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// TokenClaims is the claim set of both access and refresh tokens.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenPair is handed to the client after sign-up, sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenCodec signs and verifies HS256 bearer tokens. Access and refresh
// tokens use different secrets so one can never stand in for the other.
type TokenCodec struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func NewTokenCodec(cfg config.JWTConfig) *TokenCodec {
	return &TokenCodec{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
	}
}

// RefreshTTL is how long a refresh token, and so a session, stays valid.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// Issue signs a token for subjectID. Every token gets a fresh jti, so two
// tokens issued for the same user in the same second still differ.
func (c *TokenCodec) Issue(subjectID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        ulid.Make().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. An expired token yields
// ErrTokenExpired; anything else that is wrong yields ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString, secret string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.WrapError(apperrors.ErrTokenExpired, err)
		}
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}

func (c *TokenCodec) VerifyAccess(tokenString string) (*TokenClaims, error) {
	return c.Verify(tokenString, c.accessSecret)
}

func (c *TokenCodec) VerifyRefresh(tokenString string) (*TokenClaims, error) {
	return c.Verify(tokenString, c.refreshSecret)
}

// IssuePair signs a fresh access and refresh token for the user.
func (c *TokenCodec) IssuePair(subjectID, email string) (*TokenPair, error) {
	access, err := c.Issue(subjectID, email, c.accessSecret, c.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := c.Issue(subjectID, email, c.refreshSecret, c.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(c.accessTTL / time.Second),
	}, nil
}
