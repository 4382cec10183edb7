package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeRefresh marks a token that is only valid at the refresh endpoint
const TokenTypeRefresh = "refresh"

var (
	ErrMissingConfig  = errors.New("JWT configuration not provided")
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// UserClaims is the payload of self-issued tokens. Subject carries the user id.
type UserClaims struct {
	Email     string `json:"email,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	Role      string `json:"role,omitempty"`
	Type      string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// IsRefresh reports whether the claims belong to a refresh token
func (c *UserClaims) IsRefresh() bool {
	return c.Type == TokenTypeRefresh
}

// TokenPair is an access token with its matching refresh token
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(config *JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: config,
		now:    time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (j *JWTUtil) WithClock(now func() time.Time) *JWTUtil {
	j.now = now
	return j
}

// GenerateAccessToken signs an access token for a user
func (j *JWTUtil) GenerateAccessToken(userID, email, companyID, role string) (string, error) {
	if j.config == nil {
		return "", ErrMissingConfig
	}
	return j.sign(UserClaims{
		Email:            email,
		CompanyID:        companyID,
		Role:             role,
		RegisteredClaims: j.registered(userID, j.config.AccessTTL),
	})
}

// GenerateRefreshToken signs a refresh-only token for a user
func (j *JWTUtil) GenerateRefreshToken(userID, companyID string) (string, error) {
	if j.config == nil {
		return "", ErrMissingConfig
	}
	return j.sign(UserClaims{
		CompanyID:        companyID,
		Type:             TokenTypeRefresh,
		RegisteredClaims: j.registered(userID, j.config.RefreshTTL),
	})
}

// GeneratePair issues access and refresh tokens together
func (j *JWTUtil) GeneratePair(userID, email, companyID, role string) (*TokenPair, error) {
	access, err := j.GenerateAccessToken(userID, email, companyID, role)
	if err != nil {
		return nil, err
	}
	refresh, err := j.GenerateRefreshToken(userID, companyID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(j.config.AccessTTL / time.Second),
	}, nil
}

func (j *JWTUtil) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := j.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (j *JWTUtil) sign(claims UserClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.Secret))
}

// ValidateToken checks signature and expiry of any self-issued token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, ErrMissingConfig
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken rejects refresh tokens
func (j *JWTUtil) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ValidateRefreshToken accepts only refresh tokens
func (j *JWTUtil) ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
