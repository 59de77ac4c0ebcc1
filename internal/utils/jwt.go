package utils // package utils provides helpers for token issuing, hashing and sanitising

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type values carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for any token that fails signature, expiry,
// issuer or type checks.  Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload for both token kinds.  Subject holds the
// username; Role is empty on refresh tokens.
type Claims struct {
	UserID uint64 `json:"uid"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a signed token together with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenSubject is the identity a token is issued for.
type TokenSubject struct {
	ID       uint64
	Username string
	Role     string
}

// TokenService signs and verifies HS256 tokens with a server held secret.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a TokenService.  accessTTL should be short (minutes)
// and refreshTTL long (days).
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateAccessToken issues a short lived token carrying the user's role.
func (s *TokenService) GenerateAccessToken(sub TokenSubject) (Token, error) {
	return s.sign(sub, TokenTypeAccess, sub.Role, s.accessTTL)
}

// GenerateRefreshToken issues a long lived token without a role claim, so a
// leaked refresh token cannot be replayed as a privileged bearer token.
func (s *TokenService) GenerateRefreshToken(sub TokenSubject) (Token, error) {
	return s.sign(sub, TokenTypeRefresh, "", s.refreshTTL)
}

// ParseAccessToken verifies raw and requires it to be an access token.
func (s *TokenService) ParseAccessToken(raw string) (*Claims, error) {
	return s.parse(raw, TokenTypeAccess)
}

// ParseRefreshToken verifies raw and requires it to be a refresh token.
func (s *TokenService) ParseRefreshToken(raw string) (*Claims, error) {
	return s.parse(raw, TokenTypeRefresh)
}

// ExtractUsername verifies an access token and returns its subject.
func (s *TokenService) ExtractUsername(raw string) (string, error) {
	claims, err := s.ParseAccessToken(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) sign(sub TokenSubject, typ, role string, ttl time.Duration) (Token, error) {
	if sub.Username == "" {
		return Token{}, fmt.Errorf("sign %s token: empty subject", typ)
	}
	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: sub.ID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.Username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

func (s *TokenService) parse(raw, typ string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
