// internal/pkg/jwt/jwt.go
package jwt

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	TokenTypeAgent = "agent"
	Issuer         = "safepay-wallet"
)

// Scopes an agent token may carry.
const (
	ScopePaymentMethodsRead = "payment_methods:read"
	ScopeChargesCheck       = "charges:check"
)

// DefaultScopes grants both payment operations.
var DefaultScopes = []string{ScopePaymentMethodsRead, ScopeChargesCheck}

// Claims represents agent JWT claims
type Claims struct {
	AgentID string   `json:"agent_id"`
	Scopes  []string `json:"scopes"`
	Type    string   `json:"type"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants scope
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// Service handles JWT operations
type Service struct {
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewService creates JWT service
func NewService(secret string, tokenTTL time.Duration) *Service {
	return &Service{secret: []byte(secret), tokenTTL: tokenTTL, now: time.Now}
}

// GenerateAgentToken issues a token for a calling agent
func (s *Service) GenerateAgentToken(agentID string, scopes []string) (string, error) {
	if agentID == "" {
		return "", errors.New("agent id is required")
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	now := s.now()
	claims := Claims{
		AgentID: agentID,
		Scopes:  scopes,
		Type:    TokenTypeAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   agentID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAgentToken validates and parses an agent token
func (s *Service) ValidateAgentToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != TokenTypeAgent || claims.AgentID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) GetTokenTTL() time.Duration { return s.tokenTTL }
