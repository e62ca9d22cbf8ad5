// Package security verifies the entitlement tokens presented to the blueprint API.
// Tokens are issued elsewhere; this service only checks them.
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMissingToken = errors.New("authorization token required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims represents the entitlement token claims
type Claims struct {
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
	jwt.RegisteredClaims
}

// AuthService validates entitlement tokens
type AuthService struct {
	logger        *zap.Logger
	jwtSecret     []byte
	issuer        string
	elevatedTiers map[string]struct{}
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg *config.Config, logger *zap.Logger) *AuthService {
	tiers := make(map[string]struct{}, len(cfg.Auth.ElevatedTiers))
	for _, t := range cfg.Auth.ElevatedTiers {
		tiers[strings.ToLower(t)] = struct{}{}
	}
	return &AuthService{
		logger:        logger.Named("auth"),
		jwtSecret:     []byte(cfg.Auth.JWTSecret),
		issuer:        cfg.Auth.JWTIssuer,
		elevatedTiers: tiers,
	}
}

// GenerateToken signs a token for a user and tier. Used by tooling and tests.
func (a *AuthService) GenerateToken(userID, tier string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Tier:   tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a bearer token
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no user id", ErrInvalidToken)
	}
	return claims, nil
}

// ParseBearer extracts the token from an Authorization header value
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(parts[1]), nil
}

// IsElevated reports whether a tier may generate blueprints
func (a *AuthService) IsElevated(tier string) bool {
	_, ok := a.elevatedTiers[strings.ToLower(tier)]
	return ok
}
