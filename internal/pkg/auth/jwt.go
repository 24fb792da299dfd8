package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yigit/servicedesk/internal/app/models"
)

// JWT errors
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
	ErrInvalidFormat = errors.New("invalid token format")
)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey      string
	AccessTokenExp time.Duration
	TokenIssuer    string
}

// JWTService handles JWT operations
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{
		config: config,
		now:    time.Now,
	}
}

// Claims identifies a student or a worker; Role is empty for students
type Claims struct {
	PrincipalID int64                `json:"pid"`
	Kind        models.PrincipalKind `json:"kind"`
	Role        models.WorkerRole    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller derived from a token
type Principal struct {
	ID   int64
	Kind models.PrincipalKind
	Role models.WorkerRole
}

// IsAdmin reports whether the principal is an admin worker
func (p Principal) IsAdmin() bool {
	return p.Kind == models.PrincipalWorker && p.Role == models.RoleAdmin
}

// GenerateAccessToken signs a token for p and returns it with its lifetime in seconds
func (s *JWTService) GenerateAccessToken(p Principal) (string, int64, error) {
	now := s.now()
	claims := &Claims{
		PrincipalID: p.ID,
		Kind:        p.Kind,
		Role:        p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.TokenIssuer,
			Subject:   string(p.Kind) + ":" + strconv.FormatInt(p.ID, 10),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create access token: %w", err)
	}
	return signed, int64(s.config.AccessTokenExp.Seconds()), nil
}

// ValidateToken parses and verifies a token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	}, jwt.WithIssuer(s.config.TokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.PrincipalID <= 0 {
		return nil, ErrInvalidToken
	}
	switch claims.Kind {
	case models.PrincipalStudent:
		if claims.Role != "" {
			return nil, ErrInvalidToken
		}
	case models.PrincipalWorker:
		if !claims.Role.Valid() {
			return nil, ErrInvalidToken
		}
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Principal converts verified claims
func (c *Claims) Principal() Principal {
	return Principal{ID: c.PrincipalID, Kind: c.Kind, Role: c.Role}
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", ErrInvalidFormat
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), nil
	}
	// Raw JWTs are accepted for API clients that skip the scheme
	if strings.Count(authHeader, ".") == 2 {
		return authHeader, nil
	}
	return "", ErrInvalidFormat
}
