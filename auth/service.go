package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minSecretLength = 16

var (
	// ErrInvalidCredentials signals an unknown client or a wrong secret.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakSecret signals a client secret that is too short to hash.
	ErrWeakSecret = errors.New("auth: client secret must be at least 16 characters")
	// ErrInvalidToken signals a token that failed verification.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Service issues and verifies bearer tokens.
type Service struct {
	clients   Clients
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// TokenResult bundles the signed token with what it asserts.
type TokenResult struct {
	Token  string
	Claims Claims
}

func NewService(clients Clients, jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		clients:   clients,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Exchange authenticates a client by secret and returns a token for it.
func (s *Service) Exchange(ctx context.Context, req TokenRequest) (TokenResult, error) {
	if req.ClientID == "" || req.ClientSecret == "" {
		return TokenResult{}, ErrInvalidCredentials
	}
	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return TokenResult{}, ErrInvalidCredentials
		}
		return TokenResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(req.ClientSecret)); err != nil {
		return TokenResult{}, ErrInvalidCredentials
	}

	return s.Issue(client.ID, client.CompanyID, client.Role)
}

// Issue signs a token for subject. Carrier tokens must name a company.
func (s *Service) Issue(subject, companyID string, role Role) (TokenResult, error) {
	if !isValidRole(role) {
		return TokenResult{}, fmt.Errorf("auth: invalid role %q", role)
	}
	if role == RoleCarrier && companyID == "" {
		return TokenResult{}, fmt.Errorf("auth: carrier token requires a company id")
	}

	now := s.now()
	claims := Claims{
		Subject:   subject,
		CompanyID: companyID,
		Role:      role,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        subject,
		"company_id": companyID,
		"role":       string(role),
		"exp":        claims.ExpiresAt.Unix(),
		"iat":        now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return TokenResult{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return TokenResult{Token: signed, Claims: claims}, nil
}

// VerifyToken validates a token and returns its claims.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	subject, _ := mc["sub"].(string)
	companyID, _ := mc["company_id"].(string)
	roleStr, _ := mc["role"].(string)
	role := Role(roleStr)
	if !isValidRole(role) {
		return Claims{}, fmt.Errorf("%w: role %q", ErrInvalidToken, roleStr)
	}
	if role == RoleCarrier && companyID == "" {
		return Claims{}, fmt.Errorf("%w: carrier token without company", ErrInvalidToken)
	}

	claims := Claims{Subject: subject, CompanyID: companyID, Role: role}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleCarrier, RoleOperator:
		return true
	default:
		return false
	}
}
