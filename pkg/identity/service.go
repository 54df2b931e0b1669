package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the token payload.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

// New returns ErrMissingSigningKey when cfg.Secret is empty.
func New(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSigningKey
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Issue signs a token for subject with the configured lifetime.
func (s *Service) Issue(subject, role string) (string, error) {
	return s.IssueWithTTL(subject, role, s.ttl)
}

// IssueWithTTL signs a token that expires after ttl.
func (s *Service) IssueWithTTL(subject, role string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrMissingSubject
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse verifies the signature, algorithm, expiry and issuer of token.
func (s *Service) Parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Join(ErrExpiredToken, err)
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
