package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/onlyil/sharingan-design/internal/typeid"
)

var ErrInvalidToken = errors.New("invalid token")

const DefaultTokenTTL = 30 * 24 * time.Hour

// Service issues and checks bearer tokens. Every token names an anonymous
// user whose id is the storage namespace for their designs.
type Service struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewService(jwtSecret string) *Service {
	return &Service{
		jwtSecret: []byte(jwtSecret),
		ttl:       DefaultTokenTTL,
		now:       time.Now,
	}
}

type AuthResult struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// IssueAnonymous creates a fresh user id and a token for it.
func (s *Service) IssueAnonymous() (*AuthResult, error) {
	userID := typeid.NewUserID()
	exp := s.now().Add(s.ttl)
	token, err := s.issueToken(userID, exp)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: userID, ExpiresAt: exp.Unix()}, nil
}

func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || typeid.Validate(userID, typeid.PrefixUser) != nil {
		return "", fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return userID, nil
}

func (s *Service) issueToken(userID string, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": s.now().Unix(),
		"exp": exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
