package auth

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	jwt *JWTManager
	now func() time.Time
}

func NewService(jwtManager *JWTManager) *Service {
	return &Service{
		jwt: jwtManager,
		now: time.Now,
	}
}

// VerifyToken resolves a bearer credential to a user identity. Every
// rejection reason is collapsed into ErrUnauthorized; callers log the
// specifics, clients only learn that authentication failed.
func (s *Service) VerifyToken(_ context.Context, accessToken string) (Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return Identity{}, ErrUnauthorized
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	if !s.now().Before(claims.ExpiresAt) {
		return Identity{}, ErrUnauthorized
	}

	return Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
