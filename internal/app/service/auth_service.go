package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"codele_backend/internal/common"
	"codele_backend/internal/common/security"
	"codele_backend/internal/domain/model"
)

// AuthService authenticates the single operator account configured via
// environment. Content curation is a one-admin surface; there is no user
// table.
type AuthService struct {
	adminUsername     string
	adminPasswordHash string
}

func NewAuthService(adminUsername, adminPasswordHash string) *AuthService {
	return &AuthService{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}
	if s.adminPasswordHash == "" {
		return nil, fmt.Errorf("admin password hash is not configured: %w", common.ErrInternalServer)
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.adminUsername)) == 1
	if !usernameMatch || !security.CheckPasswordHash(req.Password, s.adminPasswordHash) {
		return nil, common.ErrUnauthorized // Generic message for security
	}

	token, err := security.GenerateToken(s.adminUsername, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Username: s.adminUsername, Role: model.RoleAdmin, Token: token}, nil
}
