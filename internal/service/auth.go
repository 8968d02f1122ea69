package service

import (
	"errors"
	"time"

	"github.com/klass-lk/blogboot/internal/model"
	"github.com/klass-lk/blogboot/internal/security"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/token"
)

// AuthService verifies the operator secret and manages the token lifecycle.
// There is a single operator identity; the secret is either a plain value or
// a bcrypt hash, configured at startup.
type AuthService struct {
	tokens       *token.Service
	encoder      security.PasswordEncoder
	password     string
	passwordHash string
}

func NewAuthService(tokens *token.Service, password, passwordHash string) *AuthService {
	return &AuthService{
		tokens:       tokens,
		encoder:      security.NewBcryptEncoder(),
		password:     password,
		passwordHash: passwordHash,
	}
}

func (s *AuthService) verifyPassword(submitted string) error {
	if s.passwordHash != "" {
		if s.encoder.IsMatching(s.passwordHash, submitted) {
			return nil
		}
		return server.ErrInvalidCredentials
	}
	if s.password == "" {
		return server.ErrServerConfig
	}
	if security.PlainEqual(s.password, submitted) {
		return nil
	}
	return server.ErrInvalidCredentials
}

func (s *AuthService) issuePair(ip string) (model.TokenResponse, error) {
	payload := token.Payload{
		Role:      "admin",
		LoginTime: time.Now().UTC().Format(time.RFC3339),
		IP:        ip,
	}
	access, err := s.tokens.IssueAccess(payload)
	if err != nil {
		return model.TokenResponse{}, err
	}
	refresh, err := s.tokens.IssueRefresh(payload)
	if err != nil {
		return model.TokenResponse{}, err
	}
	return model.TokenResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Login exchanges the operator secret for a token pair.
func (s *AuthService) Login(password, ip string) (model.TokenResponse, error) {
	if err := s.verifyPassword(password); err != nil {
		return model.TokenResponse{}, err
	}
	response, err := s.issuePair(ip)
	if err != nil {
		if errors.Is(err, token.ErrMissingSecret) {
			return model.TokenResponse{}, server.ErrServerConfig
		}
		return model.TokenResponse{}, err
	}
	return response, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays usable until it expires or logout revokes it.
func (s *AuthService) Refresh(refreshToken, ip string) (model.TokenResponse, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return model.TokenResponse{}, server.ErrTokenExpired
		case errors.Is(err, token.ErrMissingSecret):
			return model.TokenResponse{}, server.ErrServerConfig
		default:
			return model.TokenResponse{}, server.ErrInvalidToken
		}
	}
	if claims.Type != token.TypeRefresh {
		return model.TokenResponse{}, server.ErrInvalidTokenType
	}

	access, err := s.tokens.IssueAccess(claims.Payload())
	if err != nil {
		return model.TokenResponse{}, err
	}
	return model.TokenResponse{
		Token:     access,
		ExpiresIn: int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the presented access token.
func (s *AuthService) Logout(accessToken string) error {
	return s.tokens.Revoke(accessToken)
}
