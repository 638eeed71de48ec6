package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"hiremate-backend/internal/shared/auth"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Upsert stores the caller's identity so notifications can reach them.
func (s *Service) Upsert(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	user.ID = strings.TrimSpace(user.ID)
	user.Email = strings.TrimSpace(user.Email)
	user.Name = strings.TrimSpace(user.Name)
	if user.ID == "" || user.Email == "" {
		return User{}, fmt.Errorf("%w: id and email are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return User{}, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = auth.RoleJobSeeker
	}
	if !auth.ValidRole(user.Role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, user.Role)
	}
	if err := s.Repo.Upsert(ctx, user); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, user.ID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

// Contact returns the address and display name used for notifications.
func (s *Service) Contact(ctx context.Context, userID string) (email, name string, err error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return u.Email, u.DisplayName(), nil
}
