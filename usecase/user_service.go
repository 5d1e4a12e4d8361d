package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-screener/domain"
)

type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile returns the stored profile, or an empty one for a first-time identity.
func (s *UserService) GetProfile(ctx context.Context, owner string) (domain.User, error) {
	if owner == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	user, err := s.users.GetUser(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{ID: owner}, nil
	}
	return user, err
}

func (s *UserService) UpdateProfile(ctx context.Context, owner string, patch domain.ProfilePatch) (domain.User, error) {
	if owner == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.User{}, domain.Invalid("name", "name cannot be empty")
	}
	return s.users.SaveProfile(ctx, owner, patch)
}

func (s *UserService) UpdateSettings(ctx context.Context, owner string, patch domain.SettingsPatch) (domain.User, error) {
	if owner == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	if patch.Strictness != nil {
		if *patch.Strictness < domain.MinStrictness || *patch.Strictness > domain.MaxStrictness {
			return domain.User{}, domain.Invalid("strictness", fmt.Sprintf("strictness must be between %d and %d", domain.MinStrictness, domain.MaxStrictness))
		}
	}
	if patch.APIKey != nil {
		key := strings.TrimSpace(*patch.APIKey)
		patch.APIKey = &key
	}
	return s.users.SaveSettings(ctx, owner, patch)
}
