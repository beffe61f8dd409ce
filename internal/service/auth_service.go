package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"edu-platform/internal/model"
	"edu-platform/pkg/apierror"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

type tokenIssuer interface {
	Issue(user model.AuthUser) (string, time.Time, error)
}

type roleSet interface {
	HasRole(role string) bool
	DefaultRole() string
}

const roleAdmin = "admin"

type AuthService struct {
	users  userStore
	tokens tokenIssuer
	roles  roleSet
}

func NewAuthService(users userStore, tokens tokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// SetRoles enables role checks: users whose stored role is not configured are
// treated as the default role, and the admin role must exist before seeding.
func (s *AuthService) SetRoles(roles roleSet) {
	s.roles = roles
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Session{}, apierror.Validation("email and password are required", "")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		var apiErr *apierror.Error
		if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindNotFound {
			return model.Session{}, apierror.Unauthorized("invalid credentials")
		}
		return model.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.Session{}, apierror.Unauthorized("invalid credentials")
	}

	public := s.publicUser(user)
	token, expiresAt, err := s.tokens.Issue(public)
	if err != nil {
		return model.Session{}, err
	}

	return model.Session{Token: token, ExpiresAt: expiresAt, User: public}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return s.publicUser(user), nil
}

// EnsureAdmin seeds the bootstrap administrator once. Existing accounts are
// left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	if s.roles != nil && !s.roles.HasRole(roleAdmin) {
		return fmt.Errorf("role %q is not configured", roleAdmin)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	if err := s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hash),
		Role:         roleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return err
	}

	slog.Info("bootstrap admin created", "email", email)
	return nil
}

func (s *AuthService) publicUser(user model.User) model.AuthUser {
	public := user.Public()
	if s.roles != nil && !s.roles.HasRole(public.Role) {
		public.Role = s.roles.DefaultRole()
	}
	return public
}
