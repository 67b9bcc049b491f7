package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aapiden/storefront/internal/auth"
	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
)

const (
	minPasswordLength = 8
	minPhoneLength    = 8
	minNameLength     = 8
)

// errBadCredentials is the same for an unknown e-mail and a wrong password.
var errBadCredentials = fmt.Errorf("%w: invalid e-mail or password", domain.ErrUnauthorized)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=8"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=8"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest carries the admin changes. Nil fields are left untouched.
type UpdateUserRequest struct {
	Role         *domain.Role `json:"role,omitempty" validate:"omitempty,oneof=admin client"`
	FreeShipping *bool        `json:"freeShipping,omitempty"`
}

// Session is what sign-in endpoints return.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger
}

func NewUserService(stores Stores, tokens TokenIssuer, logger *slog.Logger) *UserService {
	return &UserService{users: stores.Users, tokens: tokens, logger: logger}
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if err := validateProfile(req.Name, req.Email, req.Phone); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         domain.RoleClient,
	}
	if err := s.users.Create(ctx, user); err != nil {
		logFailure(ctx, s.logger, "register user failed", err, "email", user.Email)
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.Hex())
	return s.session(user)
}

func (s *UserService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		logFailure(ctx, s.logger, "login failed", err)
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "password check failed", "user_id", user.ID.Hex(), "error", err)
		return nil, errBadCredentials
	}
	if !ok {
		return nil, errBadCredentials
	}
	return s.session(user)
}

// Renew re-issues a token with the stored role and shipping flag.
func (s *UserService) Renew(ctx context.Context, actor domain.Actor) (*Session, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		logFailure(ctx, s.logger, "renew token failed", err, "user_id", actor.UserID.Hex())
		return nil, err
	}
	return s.session(user)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, userID string, req UpdateProfileRequest) (*Session, error) {
	user, err := s.ownAccount(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if err := validateProfile(req.Name, req.Email, req.Phone); err != nil {
		return nil, err
	}
	if err := s.verifyPassword(ctx, user, req.Password); err != nil {
		return nil, err
	}

	name, email, phone := strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Phone)
	if err := s.users.UpdateProfile(ctx, user.ID, name, phone, email); err != nil {
		logFailure(ctx, s.logger, "update profile failed", err, "user_id", userID)
		return nil, err
	}
	user.Name, user.Email, user.Phone = name, email, phone
	return s.session(user)
}

// CheckPassword confirms the current password before a password change.
func (s *UserService) CheckPassword(ctx context.Context, actor domain.Actor, userID, oldPassword string) (*domain.User, error) {
	if len(oldPassword) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	user, err := s.ownAccount(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyPassword(ctx, user, oldPassword); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, actor domain.Actor, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	user, err := s.CheckPassword(ctx, actor, userID, oldPassword)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		logFailure(ctx, s.logger, "update password failed", err, "user_id", userID)
		return err
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, page domain.PageRequest) (*domain.Page[domain.User], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		logFailure(ctx, s.logger, "list users failed", err)
		return nil, err
	}
	return domain.NewPage(users, total, page), nil
}

// UpdateUser changes role and free shipping. An admin cannot demote itself.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Actor, userID string, req UpdateUserRequest) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	id, err := domain.ParseID(userID)
	if err != nil {
		return err
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return fmt.Errorf("%w: role %q is not allowed", domain.ErrInvalidInput, *req.Role)
		}
		if id == actor.UserID && *req.Role == domain.RoleClient {
			return fmt.Errorf("%w: you cannot change your own role from admin to client", domain.ErrInvalidInput)
		}
	}
	if req.Role == nil && req.FreeShipping == nil {
		return nil
	}

	if err := s.users.UpdateRoleAndShipping(ctx, id, req.Role, req.FreeShipping); err != nil {
		logFailure(ctx, s.logger, "update user failed", err, "user_id", userID)
		return err
	}
	s.logger.InfoContext(ctx, "user updated", "user_id", userID, "by", actor.UserID.Hex())
	return nil
}

func (s *UserService) ownAccount(ctx context.Context, actor domain.Actor, userID string) (*domain.User, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(userID)
	if err != nil {
		return nil, err
	}
	if id != actor.UserID {
		return nil, fmt.Errorf("%w: you can only change your own account", domain.ErrForbidden)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		logFailure(ctx, s.logger, "load user failed", err, "user_id", userID)
		return nil, err
	}
	return user, nil
}

func (s *UserService) verifyPassword(ctx context.Context, user *domain.User, password string) error {
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.ErrorContext(ctx, "password check failed", "user_id", user.ID.Hex(), "error", err)
	}
	if err != nil || !ok {
		return fmt.Errorf("%w: the current password is not valid", domain.ErrInvalidInput)
	}
	return nil
}

func (s *UserService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func validateProfile(name, email, phone string) error {
	switch {
	case len(strings.TrimSpace(phone)) < minPhoneLength:
		return fmt.Errorf("%w: phone must be at least %d characters", domain.ErrInvalidInput, minPhoneLength)
	case len(strings.TrimSpace(name)) < minNameLength:
		return fmt.Errorf("%w: full name must be at least %d characters", domain.ErrInvalidInput, minNameLength)
	}
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return fmt.Errorf("%w: e-mail address is not valid", domain.ErrInvalidInput)
	}
	return nil
}
