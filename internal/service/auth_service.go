package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"web3nav/internal/auth"
	"web3nav/internal/errors"
	"web3nav/internal/model"
	"web3nav/internal/repository"
)

// MinPasswordLength applies to every password set through the service.
const MinPasswordLength = 8

// timingHash is compared against when the username does not exist so that a
// miss costs the same bcrypt work as a wrong password.
var timingHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("web3nav-timing-equaliser")
	return hash
})

// Session is the outcome of a successful login or credential change.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.AdminUser
}

// ChangeCredentialsInput carries a change-password request.
type ChangeCredentialsInput struct {
	CurrentPassword string
	NewPassword     string
	NewUsername     string
}

// AuthService handles admin authentication operations.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	CurrentUser(ctx context.Context, userID uint) (*model.AdminUser, error)
	ChangePassword(ctx context.Context, userID uint, in ChangeCredentialsInput) (*Session, error)

	// Provisioning, used by the navadmin CLI.
	CreateAdmin(ctx context.Context, username, password string) (*model.AdminUser, error)
	SetPassword(ctx context.Context, username, password string) error
	ListAdmins(ctx context.Context) ([]model.AdminUser, error)
}

type authService struct {
	repo       repository.AdminUserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(repo repository.AdminUserRepository, jwtService *auth.JWTService) AuthService {
	return &authService{
		repo:       repo,
		jwtService: jwtService,
	}
}

// Login verifies the credentials and issues a session token. Unknown users
// and wrong passwords both yield errors.ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			auth.VerifyPassword(password, timingHash())
			return nil, errors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find admin user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, errors.ErrInvalidCredentials
	}

	return s.issue(user)
}

// CurrentUser loads the admin behind a validated session.
func (s *authService) CurrentUser(ctx context.Context, userID uint) (*model.AdminUser, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password and optionally the username of the
// signed-in admin. A fresh token is issued because the username is a claim.
func (s *authService) ChangePassword(ctx context.Context, userID uint, in ChangeCredentialsInput) (*Session, error) {
	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(in.CurrentPassword, user.PasswordHash) {
		return nil, errors.ErrWrongPassword
	}
	if err := checkPassword(in.NewPassword); err != nil {
		return nil, err
	}

	newUsername := strings.TrimSpace(in.NewUsername)
	if newUsername != "" && newUsername != user.Username {
		if err := s.ensureUsernameFree(ctx, newUsername); err != nil {
			return nil, err
		}
		user.Username = newUsername
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("update admin user: %w", err)
	}

	return s.issue(user)
}

// CreateAdmin provisions a new admin account.
func (s *authService) CreateAdmin(ctx context.Context, username, password string) (*model.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.AdminUser{Username: username, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create admin user: %w", err)
	}
	return user, nil
}

// SetPassword overwrites the password hash of an existing admin.
func (s *authService) SetPassword(ctx context.Context, username, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrAdminNotFound
		}
		return fmt.Errorf("find admin user: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("update admin user: %w", err)
	}
	return nil
}

// ListAdmins returns every admin account.
func (s *authService) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	return users, nil
}

func (s *authService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return errors.ErrUsernameTaken
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return fmt.Errorf("check username: %w", err)
	}
}

func (s *authService) issue(user *model.AdminUser) (*Session, error) {
	token, expiresAt, err := s.jwtService.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// checkPassword enforces the length bounds on a new password. The upper bound
// is in bytes because that is what bcrypt limits.
func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, errors.ErrWeakPassword)
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("password must be at most %d bytes: %w", auth.MaxPasswordBytes, errors.ErrPasswordTooLong)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", errors.ErrPasswordTooLong
	}
	return hash, err
}
