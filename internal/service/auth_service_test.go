package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"web3nav/internal/auth"
	apperrors "web3nav/internal/errors"
	"web3nav/internal/model"
)

// MockAdminUserRepository is a mock implementation of AdminUserRepository.
type MockAdminUserRepository struct {
	mock.Mock
}

func (m *MockAdminUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockAdminUserRepository) Update(ctx context.Context, user *model.AdminUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockAdminUserRepository) FindByID(ctx context.Context, id uint) (*model.AdminUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepository) List(ctx context.Context) ([]model.AdminUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AdminUser), args.Error(1)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestAuthService_Login(t *testing.T) {
	hash := mustHash(t, "awansmith123")
	dbDown := errors.New("dial tcp: connection refused")

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockAdminUserRepository)
		expectedError error
		expectAnyErr  bool
	}{
		{
			name:     "successful login",
			username: "awan",
			password: "awansmith123",
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByUsername", mock.Anything, "awan").Return(&model.AdminUser{ID: 1, Username: "awan", PasswordHash: hash}, nil)
			},
		},
		{
			name:     "unknown username",
			username: "nobody",
			password: "awansmith123",
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "awan",
			password: "guess",
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByUsername", mock.Anything, "awan").Return(&model.AdminUser{ID: 1, Username: "awan", PasswordHash: hash}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "malformed stored hash",
			username: "awan",
			password: "awansmith123",
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByUsername", mock.Anything, "awan").Return(&model.AdminUser{ID: 1, Username: "awan", PasswordHash: "awansmith123"}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "database failure is not reported as bad credentials",
			username: "awan",
			password: "awansmith123",
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByUsername", mock.Anything, "awan").Return(nil, dbDown)
			},
			expectAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAdminUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService)

			session, err := service.Login(context.Background(), tt.username, tt.password)

			switch {
			case tt.expectedError != nil:
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, session)
			case tt.expectAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				require.NotNil(t, session)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, "awan", session.User.Username)

				claims, err := jwtService.Validate(session.Token)
				require.NoError(t, err)
				assert.Equal(t, uint(1), claims.UserID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	hash := mustHash(t, "current-pass")

	tests := []struct {
		name          string
		input         ChangeCredentialsInput
		setupMock     func(*MockAdminUserRepository)
		expectedError error
		wantUsername  string
	}{
		{
			name:  "password only",
			input: ChangeCredentialsInput{CurrentPassword: "current-pass", NewPassword: "brand-new-pass"},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.AdminUser{ID: 7, Username: "awan", PasswordHash: hash}, nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(u *model.AdminUser) bool {
					return u.Username == "awan" && auth.VerifyPassword("brand-new-pass", u.PasswordHash)
				})).Return(nil)
			},
			wantUsername: "awan",
		},
		{
			name:  "password and username",
			input: ChangeCredentialsInput{CurrentPassword: "current-pass", NewPassword: "brand-new-pass", NewUsername: "operator"},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.AdminUser{ID: 7, Username: "awan", PasswordHash: hash}, nil)
				m.On("FindByUsername", mock.Anything, "operator").Return(nil, gorm.ErrRecordNotFound)
				m.On("Update", mock.Anything, mock.MatchedBy(func(u *model.AdminUser) bool {
					return u.Username == "operator"
				})).Return(nil)
			},
			wantUsername: "operator",
		},
		{
			name:  "wrong current password",
			input: ChangeCredentialsInput{CurrentPassword: "nope", NewPassword: "brand-new-pass"},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.AdminUser{ID: 7, Username: "awan", PasswordHash: hash}, nil)
			},
			expectedError: apperrors.ErrWrongPassword,
		},
		{
			name:  "new password too short",
			input: ChangeCredentialsInput{CurrentPassword: "current-pass", NewPassword: "short"},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.AdminUser{ID: 7, Username: "awan", PasswordHash: hash}, nil)
			},
			expectedError: apperrors.ErrWeakPassword,
		},
		{
			name:  "new password longer than bcrypt accepts",
			input: ChangeCredentialsInput{CurrentPassword: "current-pass", NewPassword: strings.Repeat("p", 100)},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.AdminUser{ID: 7, Username: "awan", PasswordHash: hash}, nil)
			},
			expectedError: apperrors.ErrPasswordTooLong,
		},
		{
			name:  "username taken",
			input: ChangeCredentialsInput{CurrentPassword: "current-pass", NewPassword: "brand-new-pass", NewUsername: "root"},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(&model.AdminUser{ID: 7, Username: "awan", PasswordHash: hash}, nil)
				m.On("FindByUsername", mock.Anything, "root").Return(&model.AdminUser{ID: 8, Username: "root"}, nil)
			},
			expectedError: apperrors.ErrUsernameTaken,
		},
		{
			name:  "session for deleted admin",
			input: ChangeCredentialsInput{CurrentPassword: "current-pass", NewPassword: "brand-new-pass"},
			setupMock: func(m *MockAdminUserRepository) {
				m.On("FindByID", mock.Anything, uint(7)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrAdminNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAdminUserRepository)
			tt.setupMock(mockRepo)

			service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"))
			session, err := service.ChangePassword(context.Background(), 7, tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, tt.wantUsername, session.User.Username)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_CreateAdmin(t *testing.T) {
	mockRepo := new(MockAdminUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "awan").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.AdminUser")).Return(nil)

	service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"))
	user, err := service.CreateAdmin(context.Background(), " awan ", "awansmith123")

	require.NoError(t, err)
	assert.Equal(t, "awan", user.Username)
	assert.NotEqual(t, "awansmith123", user.PasswordHash)
	assert.True(t, auth.VerifyPassword("awansmith123", user.PasswordHash))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RejectsOverlongPasswords(t *testing.T) {
	mockRepo := new(MockAdminUserRepository)
	service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"))
	long := strings.Repeat("é", 40) // 80 bytes, 40 characters

	_, err := service.CreateAdmin(context.Background(), "awan", long)
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooLong)

	err = service.SetPassword(context.Background(), "awan", long)
	assert.ErrorIs(t, err, apperrors.ErrPasswordTooLong)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}

func TestAuthService_SetPasswordUnknownUser(t *testing.T) {
	mockRepo := new(MockAdminUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"))
	err := service.SetPassword(context.Background(), "ghost", "long-enough-pass")

	assert.ErrorIs(t, err, apperrors.ErrAdminNotFound)
	mockRepo.AssertExpectations(t)
}
