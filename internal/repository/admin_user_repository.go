package repository

import (
	"context"

	"gorm.io/gorm"

	"web3nav/internal/model"
	"web3nav/internal/retry"
)

// AdminUserRepository defines admin user persistence operations.
type AdminUserRepository interface {
	Create(ctx context.Context, user *model.AdminUser) error
	Update(ctx context.Context, user *model.AdminUser) error
	FindByID(ctx context.Context, id uint) (*model.AdminUser, error)
	FindByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	List(ctx context.Context) ([]model.AdminUser, error)
}

type adminUserRepository struct {
	db   *gorm.DB
	exec *retry.Executor
}

// NewAdminUserRepository creates a new admin user repository.
func NewAdminUserRepository(db *gorm.DB, exec *retry.Executor) AdminUserRepository {
	return &adminUserRepository{db: db, exec: exec}
}

// Create creates a new admin user.
func (r *adminUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	return r.exec.Execute(ctx, retry.KindInsert, "create admin user", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Create(user).Error
	})
}

// Update writes username and password hash of an existing admin user.
func (r *adminUserRepository) Update(ctx context.Context, user *model.AdminUser) error {
	return r.exec.Execute(ctx, retry.KindIdempotentWrite, "update admin user", func(ctx context.Context) error {
		return r.db.WithContext(ctx).Model(&model.AdminUser{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"username":      user.Username,
				"password_hash": user.PasswordHash,
			}).Error
	})
}

// FindByID finds an admin user by ID.
func (r *adminUserRepository) FindByID(ctx context.Context, id uint) (*model.AdminUser, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "find admin user", func(ctx context.Context) (*model.AdminUser, error) {
		var user model.AdminUser
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// FindByUsername finds an admin user by username.
func (r *adminUserRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "find admin user by username", func(ctx context.Context) (*model.AdminUser, error) {
		var user model.AdminUser
		if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	})
}

// List lists all admin users.
func (r *adminUserRepository) List(ctx context.Context) ([]model.AdminUser, error) {
	return retry.Query(ctx, r.exec, retry.KindRead, "list admin users", func(ctx context.Context) ([]model.AdminUser, error) {
		var users []model.AdminUser
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
			return nil, err
		}
		return users, nil
	})
}
