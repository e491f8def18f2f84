package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pipedash/internal/model"
	pkgErrors "pipedash/pkg/errors"
)

type UserRepository interface {
	// UpsertByProviderID 按 GitLab 用户 id 创建或刷新资料，返回库中的记录
	UpsertByProviderID(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByProviderID(ctx context.Context, providerID int64) (*model.User, error)
	UpdateRole(ctx context.Context, id int64, role model.Role) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) UpsertByProviderID(ctx context.Context, user *model.User) (*model.User, error) {
	if user.LastLoginAt == nil {
		now := time.Now()
		user.LastLoginAt = &now
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	// role 不随登录覆盖
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "email", "avatar_url", "last_login_at", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存用户失败", err)
	}

	return r.FindByProviderID(ctx, user.ProviderID)
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrapFindErr(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) FindByProviderID(ctx context.Context, providerID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&user).Error; err != nil {
		return nil, wrapFindErr(err, "查询用户失败")
	}
	return &user, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("role", role).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新用户角色失败", err)
	}
	return nil
}
