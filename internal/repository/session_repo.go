package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pipedash/internal/model"
	pkgErrors "pipedash/pkg/errors"
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// FindActive 查询未过期的会话并加载用户
	FindActive(ctx context.Context, id string, now time.Time) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建会话失败", err)
	}
	return nil
}

func (r *sessionRepository) FindActive(ctx context.Context, id string, now time.Time) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND expires_at > ?", id, now).
		First(&session).Error
	if err != nil {
		return nil, wrapFindErr(err, "查询会话失败")
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Session{}).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除会话失败", err)
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	if result.Error != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "清理过期会话失败", result.Error)
	}
	return result.RowsAffected, nil
}
