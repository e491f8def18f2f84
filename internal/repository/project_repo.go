package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pipedash/internal/model"
	pkgErrors "pipedash/pkg/errors"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	// Upsert 按 remote_id 创建或更新名称与地址
	Upsert(ctx context.Context, project *model.Project) (*model.Project, error)
	FindByID(ctx context.Context, id int64, opts ...QueryOption) (*model.Project, error)
	FindByRemoteID(ctx context.Context, remoteID int64) (*model.Project, error)
	// List 按创建时间倒序，每个项目附带最近 pipelineLimit 条流水线；userID 为 0 时不过滤
	List(ctx context.Context, userID int64, pipelineLimit int) ([]model.Project, error)
	ListByStatus(ctx context.Context, statuses ...model.ProjectStatus) ([]model.Project, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	// DeleteWithPipelines 在同一事务中删除流水线与项目
	DeleteWithPipelines(ctx context.Context, id int64) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建项目失败", err)
	}
	return nil
}

func (r *projectRepository) Upsert(ctx context.Context, project *model.Project) (*model.Project, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "remote_url", "updated_at"}),
	}).Create(project).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存项目失败", err)
	}
	return r.FindByRemoteID(ctx, project.RemoteID)
}

func (r *projectRepository) FindByID(ctx context.Context, id int64, opts ...QueryOption) (*model.Project, error) {
	var project model.Project
	query := applyOptions(r.db.WithContext(ctx), opts)
	if err := query.First(&project, id).Error; err != nil {
		return nil, wrapFindErr(err, "查询项目失败")
	}
	return &project, nil
}

func (r *projectRepository) FindByRemoteID(ctx context.Context, remoteID int64) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&project).Error; err != nil {
		return nil, wrapFindErr(err, "查询项目失败")
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, userID int64, pipelineLimit int) ([]model.Project, error) {
	var projects []model.Project
	query := r.db.WithContext(ctx).Model(&model.Project{}).Preload("User")
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}

	if pipelineLimit <= 0 {
		return projects, nil
	}

	// Preload 的 limit 作用于整个查询，这里逐个项目取最近的流水线
	for i := range projects {
		var pipelines []model.Pipeline
		err := r.db.WithContext(ctx).
			Where("project_id = ?", projects[i].ID).
			Order("created_at DESC").
			Limit(pipelineLimit).
			Find(&pipelines).Error
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目流水线失败", err)
		}
		projects[i].Pipelines = pipelines
	}

	return projects, nil
}

func (r *projectRepository) ListByStatus(ctx context.Context, statuses ...model.ProjectStatus) ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).Where("status IN ?", statuses).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}
	return projects, nil
}

func (r *projectRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新项目失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) DeleteWithPipelines(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.Pipeline{}).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除项目流水线失败", err)
		}
		result := tx.Delete(&model.Project{}, id)
		if result.Error != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除项目失败", result.Error)
		}
		if result.RowsAffected == 0 {
			return pkgErrors.ErrRecordNotFound
		}
		return nil
	})
}
