package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pipedash/internal/model"
	pkgErrors "pipedash/pkg/errors"
)

type PipelineRepository interface {
	Create(ctx context.Context, pipeline *model.Pipeline) error
	// Upsert 按 remote_id 插入或覆盖状态字段；载荷缺失的时间与耗时保留已有值，
	// 未结束的流水线（含重试）清空完成时间与耗时
	//
	// 后写覆盖先写，不比较版本或时间戳：webhook 与拉取同时到达且乱序时，
	// 较旧的状态可能覆盖较新的状态，直到下一次事件或拉取修正。
	Upsert(ctx context.Context, pipeline *model.Pipeline) (*model.Pipeline, error)
	// InsertTriggered 记录刚触发的流水线；webhook 先到时只补写 variables，不回退状态
	InsertTriggered(ctx context.Context, pipeline *model.Pipeline) (*model.Pipeline, error)
	FindByRemoteID(ctx context.Context, remoteID int64) (*model.Pipeline, error)
	ListRecent(ctx context.Context, limit int) ([]model.Pipeline, error)
	ListByProject(ctx context.Context, projectID int64, limit int) ([]model.Pipeline, error)
	// CountByStatus projectID 为 0 时统计全部
	CountByStatus(ctx context.Context, projectID int64) (map[model.PipelineStatus]int64, error)
}

type pipelineRepository struct {
	db *gorm.DB
}

func NewPipelineRepository(db *gorm.DB) PipelineRepository {
	return &pipelineRepository{db: db}
}

func (r *pipelineRepository) Create(ctx context.Context, pipeline *model.Pipeline) error {
	if err := r.db.WithContext(ctx).Create(pipeline).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建流水线失败", err)
	}
	return nil
}

func (r *pipelineRepository) Upsert(ctx context.Context, pipeline *model.Pipeline) (*model.Pipeline, error) {
	columns := []string{"status", "updated_at"}
	// 拉取接口不一定返回这些字段，空值不覆盖已有数据
	if pipeline.StartedAt != nil {
		columns = append(columns, "started_at")
	}
	running := !pipeline.Status.IsTerminal()
	if pipeline.FinishedAt != nil || running {
		columns = append(columns, "finished_at")
	}
	if pipeline.Duration != nil || running {
		columns = append(columns, "duration")
	}
	if pipeline.Stage != nil {
		columns = append(columns, "stage")
	}
	if pipeline.Ref != "" {
		columns = append(columns, "ref")
	}
	if pipeline.WebURL != "" {
		columns = append(columns, "web_url")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(pipeline).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存流水线失败", err)
	}

	return r.FindByRemoteID(ctx, pipeline.RemoteID)
}

func (r *pipelineRepository) InsertTriggered(ctx context.Context, pipeline *model.Pipeline) (*model.Pipeline, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "remote_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"variables"}),
	}).Create(pipeline).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "保存流水线失败", err)
	}
	return r.FindByRemoteID(ctx, pipeline.RemoteID)
}

func (r *pipelineRepository) FindByRemoteID(ctx context.Context, remoteID int64) (*model.Pipeline, error) {
	var pipeline model.Pipeline
	if err := r.db.WithContext(ctx).Where("remote_id = ?", remoteID).First(&pipeline).Error; err != nil {
		return nil, wrapFindErr(err, "查询流水线失败")
	}
	return &pipeline, nil
}

func (r *pipelineRepository) ListRecent(ctx context.Context, limit int) ([]model.Pipeline, error) {
	var pipelines []model.Pipeline
	err := r.db.WithContext(ctx).
		Preload("Project").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&pipelines).Error
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询最近流水线失败", err)
	}
	return pipelines, nil
}

func (r *pipelineRepository) ListByProject(ctx context.Context, projectID int64, limit int) ([]model.Pipeline, error) {
	var pipelines []model.Pipeline
	query := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pipelines).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目流水线失败", err)
	}
	return pipelines, nil
}

func (r *pipelineRepository) CountByStatus(ctx context.Context, projectID int64) (map[model.PipelineStatus]int64, error) {
	var rows []struct {
		Status model.PipelineStatus
		Total  int64
	}

	query := r.db.WithContext(ctx).Model(&model.Pipeline{}).Select("status, COUNT(*) AS total")
	if projectID > 0 {
		query = query.Where("project_id = ?", projectID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计流水线状态失败", err)
	}

	counts := make(map[model.PipelineStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
