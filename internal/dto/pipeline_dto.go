package dto

import (
	"github.com/samber/lo"

	"pipedash/internal/model"
	"pipedash/internal/pkg/gitlab"
)

// TriggerPipelineRequest 触发流水线请求
type TriggerPipelineRequest struct {
	Ref       string            `json:"ref" binding:"omitempty,max=255"`                                                 // 可选：默认使用配置的分支
	Variables map[string]string `json:"variables" binding:"omitempty,max=50,dive,keys,min=1,max=255,endkeys,max=10000"` // 可选：额外变量
}

// RecentPipelinesQuery 最近流水线查询参数
type RecentPipelinesQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetLimit 默认 10 条
func (q *RecentPipelinesQuery) GetLimit() int {
	if q.Limit < 1 {
		return 10
	}
	if q.Limit > 100 {
		return 100
	}
	return q.Limit
}

// PipelineStatsQuery 状态统计查询参数
type PipelineStatsQuery struct {
	ProjectID int64 `form:"project_id" binding:"omitempty,min=1"`
}

// PipelineResponse 流水线响应
type PipelineResponse struct {
	ID         int64                `json:"id"`
	RemoteID   int64                `json:"remote_id"`
	Status     model.PipelineStatus `json:"status"`
	Stage      *string              `json:"stage"`
	Ref        string               `json:"ref"`
	WebURL     string               `json:"web_url"`
	Variables  map[string]any       `json:"variables,omitempty"`
	StartedAt  *string              `json:"started_at"`
	FinishedAt *string              `json:"finished_at"`
	Duration   *int                 `json:"duration"`
	ProjectID  int64                `json:"project_id"`
	Project    *ProjectBrief        `json:"project,omitempty"`
	CreatedAt  string               `json:"created_at"`
	UpdatedAt  string               `json:"updated_at"`
}

// ProjectBrief 流水线列表中附带的项目信息
type ProjectBrief struct {
	ID     int64               `json:"id"`
	Name   string              `json:"name"`
	Status model.ProjectStatus `json:"status"`
}

// NewPipelineResponse 模型转换为响应
func NewPipelineResponse(p *model.Pipeline) *PipelineResponse {
	resp := &PipelineResponse{
		ID:         p.ID,
		RemoteID:   p.RemoteID,
		Status:     p.Status,
		Stage:      p.Stage,
		Ref:        p.Ref,
		WebURL:     p.WebURL,
		Variables:  p.Variables,
		StartedAt:  formatTimePtr(p.StartedAt),
		FinishedAt: formatTimePtr(p.FinishedAt),
		Duration:   p.Duration,
		ProjectID:  p.ProjectID,
		CreatedAt:  formatTime(p.CreatedAt),
		UpdatedAt:  formatTime(p.UpdatedAt),
	}
	if p.Project != nil {
		resp.Project = &ProjectBrief{ID: p.Project.ID, Name: p.Project.Name, Status: p.Project.Status}
	}
	return resp
}

// NewPipelineResponses 批量转换
func NewPipelineResponses(pipelines []model.Pipeline) []*PipelineResponse {
	return lo.Map(pipelines, func(p model.Pipeline, _ int) *PipelineResponse {
		return NewPipelineResponse(&p)
	})
}

// PipelineDetailResponse 远端流水线详情与作业
type PipelineDetailResponse struct {
	Pipeline *gitlab.Pipeline `json:"pipeline"`
	Jobs     []gitlab.Job     `json:"jobs"`
}

// JobLogResponse 作业日志
type JobLogResponse struct {
	JobID int64  `json:"job_id"`
	Trace string `json:"trace"`
}
