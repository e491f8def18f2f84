package model

import (
	"time"

	"gorm.io/datatypes"
)

// Pipeline GitLab 流水线镜像
// 只通过同步流程的 upsert 修改，随项目级联删除
type Pipeline struct {
	BaseModel
	RemoteID   int64             `gorm:"not null;uniqueIndex" json:"remote_id"` // GitLab pipeline id
	Status     PipelineStatus    `gorm:"size:20;not null;index" json:"status"`
	Stage      *string           `gorm:"size:255" json:"stage"`
	Ref        string            `gorm:"size:255" json:"ref"`
	WebURL     string            `gorm:"size:512" json:"web_url"`
	Variables  datatypes.JSONMap `json:"variables,omitempty"` // 触发时的用户变量，不存放密钥
	StartedAt  *time.Time        `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at"`
	Duration   *int              `json:"duration"` // 秒
	ProjectID  int64             `gorm:"not null;index" json:"project_id"`

	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
}

func (Pipeline) TableName() string {
	return "pipelines"
}
