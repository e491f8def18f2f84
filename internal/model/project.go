package model

const ProjectTableName = "projects"

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "ACTIVE"
	ProjectStatusInactive ProjectStatus = "INACTIVE"
	ProjectStatusDeleted  ProjectStatus = "DELETED"
	// ProjectStatusProvisioningIncomplete 远端项目已创建，但 webhook 未注册成功
	ProjectStatusProvisioningIncomplete ProjectStatus = "PROVISIONING_INCOMPLETE"
)

// Project GitLab 项目镜像
type Project struct {
	BaseModel
	Name        string        `gorm:"size:255;not null;index" json:"name"`
	Description *string       `gorm:"type:text" json:"description"`
	RemoteID    int64         `gorm:"not null;uniqueIndex" json:"remote_id"` // GitLab project id
	RemoteURL   string        `gorm:"size:512" json:"remote_url"`
	Status      ProjectStatus `gorm:"size:32;not null;default:'ACTIVE';index" json:"status"`
	Domain      *string       `gorm:"size:255" json:"domain"`
	WebhookID   *int64        `json:"webhook_id"`
	UserID      int64         `gorm:"not null;index" json:"user_id"`

	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Pipelines []Pipeline `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"pipelines,omitempty"`
}

func (Project) TableName() string {
	return ProjectTableName
}

// OwnedBy 是否为项目所有者
func (p *Project) OwnedBy(userID int64) bool {
	return p.UserID == userID
}
