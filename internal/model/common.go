package model

import (
	"time"
)

type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// AllModels 参与 AutoMigrate 的模型，顺序即建表顺序
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&Pipeline{},
		&Session{},
	}
}
