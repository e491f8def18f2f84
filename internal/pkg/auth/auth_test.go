package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipedash/internal/model"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		have, need Permission
		want       bool
	}{
		{"*", "project:delete", true},
		{"project:*", "project:delete", true},
		{"project:*", "pipeline:view", false},
		{"project:view", "project:view", true},
		{"project:view", "project:view:extra", false},
		{"project:view:extra", "project:view", false},
		{"pipeline:*", "pipeline:trigger", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, match(tt.have, tt.need), "%s vs %s", tt.have, tt.need)
	}
}

func TestAllow_ChecksEveryGrant(t *testing.T) {
	// 第一条不匹配时仍需继续检查后续权限
	assert.True(t, allow([]Permission{"project:view", "pipeline:*"}, PermPipelineTrigger))
	assert.False(t, allow(nil, PermProjectView))
}

func TestAllowProject(t *testing.T) {
	owner := &model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.RoleUser}
	other := &model.User{BaseModel: model.BaseModel{ID: 2}, Role: model.RoleUser}
	admin := &model.User{BaseModel: model.BaseModel{ID: 3}, Role: model.RoleAdmin}
	project := &model.Project{UserID: owner.ID}

	assert.True(t, AllowProject(owner, project, PermProjectDelete))
	assert.False(t, AllowProject(other, project, PermProjectDelete))
	assert.False(t, AllowProject(other, project, PermProjectReconcile))
	assert.True(t, AllowProject(other, project, PermPipelineTrigger))
	assert.True(t, AllowProject(admin, project, PermProjectDelete))
	assert.False(t, AllowProject(nil, project, PermProjectView))
}
