package auth

import (
	"strings"

	"pipedash/internal/model"
)

// Permission 内置权限
type Permission string

const (
	PermProjectCreate    Permission = "project:create"
	PermProjectView      Permission = "project:view"
	PermProjectDelete    Permission = "project:delete"
	PermProjectReconcile Permission = "project:reconcile"

	PermPipelineTrigger Permission = "pipeline:trigger"
	PermPipelineView    Permission = "pipeline:view"
)

// RolePermissions 每个角色拥有的权限集合
var RolePermissions = map[model.Role][]Permission{
	model.RoleAdmin: {
		"*",
	},
	model.RoleUser: {
		PermProjectCreate,
		PermProjectView,
		"pipeline:*",
	},
}

// OwnerPermissions 项目所有者对自己项目额外拥有的权限
var OwnerPermissions = []Permission{
	"project:*",
}

// Allow 判断角色是否包含所需权限，支持通配符
func Allow(role model.Role, need Permission) bool {
	return allow(RolePermissions[role], need)
}

// AllowProject 角色权限或项目所有者权限满足其一即可
func AllowProject(user *model.User, project *model.Project, need Permission) bool {
	if user == nil {
		return false
	}
	if Allow(user.Role, need) {
		return true
	}
	return project != nil && project.OwnedBy(user.ID) && allow(OwnerPermissions, need)
}

func allow(have []Permission, need Permission) bool {
	for _, p := range have {
		if match(p, need) {
			return true
		}
	}
	return false
}

// match 逐段比较，"*" 匹配剩余所有段
func match(have, need Permission) bool {
	if have == need || have == "*" {
		return true
	}

	haveParts := strings.Split(string(have), ":")
	needParts := strings.Split(string(need), ":")
	for i, part := range haveParts {
		if part == "*" {
			return true
		}
		if i >= len(needParts) || part != needParts[i] {
			return false
		}
	}
	return len(haveParts) == len(needParts)
}
