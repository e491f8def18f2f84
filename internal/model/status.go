package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// PipelineStatus 流水线状态（封闭集合）
//
// 状态流转: PENDING -> RUNNING -> {SUCCESS, FAILED, CANCELED}, PENDING -> SKIPPED。
// 只记录，不校验流转是否合法。
type PipelineStatus string

const (
	PipelineStatusPending  PipelineStatus = "PENDING"
	PipelineStatusRunning  PipelineStatus = "RUNNING"
	PipelineStatusSuccess  PipelineStatus = "SUCCESS"
	PipelineStatusFailed   PipelineStatus = "FAILED"
	PipelineStatusCanceled PipelineStatus = "CANCELED"
	PipelineStatusSkipped  PipelineStatus = "SKIPPED"
)

// AllPipelineStatuses 按展示顺序排列
var AllPipelineStatuses = []PipelineStatus{
	PipelineStatusPending,
	PipelineStatusRunning,
	PipelineStatusSuccess,
	PipelineStatusFailed,
	PipelineStatusCanceled,
	PipelineStatusSkipped,
}

// ErrUnknownPipelineStatus GitLab 返回了无法识别的状态
var ErrUnknownPipelineStatus = errors.New("unknown pipeline status")

var remoteStatusMapping = map[string]PipelineStatus{
	"created":              PipelineStatusPending,
	"waiting_for_resource": PipelineStatusPending,
	"preparing":            PipelineStatusPending,
	"pending":              PipelineStatusPending,
	"scheduled":            PipelineStatusPending,
	"manual":               PipelineStatusPending,
	"running":              PipelineStatusRunning,
	"canceling":            PipelineStatusRunning,
	"success":              PipelineStatusSuccess,
	"failed":               PipelineStatusFailed,
	"canceled":             PipelineStatusCanceled,
	"cancelled":            PipelineStatusCanceled,
	"skipped":              PipelineStatusSkipped,
}

// ParsePipelineStatus 将 GitLab 的状态字符串映射为本地状态
// 未知取值返回 ErrUnknownPipelineStatus，调用方不得写入
func ParsePipelineStatus(remote string) (PipelineStatus, error) {
	key := strings.ToLower(strings.TrimSpace(remote))
	if status, ok := remoteStatusMapping[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPipelineStatus, remote)
}

// IsTerminal 是否为终态
func (s PipelineStatus) IsTerminal() bool {
	switch s {
	case PipelineStatusSuccess, PipelineStatusFailed, PipelineStatusCanceled, PipelineStatusSkipped:
		return true
	}
	return false
}

// CountStatuses 按状态计数，只包含出现过的状态
func CountStatuses(statuses []PipelineStatus) map[PipelineStatus]int {
	return lo.CountValues(statuses)
}
