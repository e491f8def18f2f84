package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pipedash/internal/model"
	"pipedash/internal/pkg/config"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyPipelineSuccess        NotificationType = "pipeline_success"
	NotifyPipelineFailed         NotificationType = "pipeline_failed"
	NotifyPipelineCanceled       NotificationType = "pipeline_canceled"
	NotifyPipelineSkipped        NotificationType = "pipeline_skipped"
	NotifyProvisioningIncomplete NotificationType = "provisioning_incomplete" // 项目创建后 webhook 未注册
)

// PipelineNotifyType 终态对应的通知类型，非终态返回空
func PipelineNotifyType(status model.PipelineStatus) NotificationType {
	switch status {
	case model.PipelineStatusSuccess:
		return NotifyPipelineSuccess
	case model.PipelineStatusFailed:
		return NotifyPipelineFailed
	case model.PipelineStatusCanceled:
		return NotifyPipelineCanceled
	case model.PipelineStatusSkipped:
		return NotifyPipelineSkipped
	}
	return ""
}

// Color 卡片颜色
type Color string

const (
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorGrey   Color = "grey"
)

// NotificationMessage 通知消息
type NotificationMessage struct {
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Lines      []Line           `json:"lines"`
	Link       string           `json:"link,omitempty"` // 跳转 GitLab 的地址
	Color      Color            `json:"color"`
	ProjectID  int64            `json:"project_id,omitempty"`
	PipelineID int64            `json:"pipeline_id,omitempty"` // GitLab pipeline id
	Timestamp  time.Time        `json:"timestamp"`
}

// Line 一行 "标签: 值"
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Markdown lark_md 格式的正文
func (m *NotificationMessage) Markdown() string {
	parts := make([]string, 0, len(m.Lines))
	for _, l := range m.Lines {
		parts = append(parts, fmt.Sprintf("**%s**: %s", l.Label, l.Value))
	}
	return strings.Join(parts, "\n")
}

// Notifier 通知器接口
type Notifier interface {
	Send(ctx context.Context, msg *NotificationMessage) error
	// SendPipelineNotification 流水线进入终态时调用
	SendPipelineNotification(ctx context.Context, project *model.Project, pipeline *model.Pipeline) error
}

// NewNotifier 按配置创建通知器，未启用时只写日志
func NewNotifier(cfg *config.NotificationConfig, logger *zap.Logger) Notifier {
	logNotifier := NewLogNotifier(logger)
	if !cfg.Enabled {
		return logNotifier
	}
	switch cfg.Provider {
	case "lark":
		lark := NewLarkNotifier(cfg.LarkWebhook, true, logger)
		lark.secret = cfg.LarkSecret
		return NewMultiNotifier(logger, logNotifier, lark)
	default:
		return logNotifier
	}
}

// PipelineMessage 流水线终态消息
func PipelineMessage(project *model.Project, pipeline *model.Pipeline) *NotificationMessage {
	msg := &NotificationMessage{
		Type:       PipelineNotifyType(pipeline.Status),
		Link:       pipeline.WebURL,
		ProjectID:  project.ID,
		PipelineID: pipeline.RemoteID,
		Timestamp:  time.Now(),
		Lines: []Line{
			{Label: "项目", Value: project.Name},
			{Label: "流水线", Value: fmt.Sprintf("#%d", pipeline.RemoteID)},
		},
	}

	switch msg.Type {
	case NotifyPipelineSuccess:
		msg.Title, msg.Color = "✅ 流水线成功", ColorGreen
	case NotifyPipelineFailed:
		msg.Title, msg.Color = "❌ 流水线失败", ColorRed
	case NotifyPipelineCanceled:
		msg.Title, msg.Color = "⏹ 流水线已取消", ColorOrange
	default:
		msg.Title, msg.Color = "📢 流水线通知", ColorGrey
	}

	if pipeline.Ref != "" {
		msg.Lines = append(msg.Lines, Line{Label: "分支", Value: pipeline.Ref})
	}
	if pipeline.Stage != nil && *pipeline.Stage != "" {
		msg.Lines = append(msg.Lines, Line{Label: "阶段", Value: *pipeline.Stage})
	}
	msg.Lines = append(msg.Lines, Line{Label: "状态", Value: string(pipeline.Status)})
	if pipeline.Duration != nil {
		msg.Lines = append(msg.Lines, Line{Label: "耗时", Value: (time.Duration(*pipeline.Duration) * time.Second).String()})
	}
	return msg
}

// ProvisioningIncompleteMessage 项目 webhook 注册失败
func ProvisioningIncompleteMessage(project *model.Project, cause error) *NotificationMessage {
	return &NotificationMessage{
		Type:      NotifyProvisioningIncomplete,
		Title:     "⚠️ 项目 webhook 注册失败",
		Color:     ColorOrange,
		Link:      project.RemoteURL,
		ProjectID: project.ID,
		Timestamp: time.Now(),
		Lines: []Line{
			{Label: "项目", Value: project.Name},
			{Label: "原因", Value: cause.Error()},
		},
	}
}

// MultiNotifier 同时发送到多个渠道，单个渠道失败不影响其他渠道
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{
		notifiers: notifiers,
		logger:    logger,
	}
}

func (m *MultiNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, msg); err != nil {
			m.logger.Error("发送通知失败", zap.String("type", string(msg.Type)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) SendPipelineNotification(ctx context.Context, project *model.Project, pipeline *model.Pipeline) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.SendPipelineNotification(ctx, project, pipeline); err != nil {
			m.logger.Error("发送流水线通知失败", zap.Int64("pipeline_id", pipeline.RemoteID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier 只写日志
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
	}
}

func (n *LogNotifier) Send(_ context.Context, msg *NotificationMessage) error {
	n.logger.Info("📢 通知",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.Int64("project_id", msg.ProjectID),
		zap.Int64("pipeline_id", msg.PipelineID),
		zap.String("content", msg.Markdown()))
	return nil
}

func (n *LogNotifier) SendPipelineNotification(ctx context.Context, project *model.Project, pipeline *model.Pipeline) error {
	return n.Send(ctx, PipelineMessage(project, pipeline))
}
