package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pipedash/internal/adapter/notification"
	"pipedash/internal/dto"
	"pipedash/internal/model"
	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/pkg/metrics"
	"pipedash/internal/repository"
	"pipedash/pkg/constants"
	pkgErrors "pipedash/pkg/errors"
)

const (
	syncSourceWebhook = "webhook"
	syncSourcePull    = "pull"
)

// RemotePipelineState GitLab 侧的流水线状态，webhook 与拉取两条路径统一转换为该结构
type RemotePipelineState struct {
	RemoteID   int64
	Status     string
	Stage      *string
	Ref        string
	WebURL     string
	StartedAt  *time.Time
	FinishedAt *time.Time
	Duration   *int
}

// PipelineSyncService 流水线同步服务
type PipelineSyncService interface {
	// HandleWebhook 处理 GitLab 推送的 pipeline 事件
	HandleWebhook(ctx context.Context, event *dto.GitLabWebhookEvent) (*dto.WebhookResult, error)
	// SyncProject 从 GitLab 拉取最近的流水线写入镜像，返回该项目在镜像中的全部流水线
	SyncProject(ctx context.Context, projectID int64) ([]model.Pipeline, error)
	// SyncAll 拉取所有 ACTIVE 与 PROVISIONING_INCOMPLETE 项目
	SyncAll(ctx context.Context) error
}

// PipelineSyncConfig 同步服务配置
type PipelineSyncConfig struct {
	PerPage           int
	PipelineProjectID int64         // 统一流水线项目，0 表示在项目自身触发
	PullTimeout       time.Duration // 单次拉取上限
}

type pipelineSyncService struct {
	gitlab       GitLabClient
	projectRepo  repository.ProjectRepository
	pipelineRepo repository.PipelineRepository
	notifier     notification.Notifier
	cfg          PipelineSyncConfig
	group        singleflight.Group
}

// NewPipelineSyncService 创建流水线同步服务
func NewPipelineSyncService(
	client GitLabClient,
	projectRepo repository.ProjectRepository,
	pipelineRepo repository.PipelineRepository,
	notifier notification.Notifier,
	cfg PipelineSyncConfig,
) PipelineSyncService {
	if cfg.PerPage <= 0 {
		cfg.PerPage = constants.DefaultSyncPerPage
	}
	if cfg.PullTimeout <= 0 {
		cfg.PullTimeout = constants.DefaultPullTimeout
	}
	return &pipelineSyncService{
		gitlab:       client,
		projectRepo:  projectRepo,
		pipelineRepo: pipelineRepo,
		notifier:     notifier,
		cfg:          cfg,
	}
}

func (s *pipelineSyncService) HandleWebhook(ctx context.Context, event *dto.GitLabWebhookEvent) (*dto.WebhookResult, error) {
	log := logger.Log.With(
		zap.String("handler", "PipelineSyncService.HandleWebhook"),
		zap.String("object_kind", event.ObjectKind),
		zap.Int64("remote_project_id", event.Project.ID),
		zap.Int64("remote_pipeline_id", event.ObjectAttributes.ID),
	).Sugar()

	if event.ObjectKind != constants.ObjectKindPipeline {
		log.Debugf("忽略非 pipeline 事件")
		return s.webhookResult(dto.WebhookActionIgnored, 0), nil
	}

	attrs := event.ObjectAttributes
	if attrs.ID == 0 || event.Project.ID == 0 {
		return nil, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "webhook 载荷缺少 pipeline 或 project id", nil)
	}

	project, err := s.resolveProject(ctx, event.Project.ID, attrs.ID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		log.Infof("本地没有对应项目，丢弃事件")
		return s.webhookResult(dto.WebhookActionDropped, 0), nil
	}

	pipeline, err := s.applyRemote(ctx, project, RemotePipelineState{
		RemoteID:   attrs.ID,
		Status:     attrs.Status,
		Stage:      attrs.CurrentStage(),
		Ref:        attrs.Ref,
		WebURL:     attrs.URL,
		StartedAt:  attrs.StartedAt.Ptr(),
		FinishedAt: attrs.FinishedAt.Ptr(),
		Duration:   attrs.Duration,
	}, syncSourceWebhook)
	if errors.Is(err, model.ErrUnknownPipelineStatus) {
		return s.webhookResult(dto.WebhookActionRejected, 0), nil
	}
	if err != nil {
		log.Errorf("写入流水线失败: %v", err)
		return nil, err
	}

	log.Infof("流水线状态已更新: %s", pipeline.Status)
	return s.webhookResult(dto.WebhookActionUpdated, pipeline.ID), nil
}

func (s *pipelineSyncService) webhookResult(action dto.WebhookAction, pipelineID int64) *dto.WebhookResult {
	metrics.WebhookEvents.WithLabelValues(string(action)).Inc()
	return &dto.WebhookResult{Received: true, Action: action, PipelineID: pipelineID}
}

// resolveProject 先按 GitLab 项目 id 查找；找不到时按流水线 id 回查，
// 覆盖在统一流水线项目上触发、但已在本地登记过的流水线。两者都没有返回 nil。
func (s *pipelineSyncService) resolveProject(ctx context.Context, remoteProjectID, remotePipelineID int64) (*model.Project, error) {
	project, err := s.projectRepo.FindByRemoteID(ctx, remoteProjectID)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	existing, err := s.pipelineRepo.FindByRemoteID(ctx, remotePipelineID)
	if errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	project, err = s.projectRepo.FindByID(ctx, existing.ProjectID)
	if errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, nil
	}
	return project, err
}

func (s *pipelineSyncService) SyncProject(ctx context.Context, projectID int64) ([]model.Pipeline, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrProjectNotFound
		}
		return nil, err
	}

	// 同一项目的并发拉取合并为一次。拉取不跟随发起方的 ctx，
	// 先到的请求断开时，合并等待的其他请求仍能拿到结果
	_, err, _ = s.group.Do(strconv.FormatInt(projectID, 10), func() (interface{}, error) {
		pullCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PullTimeout)
		defer cancel()
		return nil, s.pull(pullCtx, project)
	})
	if err != nil {
		return nil, err
	}

	return s.pipelineRepo.ListByProject(ctx, projectID, 0)
}

func (s *pipelineSyncService) pull(ctx context.Context, project *model.Project) error {
	log := logger.Log.With(zap.String("handler", "PipelineSyncService.pull"), zap.Int64("project_id", project.ID)).Sugar()

	remote, err := s.gitlab.ListPipelines(ctx, project.RemoteID, gitlab.ListPipelinesOptions{Page: 1, PerPage: s.cfg.PerPage})
	if err != nil {
		return providerError("list_pipelines", "获取流水线列表", err)
	}

	seen := make(map[int64]struct{}, len(remote))
	var applied []model.PipelineStatus
	for i := range remote {
		seen[remote[i].ID] = struct{}{}
		saved, err := s.applyRemote(ctx, project, remoteState(&remote[i]), syncSourcePull)
		if err != nil {
			if errors.Is(err, model.ErrUnknownPipelineStatus) {
				continue
			}
			return err
		}
		applied = append(applied, saved.Status)
	}

	refreshed, err := s.refreshShared(ctx, project, seen)
	if err != nil {
		return err
	}
	applied = append(applied, refreshed...)

	log.Debugf("拉取完成: %d 条, 状态分布 %v", len(applied), model.CountStatuses(applied))
	return nil
}

// refreshShared 在统一流水线项目上触发的流水线不在项目自身的列表中，
// 逐条回查镜像里尚未结束的记录
func (s *pipelineSyncService) refreshShared(ctx context.Context, project *model.Project, seen map[int64]struct{}) ([]model.PipelineStatus, error) {
	shared := s.cfg.PipelineProjectID
	if shared == 0 || shared == project.RemoteID {
		return nil, nil
	}

	rows, err := s.pipelineRepo.ListByProject(ctx, project.ID, 0)
	if err != nil {
		return nil, err
	}
	pending := lo.Filter(rows, func(p model.Pipeline, _ int) bool {
		_, ok := seen[p.RemoteID]
		return !ok && !p.Status.IsTerminal()
	})

	var applied []model.PipelineStatus
	for _, row := range pending {
		p, err := s.gitlab.GetPipeline(ctx, shared, row.RemoteID)
		if gitlab.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, providerError("get_pipeline", "获取流水线", err)
		}
		saved, err := s.applyRemote(ctx, project, remoteState(p), syncSourcePull)
		if err != nil {
			if errors.Is(err, model.ErrUnknownPipelineStatus) {
				continue
			}
			return nil, err
		}
		applied = append(applied, saved.Status)
	}
	return applied, nil
}

func remoteState(p *gitlab.Pipeline) RemotePipelineState {
	state := RemotePipelineState{
		RemoteID:   p.ID,
		Status:     p.Status,
		Ref:        p.Ref,
		WebURL:     p.WebURL,
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Duration:   p.Duration,
	}
	if len(p.Stages) > 0 {
		state.Stage = &p.Stages[0]
	}
	return state
}

func (s *pipelineSyncService) SyncAll(ctx context.Context) error {
	log := logger.Log.With(zap.String("handler", "PipelineSyncService.SyncAll")).Sugar()

	// 建 hook 失败的项目仍可拉取
	projects, err := s.projectRepo.ListByStatus(ctx, model.ProjectStatusActive, model.ProjectStatusProvisioningIncomplete)
	if err != nil {
		return err
	}

	var errs []error
	for i := range projects {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.SyncProject(ctx, projects[i].ID); err != nil {
			log.Warnf("同步项目 %s 失败: %v", projects[i].Name, err)
			errs = append(errs, err)
		}
	}

	log.Infof("流水线同步完成: 项目 %d 个, 失败 %d 个", len(projects), len(errs))
	return errors.Join(errs...)
}

// applyRemote webhook 与拉取共用的写入逻辑：状态映射、按 remote_id upsert、终态通知
func (s *pipelineSyncService) applyRemote(ctx context.Context, project *model.Project, state RemotePipelineState, source string) (*model.Pipeline, error) {
	status, err := model.ParsePipelineStatus(state.Status)
	if err != nil {
		logger.Warn("忽略无法识别的流水线状态",
			zap.String("source", source),
			zap.Int64("remote_pipeline_id", state.RemoteID),
			zap.String("status", state.Status))
		return nil, err
	}

	previous, err := s.pipelineRepo.FindByRemoteID(ctx, state.RemoteID)
	if err != nil && !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	saved, err := s.pipelineRepo.Upsert(ctx, &model.Pipeline{
		RemoteID:   state.RemoteID,
		Status:     status,
		Stage:      state.Stage,
		Ref:        state.Ref,
		WebURL:     state.WebURL,
		StartedAt:  state.StartedAt,
		FinishedAt: state.FinishedAt,
		Duration:   state.Duration,
		ProjectID:  project.ID,
	})
	if err != nil {
		return nil, err
	}
	metrics.PipelineUpserts.WithLabelValues(source, string(status)).Inc()

	if status.IsTerminal() && (previous == nil || previous.Status != status) {
		if err := s.notifier.SendPipelineNotification(ctx, project, saved); err != nil {
			logger.Warn("发送流水线通知失败", zap.Int64("remote_pipeline_id", saved.RemoteID), zap.Error(err))
		}
	}

	return saved, nil
}
