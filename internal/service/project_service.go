package service

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"pipedash/internal/adapter/notification"
	"pipedash/internal/dto"
	"pipedash/internal/model"
	"pipedash/internal/pkg/auth"
	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/repository"
	"pipedash/pkg/constants"
	pkgErrors "pipedash/pkg/errors"
	"pipedash/pkg/utils"
)

const provisioningWarning = "项目已创建，但 webhook 注册失败，流水线状态需要手动刷新；可稍后调用 reconcile 重试"

// ProjectServiceConfig 项目服务配置
type ProjectServiceConfig struct {
	BaseURL      string // 本服务对外地址，用于拼接 webhook 地址
	WebhookToken string
	NamespaceID  int64
}

// ProjectService 项目服务接口
type ProjectService interface {
	Create(ctx context.Context, user *model.User, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	Get(ctx context.Context, id int64) (*dto.ProjectResponse, error)
	List(ctx context.Context) ([]*dto.ProjectResponse, error)
	Delete(ctx context.Context, user *model.User, id int64) error
	// Reconcile 对 PROVISIONING_INCOMPLETE 项目重试 webhook 注册
	Reconcile(ctx context.Context, user *model.User, id int64) (*dto.ProjectResponse, error)
	ReconcileAll(ctx context.Context) error
	SearchNamespaces(ctx context.Context, query string) ([]*dto.NamespaceResponse, error)
}

type projectService struct {
	gitlab      GitLabClient
	projectRepo repository.ProjectRepository
	notifier    notification.Notifier
	cfg         ProjectServiceConfig
	sanitizer   *bluemonday.Policy
}

// NewProjectService 创建项目服务
func NewProjectService(
	client GitLabClient,
	projectRepo repository.ProjectRepository,
	notifier notification.Notifier,
	cfg ProjectServiceConfig,
) ProjectService {
	return &projectService{
		gitlab:      client,
		projectRepo: projectRepo,
		notifier:    notifier,
		cfg:         cfg,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *projectService) Create(ctx context.Context, user *model.User, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	log := logger.Log.With(zap.String("handler", "ProjectService.Create"), zap.String("name", req.Name), zap.Int64("user_id", user.ID)).Sugar()

	if !auth.Allow(user.Role, auth.PermProjectCreate) {
		return nil, pkgErrors.ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	if !utils.ValidProjectName(name) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "项目名称只能包含字母、数字、'_'、'-'、'.' 和空格", nil)
	}
	description := s.sanitize(req.Description)

	// 1. GitLab 上同名项目检查
	existing, err := s.gitlab.FindProjectByName(ctx, name)
	if err != nil {
		return nil, providerError("search_projects", "查询项目", err)
	}
	if existing != nil {
		return nil, pkgErrors.ErrProjectExists
	}

	// 2. 创建远端项目
	namespaceID := s.cfg.NamespaceID
	if req.NamespaceID != nil {
		namespaceID = *req.NamespaceID
	}
	remote, err := s.gitlab.CreateProject(ctx, gitlab.CreateProjectOptions{
		Name:        name,
		NamespaceID: namespaceID,
		Description: lo.FromPtr(description),
	})
	if err != nil {
		return nil, providerError("create_project", "创建项目", err)
	}
	log.Infof("GitLab 项目已创建: remote_id=%d", remote.ID)

	// 3. 写入镜像，失败时删除远端项目
	project := &model.Project{
		Name:        name,
		Description: description,
		RemoteID:    remote.ID,
		RemoteURL:   remote.WebURL,
		Status:      model.ProjectStatusActive,
		Domain:      req.Domain,
		UserID:      user.ID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		log.Errorf("保存项目失败，回滚 GitLab 项目: %v", err)
		if delErr := s.gitlab.DeleteProject(ctx, remote.ID); delErr != nil {
			log.Errorf("回滚 GitLab 项目失败，需要人工清理 remote_id=%d: %v", remote.ID, delErr)
		}
		return nil, err
	}

	// 4. 注册 webhook，失败时标记 PROVISIONING_INCOMPLETE
	resp, err := s.attachWebhook(ctx, project)
	if err != nil {
		return nil, err
	}
	resp.Owner = dto.NewUserResponse(user)
	return resp, nil
}

// attachWebhook 注册 webhook 并更新项目状态；注册失败不返回错误，而是返回带 Warning 的响应
func (s *projectService) attachWebhook(ctx context.Context, project *model.Project) (*dto.ProjectResponse, error) {
	hook, hookErr := s.ensureHook(ctx, project.RemoteID)
	if hookErr != nil {
		logger.Warn("注册 webhook 失败",
			zap.Int64("project_id", project.ID),
			zap.Int64("remote_id", project.RemoteID),
			zap.Error(hookErr))

		if project.Status != model.ProjectStatusProvisioningIncomplete {
			if err := s.projectRepo.UpdateFields(ctx, project.ID, map[string]interface{}{
				"status": model.ProjectStatusProvisioningIncomplete,
			}); err != nil {
				return nil, err
			}
			project.Status = model.ProjectStatusProvisioningIncomplete
			s.notifyProvisioningIncomplete(ctx, project, hookErr)
		}

		resp := dto.NewProjectResponse(project)
		resp.Warning = provisioningWarning
		return resp, nil
	}

	if err := s.projectRepo.UpdateFields(ctx, project.ID, map[string]interface{}{
		"status":     model.ProjectStatusActive,
		"webhook_id": hook.ID,
	}); err != nil {
		return nil, err
	}
	project.Status = model.ProjectStatusActive
	project.WebhookID = &hook.ID

	return dto.NewProjectResponse(project), nil
}

// ensureHook 已存在指向本服务的 hook 时直接复用
func (s *projectService) ensureHook(ctx context.Context, remoteID int64) (*gitlab.Hook, error) {
	hookURL := s.webhookURL()

	hooks, err := s.gitlab.ListHooks(ctx, remoteID)
	if err == nil {
		if hook, ok := lo.Find(hooks, func(h gitlab.Hook) bool { return h.URL == hookURL }); ok {
			return &hook, nil
		}
	}

	return s.gitlab.CreateHook(ctx, remoteID, gitlab.HookOptions{
		URL:                   hookURL,
		Token:                 s.cfg.WebhookToken,
		PipelineEvents:        true,
		JobEvents:             true,
		EnableSSLVerification: strings.HasPrefix(hookURL, "https://"),
	})
}

func (s *projectService) webhookURL() string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + constants.WebhookPath
}

func (s *projectService) notifyProvisioningIncomplete(ctx context.Context, project *model.Project, cause error) {
	if err := s.notifier.Send(ctx, notification.ProvisioningIncompleteMessage(project, cause)); err != nil {
		logger.Warn("发送通知失败", zap.Error(err))
	}
}

func (s *projectService) sanitize(description *string) *string {
	if description == nil {
		return nil
	}
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(*description))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func (s *projectService) Get(ctx context.Context, id int64) (*dto.ProjectResponse, error) {
	project, err := s.findProject(ctx, id, repository.WithPreload("User"), repository.WithOrderedPipelines())
	if err != nil {
		return nil, err
	}
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) List(ctx context.Context) ([]*dto.ProjectResponse, error) {
	projects, err := s.projectRepo.List(ctx, 0, constants.ProjectPipelinePreview)
	if err != nil {
		return nil, err
	}
	return dto.NewProjectResponses(projects), nil
}

func (s *projectService) Delete(ctx context.Context, user *model.User, id int64) error {
	log := logger.Log.With(zap.String("handler", "ProjectService.Delete"), zap.Int64("project_id", id), zap.Int64("user_id", user.ID)).Sugar()

	project, err := s.findProject(ctx, id)
	if err != nil {
		return err
	}
	if !auth.AllowProject(user, project, auth.PermProjectDelete) {
		return pkgErrors.Wrap(pkgErrors.CodeForbidden, "只有项目所有者或管理员可以删除项目", nil)
	}

	// 先删远端，失败时本地保持不变；远端已不存在视为成功
	if err := s.gitlab.DeleteProject(ctx, project.RemoteID); err != nil {
		if !gitlab.IsNotFound(err) {
			return providerError("delete_project", "删除项目", err)
		}
		log.Warnf("GitLab 项目已不存在，继续删除本地记录: remote_id=%d", project.RemoteID)
	}

	if err := s.projectRepo.DeleteWithPipelines(ctx, project.ID); err != nil {
		log.Errorf("删除本地项目失败: %v", err)
		return err
	}

	log.Infof("项目已删除: %s", project.Name)
	return nil
}

func (s *projectService) Reconcile(ctx context.Context, user *model.User, id int64) (*dto.ProjectResponse, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.AllowProject(user, project, auth.PermProjectReconcile) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeForbidden, "只有项目所有者或管理员可以操作项目", nil)
	}
	return s.reconcile(ctx, project)
}

func (s *projectService) reconcile(ctx context.Context, project *model.Project) (*dto.ProjectResponse, error) {
	if project.Status != model.ProjectStatusProvisioningIncomplete {
		return dto.NewProjectResponse(project), nil
	}

	// 以 GitLab 为准刷新名称与地址
	remote, err := s.gitlab.GetProject(ctx, project.RemoteID)
	if err != nil {
		return nil, providerError("get_project", "获取项目", err)
	}
	refreshed, err := s.projectRepo.Upsert(ctx, &model.Project{
		Name:      remote.Name,
		RemoteID:  remote.ID,
		RemoteURL: remote.WebURL,
		Status:    project.Status,
		UserID:    project.UserID,
	})
	if err != nil {
		return nil, err
	}

	return s.attachWebhook(ctx, refreshed)
}

func (s *projectService) ReconcileAll(ctx context.Context) error {
	projects, err := s.projectRepo.ListByStatus(ctx, model.ProjectStatusProvisioningIncomplete)
	if err != nil {
		return err
	}

	var errs []error
	for i := range projects {
		resp, err := s.reconcile(ctx, &projects[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if resp.Status == model.ProjectStatusActive {
			logger.Info("项目补偿完成", zap.Int64("project_id", resp.ID))
		}
	}
	return errors.Join(errs...)
}

func (s *projectService) findProject(ctx context.Context, id int64, opts ...repository.QueryOption) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id, opts...)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// SearchNamespaces 搜索可用于新建项目的 group
func (s *projectService) SearchNamespaces(ctx context.Context, query string) ([]*dto.NamespaceResponse, error) {
	groups, err := s.gitlab.SearchGroups(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, providerError("search_groups", "搜索 group", err)
	}
	return lo.Map(groups, func(g gitlab.Group, _ int) *dto.NamespaceResponse {
		return &dto.NamespaceResponse{ID: g.ID, Name: g.Name, FullPath: g.FullPath, WebURL: g.WebURL}
	}), nil
}
