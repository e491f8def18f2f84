package service

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"pipedash/internal/dto"
	"pipedash/internal/model"
	"pipedash/internal/pkg/auth"
	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/pkg/logger"
	"pipedash/internal/repository"
	"pipedash/pkg/constants"
	pkgErrors "pipedash/pkg/errors"
)

// PipelineServiceConfig 流水线服务配置
type PipelineServiceConfig struct {
	PipelineProjectID int64  // 统一流水线项目，0 表示在项目自身触发
	TriggerRef        string // 为空时统一流水线项目用 trigger，项目自身用 main
}

// PipelineService 流水线服务接口
type PipelineService interface {
	Trigger(ctx context.Context, user *model.User, projectID int64, req *dto.TriggerPipelineRequest) (*dto.PipelineResponse, error)
	ListByProject(ctx context.Context, projectID int64) ([]*dto.PipelineResponse, error)
	ListRecent(ctx context.Context, limit int) ([]*dto.PipelineResponse, error)
	Stats(ctx context.Context, projectID int64) (map[model.PipelineStatus]int64, error)
	Details(ctx context.Context, projectID, pipelineID int64) (*dto.PipelineDetailResponse, error)
	JobLog(ctx context.Context, projectID, jobID int64) (*dto.JobLogResponse, error)
}

type pipelineService struct {
	gitlab       GitLabClient
	projectRepo  repository.ProjectRepository
	pipelineRepo repository.PipelineRepository
	syncService  PipelineSyncService
	cfg          PipelineServiceConfig
}

// NewPipelineService 创建流水线服务
func NewPipelineService(
	client GitLabClient,
	projectRepo repository.ProjectRepository,
	pipelineRepo repository.PipelineRepository,
	syncService PipelineSyncService,
	cfg PipelineServiceConfig,
) PipelineService {
	if cfg.TriggerRef == "" {
		cfg.TriggerRef = constants.DefaultTriggerRef
		if cfg.PipelineProjectID > 0 {
			cfg.TriggerRef = constants.DefaultSharedTriggerRef
		}
	}
	return &pipelineService{
		gitlab:       client,
		projectRepo:  projectRepo,
		pipelineRepo: pipelineRepo,
		syncService:  syncService,
		cfg:          cfg,
	}
}

func (s *pipelineService) Trigger(ctx context.Context, user *model.User, projectID int64, req *dto.TriggerPipelineRequest) (*dto.PipelineResponse, error) {
	log := logger.Log.With(zap.String("handler", "PipelineService.Trigger"), zap.Int64("project_id", projectID), zap.Int64("user_id", user.ID)).Sugar()

	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !auth.AllowProject(user, project, auth.PermPipelineTrigger) {
		return nil, pkgErrors.ErrForbidden
	}

	ref := req.Ref
	if ref == "" {
		ref = s.cfg.TriggerRef
	}
	variables := triggerVariables(project, req.Variables)

	remote, err := s.gitlab.TriggerPipeline(ctx, s.triggerTarget(project), ref, variables)
	if err != nil {
		return nil, providerError("trigger_pipeline", "触发流水线", err)
	}
	log.Infof("流水线已触发: remote_id=%d ref=%s", remote.ID, ref)

	stored := lo.SliceToMap(variables, func(v gitlab.Variable) (string, interface{}) {
		return v.Key, v.Value
	})
	pipeline, err := s.pipelineRepo.InsertTriggered(ctx, &model.Pipeline{
		RemoteID:  remote.ID,
		Status:    model.PipelineStatusPending,
		Ref:       lo.CoalesceOrEmpty(remote.Ref, ref),
		WebURL:    remote.WebURL,
		Variables: stored,
		ProjectID: project.ID,
	})
	if err != nil {
		log.Errorf("保存触发记录失败: %v", err)
		return nil, err
	}

	pipeline.Project = project
	return dto.NewPipelineResponse(pipeline), nil
}

// triggerVariables APP_NAME 固定为项目名，其余用户变量按 key 排序追加
func triggerVariables(project *model.Project, extra map[string]string) []gitlab.Variable {
	variables := []gitlab.Variable{{Key: constants.TriggerVariableAppName, Value: project.Name}}

	keys := lo.Keys(extra)
	sort.Strings(keys)
	for _, key := range keys {
		if key == constants.TriggerVariableAppName {
			continue
		}
		variables = append(variables, gitlab.Variable{Key: key, Value: extra[key]})
	}
	return variables
}

func (s *pipelineService) triggerTarget(project *model.Project) int64 {
	if s.cfg.PipelineProjectID > 0 {
		return s.cfg.PipelineProjectID
	}
	return project.RemoteID
}

// remoteCandidates 流水线可能位于项目自身或统一流水线项目
func (s *pipelineService) remoteCandidates(project *model.Project) []int64 {
	return lo.Uniq(lo.Compact([]int64{project.RemoteID, s.cfg.PipelineProjectID}))
}

func (s *pipelineService) ListByProject(ctx context.Context, projectID int64) ([]*dto.PipelineResponse, error) {
	pipelines, err := s.syncService.SyncProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return dto.NewPipelineResponses(pipelines), nil
}

func (s *pipelineService) ListRecent(ctx context.Context, limit int) ([]*dto.PipelineResponse, error) {
	if limit <= 0 {
		limit = constants.DefaultRecentLimit
	}
	if limit > constants.MaxRecentLimit {
		limit = constants.MaxRecentLimit
	}

	pipelines, err := s.pipelineRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewPipelineResponses(pipelines), nil
}

// Stats 所有状态都会出现在结果中，没有记录的为 0
func (s *pipelineService) Stats(ctx context.Context, projectID int64) (map[model.PipelineStatus]int64, error) {
	counts, err := s.pipelineRepo.CountByStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := make(map[model.PipelineStatus]int64, len(model.AllPipelineStatuses))
	for _, status := range model.AllPipelineStatuses {
		stats[status] = counts[status]
	}
	return stats, nil
}

func (s *pipelineService) Details(ctx context.Context, projectID, pipelineID int64) (*dto.PipelineDetailResponse, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, remoteID := range s.remoteCandidates(project) {
		pipeline, err := s.gitlab.GetPipeline(ctx, remoteID, pipelineID)
		if err != nil {
			lastErr = err
			if gitlab.IsNotFound(err) {
				continue
			}
			break
		}

		jobs, err := s.gitlab.ListPipelineJobs(ctx, remoteID, pipelineID)
		if err != nil {
			return nil, providerError("list_jobs", "获取作业列表", err)
		}
		return &dto.PipelineDetailResponse{Pipeline: pipeline, Jobs: jobs}, nil
	}
	return nil, providerError("get_pipeline", "获取流水线", lastErr)
}

func (s *pipelineService) JobLog(ctx context.Context, projectID, jobID int64) (*dto.JobLogResponse, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, remoteID := range s.remoteCandidates(project) {
		trace, err := s.gitlab.GetJobTrace(ctx, remoteID, jobID)
		if err != nil {
			lastErr = err
			if gitlab.IsNotFound(err) {
				continue
			}
			break
		}
		return &dto.JobLogResponse{JobID: jobID, Trace: trace}, nil
	}
	return nil, providerError("job_trace", "获取作业日志", lastErr)
}

func (s *pipelineService) findProject(ctx context.Context, id int64) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}
