package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/pkg/metrics"
	pkgErrors "pipedash/pkg/errors"
)

// GitLabClient 服务层用到的 GitLab API
type GitLabClient interface {
	FindProjectByName(ctx context.Context, name string) (*gitlab.Project, error)
	CreateProject(ctx context.Context, opts gitlab.CreateProjectOptions) (*gitlab.Project, error)
	GetProject(ctx context.Context, projectID int64) (*gitlab.Project, error)
	DeleteProject(ctx context.Context, projectID int64) error
	TriggerPipeline(ctx context.Context, projectID int64, ref string, variables []gitlab.Variable) (*gitlab.Pipeline, error)
	ListPipelines(ctx context.Context, projectID int64, opts gitlab.ListPipelinesOptions) ([]gitlab.Pipeline, error)
	GetPipeline(ctx context.Context, projectID, pipelineID int64) (*gitlab.Pipeline, error)
	ListPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]gitlab.Job, error)
	GetJobTrace(ctx context.Context, projectID, jobID int64) (string, error)
	CreateHook(ctx context.Context, projectID int64, opts gitlab.HookOptions) (*gitlab.Hook, error)
	ListHooks(ctx context.Context, projectID int64) ([]gitlab.Hook, error)
	SearchGroups(ctx context.Context, search string) ([]gitlab.Group, error)
}

var _ GitLabClient = (*gitlab.Client)(nil)

// providerError 将 GitLab 调用失败转换为业务错误，保留 GitLab 返回的信息
func providerError(operation, action string, err error) error {
	metrics.ProviderErrors.WithLabelValues(operation).Inc()

	var apiErr *gitlab.APIError
	if errors.As(err, &apiErr) {
		code := pkgErrors.CodeProviderError
		if apiErr.StatusCode == http.StatusNotFound {
			code = pkgErrors.CodeNotFound
		}
		return pkgErrors.Wrap(code, fmt.Sprintf("GitLab %s失败: %s", action, apiErr.Message), err)
	}
	return pkgErrors.Wrap(pkgErrors.CodeProviderError, fmt.Sprintf("GitLab %s失败: %v", action, err), err)
}
