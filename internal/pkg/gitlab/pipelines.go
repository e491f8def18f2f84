package gitlab

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListPipelinesOptions 分页参数
type ListPipelinesOptions struct {
	Page    int
	PerPage int
	Ref     string
}

type triggerPipelineRequest struct {
	Ref       string     `json:"ref"`
	Variables []Variable `json:"variables,omitempty"`
}

// TriggerPipeline 在指定 ref 上创建流水线
func (c *Client) TriggerPipeline(ctx context.Context, projectID int64, ref string, variables []Variable) (*Pipeline, error) {
	body := triggerPipelineRequest{Ref: ref, Variables: variables}

	var pipeline Pipeline
	if err := c.do(ctx, http.MethodPost, projectPath(projectID, "pipeline"), nil, body, &pipeline); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// ListPipelines 按 updated_at 倒序列出流水线
func (c *Client) ListPipelines(ctx context.Context, projectID int64, opts ListPipelinesOptions) ([]Pipeline, error) {
	query := url.Values{
		"order_by": {"updated_at"},
		"sort":     {"desc"},
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Ref != "" {
		query.Set("ref", opts.Ref)
	}

	var pipelines []Pipeline
	if err := c.do(ctx, http.MethodGet, projectPath(projectID, "pipelines"), query, nil, &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// GetPipeline 获取单条流水线
func (c *Client) GetPipeline(ctx context.Context, projectID, pipelineID int64) (*Pipeline, error) {
	var pipeline Pipeline
	path := projectPath(projectID, "pipelines", strconv.FormatInt(pipelineID, 10))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &pipeline); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// ListPipelineJobs 获取流水线下的作业
func (c *Client) ListPipelineJobs(ctx context.Context, projectID, pipelineID int64) ([]Job, error) {
	query := url.Values{"per_page": {"100"}}

	var jobs []Job
	path := projectPath(projectID, "pipelines", strconv.FormatInt(pipelineID, 10), "jobs")
	if err := c.do(ctx, http.MethodGet, path, query, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJobTrace 获取作业日志原文
func (c *Client) GetJobTrace(ctx context.Context, projectID, jobID int64) (string, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, projectPath(projectID, "jobs", strconv.FormatInt(jobID, 10), "trace"), nil, nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
