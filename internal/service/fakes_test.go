package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/samber/lo"

	"pipedash/internal/adapter/notification"
	"pipedash/internal/model"
	"pipedash/internal/pkg/gitlab"
)

// fakeGitLab 内存版 GitLab，按需注入错误
type fakeGitLab struct {
	mu sync.Mutex

	nextID    int64
	projects  map[int64]*gitlab.Project
	pipelines map[int64][]gitlab.Pipeline
	hooks     map[int64][]gitlab.Hook
	jobs      map[int64][]gitlab.Job
	traces    map[int64]string

	triggered     []triggerCall
	deleted       []int64
	listCalls     int
	onList        func(ctx context.Context)
	createHookErr error
	deleteErr     error
	triggerErr    error
	listErr       error
}

type triggerCall struct {
	ProjectID int64
	Ref       string
	Variables []gitlab.Variable
}

func newFakeGitLab() *fakeGitLab {
	return &fakeGitLab{
		nextID:    1000,
		projects:  map[int64]*gitlab.Project{},
		pipelines: map[int64][]gitlab.Pipeline{},
		hooks:     map[int64][]gitlab.Hook{},
		jobs:      map[int64][]gitlab.Job{},
		traces:    map[int64]string{},
	}
}

func notFound(what string) error {
	return &gitlab.APIError{StatusCode: http.StatusNotFound, Message: "404 " + what + " Not Found"}
}

func (f *fakeGitLab) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeGitLab) FindProjectByName(_ context.Context, name string) (*gitlab.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeGitLab) CreateProject(_ context.Context, opts gitlab.CreateProjectOptions) (*gitlab.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &gitlab.Project{ID: f.id(), Name: opts.Name, Description: opts.Description}
	p.WebURL = fmt.Sprintf("https://gitlab.example.com/group/%s", opts.Name)
	f.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (f *fakeGitLab) GetProject(_ context.Context, projectID int64) (*gitlab.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, notFound("Project")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGitLab) DeleteProject(_ context.Context, projectID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.projects[projectID]; !ok {
		return notFound("Project")
	}
	delete(f.projects, projectID)
	f.deleted = append(f.deleted, projectID)
	return nil
}

func (f *fakeGitLab) TriggerPipeline(_ context.Context, projectID int64, ref string, variables []gitlab.Variable) (*gitlab.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return nil, f.triggerErr
	}
	f.triggered = append(f.triggered, triggerCall{ProjectID: projectID, Ref: ref, Variables: variables})
	p := gitlab.Pipeline{ID: f.id(), ProjectID: projectID, Status: "created", Ref: ref, WebURL: "https://gitlab.example.com/-/pipelines"}
	f.pipelines[projectID] = append([]gitlab.Pipeline{p}, f.pipelines[projectID]...)
	return &p, nil
}

func (f *fakeGitLab) ListPipelines(ctx context.Context, projectID int64, opts gitlab.ListPipelinesOptions) ([]gitlab.Pipeline, error) {
	if f.onList != nil {
		f.onList(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	list := f.pipelines[projectID]
	if opts.PerPage > 0 && len(list) > opts.PerPage {
		list = list[:opts.PerPage]
	}
	return append([]gitlab.Pipeline(nil), list...), nil
}

func (f *fakeGitLab) GetPipeline(_ context.Context, projectID, pipelineID int64) (*gitlab.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pipelines[projectID] {
		if p.ID == pipelineID {
			cp := p
			return &cp, nil
		}
	}
	return nil, notFound("Pipeline")
}

func (f *fakeGitLab) ListPipelineJobs(_ context.Context, projectID, pipelineID int64) ([]gitlab.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[pipelineID], nil
}

func (f *fakeGitLab) GetJobTrace(_ context.Context, projectID, jobID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trace, ok := f.traces[jobID]
	if !ok {
		return "", notFound("Job")
	}
	return trace, nil
}

func (f *fakeGitLab) CreateHook(_ context.Context, projectID int64, opts gitlab.HookOptions) (*gitlab.Hook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createHookErr != nil {
		return nil, f.createHookErr
	}
	h := gitlab.Hook{ID: f.id(), URL: opts.URL, ProjectID: projectID, PipelineEvents: opts.PipelineEvents, JobEvents: opts.JobEvents}
	f.hooks[projectID] = append(f.hooks[projectID], h)
	return &h, nil
}

func (f *fakeGitLab) ListHooks(_ context.Context, projectID int64) ([]gitlab.Hook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gitlab.Hook(nil), f.hooks[projectID]...), nil
}

func (f *fakeGitLab) SearchGroups(_ context.Context, search string) ([]gitlab.Group, error) {
	groups := []gitlab.Group{
		{ID: 7, Name: "Platform", FullPath: "platform"},
		{ID: 8, Name: "Payments", FullPath: "biz/payments"},
	}
	if search == "" {
		return groups, nil
	}
	return lo.Filter(groups, func(g gitlab.Group, _ int) bool {
		return strings.Contains(strings.ToLower(g.Name), strings.ToLower(search))
	}), nil
}

// recordingNotifier 记录发送的通知
type recordingNotifier struct {
	mu        sync.Mutex
	messages  []*notification.NotificationMessage
	pipelines []model.PipelineStatus
}

func (n *recordingNotifier) Send(_ context.Context, msg *notification.NotificationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) SendPipelineNotification(_ context.Context, _ *model.Project, pipeline *model.Pipeline) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pipelines = append(n.pipelines, pipeline.Status)
	return nil
}
