package service

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipedash/internal/adapter/notification"
	"pipedash/internal/dto"
	"pipedash/internal/model"
	"pipedash/internal/pkg/gitlab"
	"pipedash/internal/repository"
	"pipedash/internal/testutil"
	pkgErrors "pipedash/pkg/errors"
)

// failingCreateRepo 模拟镜像写入失败
type failingCreateRepo struct {
	repository.ProjectRepository
}

func (r failingCreateRepo) Create(context.Context, *model.Project) error {
	return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建项目失败", errors.New("disk full"))
}

type projectFixture struct {
	gitlab   *fakeGitLab
	notifier *recordingNotifier
	projects repository.ProjectRepository
	pipes    repository.PipelineRepository
	users    repository.UserRepository
	svc      ProjectService
	owner    *model.User
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &projectFixture{
		gitlab:   newFakeGitLab(),
		notifier: &recordingNotifier{},
		projects: repository.NewProjectRepository(db),
		pipes:    repository.NewPipelineRepository(db),
		users:    repository.NewUserRepository(db),
	}
	f.svc = NewProjectService(f.gitlab, f.projects, f.notifier, ProjectServiceConfig{
		BaseURL:      "https://dash.example.com/",
		WebhookToken: "hook-secret",
	})

	owner, err := f.users.UpsertByProviderID(context.Background(), &model.User{ProviderID: 1, Username: "owner"})
	require.NoError(t, err)
	f.owner = owner
	return f
}

func (f *projectFixture) user(t *testing.T, providerID int64, role model.Role) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.UpsertByProviderID(ctx, &model.User{ProviderID: providerID, Username: "u"})
	require.NoError(t, err)
	if role != model.RoleUser {
		require.NoError(t, f.users.UpdateRole(ctx, u.ID, role))
		u.Role = role
	}
	return u
}

func TestProjectCreate(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{
		Name:        "my-app",
		Description: lo.ToPtr(`<script>alert(1)</script>demo app`),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, resp.Status)
	assert.Empty(t, resp.Warning)
	require.NotNil(t, resp.WebhookID)
	assert.Equal(t, "demo app", *resp.Description)
	assert.Equal(t, "owner", resp.Owner.Username)

	hooks := f.gitlab.hooks[resp.RemoteID]
	require.Len(t, hooks, 1)
	assert.Equal(t, "https://dash.example.com/api/v1/webhooks/gitlab", hooks[0].URL)
	assert.True(t, hooks[0].PipelineEvents)
	assert.True(t, hooks[0].JobEvents)

	stored, err := f.projects.FindByRemoteID(ctx, resp.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, stored.UserID)
	assert.Equal(t, *resp.WebhookID, *stored.WebhookID)
}

func TestProjectCreate_Rejections(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "bad/name"})
	assert.Equal(t, pkgErrors.CodeBadRequest, pkgErrors.CodeOf(err))

	_, err = f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "taken"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "taken"})
	assert.ErrorIs(t, err, pkgErrors.ErrProjectExists)
	assert.Len(t, f.gitlab.projects, 1)
}

func TestProjectCreate_WebhookFailureMarksIncomplete(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	f.gitlab.createHookErr = &gitlab.APIError{StatusCode: 422, Message: "url is blocked"}

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "half-done"})
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusProvisioningIncomplete, resp.Status)
	assert.NotEmpty(t, resp.Warning)

	stored, err := f.projects.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusProvisioningIncomplete, stored.Status)
	assert.Nil(t, stored.WebhookID)

	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, notification.NotifyProvisioningIncomplete, f.notifier.messages[0].Type)

	// 恢复后补偿
	f.gitlab.createHookErr = nil
	require.NoError(t, f.svc.ReconcileAll(ctx))

	stored, err = f.projects.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, stored.Status)
	assert.NotNil(t, stored.WebhookID)
}

func TestProjectCreate_MirrorFailureDeletesRemote(t *testing.T) {
	f := newProjectFixture(t)
	svc := NewProjectService(f.gitlab, failingCreateRepo{f.projects}, f.notifier, ProjectServiceConfig{BaseURL: "http://localhost:8080"})

	_, err := svc.Create(context.Background(), f.owner, &dto.CreateProjectRequest{Name: "orphan"})
	require.Error(t, err)
	assert.Equal(t, pkgErrors.CodeDatabaseError, pkgErrors.CodeOf(err))
	assert.Len(t, f.gitlab.deleted, 1)
	assert.Empty(t, f.gitlab.projects)
}

func TestProjectReconcile_ReusesExistingHook(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	f.gitlab.createHookErr = errors.New("timeout")

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "retry"})
	require.NoError(t, err)

	// hook 实际已在 GitLab 上创建成功
	f.gitlab.hooks[resp.RemoteID] = []gitlab.Hook{{ID: 42, URL: "https://dash.example.com/api/v1/webhooks/gitlab"}}

	stranger := f.user(t, 2, model.RoleUser)
	_, err = f.svc.Reconcile(ctx, stranger, resp.ID)
	assert.Equal(t, pkgErrors.CodeForbidden, pkgErrors.CodeOf(err))

	reconciled, err := f.svc.Reconcile(ctx, f.owner, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusActive, reconciled.Status)
	assert.Equal(t, int64(42), *reconciled.WebhookID)
	assert.Len(t, f.gitlab.hooks[resp.RemoteID], 1)
}

func TestProjectListAndGet(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "listed"})
	require.NoError(t, err)
	for i := int64(1); i <= 7; i++ {
		require.NoError(t, f.pipes.Create(ctx, &model.Pipeline{RemoteID: i, Status: model.PipelineStatusSuccess, ProjectID: resp.ID}))
	}

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Pipelines, 5)
	assert.Equal(t, "owner", list[0].Owner.Username)

	got, err := f.svc.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Len(t, got.Pipelines, 7)

	_, err = f.svc.Get(ctx, 999)
	assert.ErrorIs(t, err, pkgErrors.ErrProjectNotFound)
}

func TestProjectDelete(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "doomed"})
	require.NoError(t, err)
	require.NoError(t, f.pipes.Create(ctx, &model.Pipeline{RemoteID: 1, Status: model.PipelineStatusRunning, ProjectID: resp.ID}))

	stranger := f.user(t, 2, model.RoleUser)
	err = f.svc.Delete(ctx, stranger, resp.ID)
	assert.Equal(t, pkgErrors.CodeForbidden, pkgErrors.CodeOf(err))

	admin := f.user(t, 3, model.RoleAdmin)
	require.NoError(t, f.svc.Delete(ctx, admin, resp.ID))

	_, err = f.projects.FindByID(ctx, resp.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
	_, err = f.pipes.FindByRemoteID(ctx, 1)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
	assert.Empty(t, f.gitlab.projects)
}

func TestProjectDelete_RemoteFailureKeepsMirror(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "sticky"})
	require.NoError(t, err)

	f.gitlab.deleteErr = &gitlab.APIError{StatusCode: 403, Message: "403 Forbidden"}
	err = f.svc.Delete(ctx, f.owner, resp.ID)
	require.Error(t, err)
	assert.Equal(t, pkgErrors.CodeProviderError, pkgErrors.CodeOf(err))

	_, err = f.projects.FindByID(ctx, resp.ID)
	assert.NoError(t, err)
}

func TestProjectDelete_RemoteAlreadyGone(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, f.owner, &dto.CreateProjectRequest{Name: "ghost"})
	require.NoError(t, err)
	delete(f.gitlab.projects, resp.RemoteID)

	require.NoError(t, f.svc.Delete(ctx, f.owner, resp.ID))
	_, err = f.projects.FindByID(ctx, resp.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
}

func TestProjectSearchNamespaces(t *testing.T) {
	f := newProjectFixture(t)

	all, err := f.svc.SearchNamespaces(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.svc.SearchNamespaces(context.Background(), "  plat ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(7), found[0].ID)
	assert.Equal(t, "platform", found[0].FullPath)
}
