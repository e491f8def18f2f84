package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, Token: "glpat-test"})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestCurrentUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/user", r.URL.Path)
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))
		_, _ = w.Write([]byte(`{"id":7,"username":"alice","name":"Alice","email":"a@example.com"}`))
	})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestCreateProject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v4/projects", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "demo", body["name"])
		assert.Equal(t, "private", body["visibility"])
		assert.Equal(t, true, body["initialize_with_readme"])
		assert.Equal(t, float64(12), body["namespace_id"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101,"name":"demo","web_url":"https://gitlab.example.com/g/demo"}`))
	})

	project, err := client.CreateProject(context.Background(), CreateProjectOptions{Name: "demo", NamespaceID: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(101), project.ID)
	assert.Equal(t, "https://gitlab.example.com/g/demo", project.WebURL)
}

func TestCreateProject_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":{"name":["has already been taken"]}}`))
	})

	_, err := client.CreateProject(context.Background(), CreateProjectOptions{Name: "demo"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "name has already been taken", apiErr.Message)
	assert.Contains(t, apiErr.Body, "already been taken")
}

func TestFindProjectByName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "demo", r.URL.Query().Get("search"))
		assert.Equal(t, "last_activity_at", r.URL.Query().Get("order_by"))
		_, _ = w.Write([]byte(`[{"id":1,"name":"demo-api"},{"id":2,"name":"Demo"}]`))
	})

	project, err := client.FindProjectByName(context.Background(), "demo")
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, int64(2), project.ID)
}

func TestFindProjectByName_NoExactMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"demo-api"}]`))
	})

	project, err := client.FindProjectByName(context.Background(), "demo")
	require.NoError(t, err)
	assert.Nil(t, project)
}

func TestDeleteProject_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v4/projects/5", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"404 Project Not Found"}`))
	})

	err := client.DeleteProject(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "404 Project Not Found")
}

func TestTriggerPipeline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v4/projects/9/pipeline", r.URL.Path)

		var body triggerPipelineRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "main", body.Ref)
		assert.Equal(t, []Variable{{Key: "APP_NAME", Value: "demo"}}, body.Variables)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":555,"status":"created","ref":"main","web_url":"https://gitlab.example.com/p/-/pipelines/555"}`))
	})

	pipeline, err := client.TriggerPipeline(context.Background(), 9, "main", []Variable{{Key: "APP_NAME", Value: "demo"}})
	require.NoError(t, err)
	assert.Equal(t, int64(555), pipeline.ID)
	assert.Equal(t, "created", pipeline.Status)
}

func TestListPipelines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/v4/projects/9/pipelines", r.URL.Path)
		assert.Equal(t, "updated_at", q.Get("order_by"))
		assert.Equal(t, "desc", q.Get("sort"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "20", q.Get("per_page"))
		_, _ = w.Write([]byte(`[{"id":2,"status":"running","ref":"main"},{"id":1,"status":"success","ref":"main","duration":42}]`))
	})

	pipelines, err := client.ListPipelines(context.Background(), 9, ListPipelinesOptions{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, pipelines, 2)
	assert.Equal(t, "running", pipelines[0].Status)
	require.NotNil(t, pipelines[1].Duration)
	assert.Equal(t, 42, *pipelines[1].Duration)
}

func TestPipelineDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/9/pipelines/3":
			_, _ = w.Write([]byte(`{"id":3,"status":"failed"}`))
		case "/api/v4/projects/9/pipelines/3/jobs":
			_, _ = w.Write([]byte(`[{"id":30,"name":"build","stage":"build","status":"failed"}]`))
		case "/api/v4/projects/9/jobs/30/trace":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("$ make\nerror: boom\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	pipeline, err := client.GetPipeline(ctx, 9, 3)
	require.NoError(t, err)
	assert.Equal(t, "failed", pipeline.Status)

	jobs, err := client.ListPipelineJobs(ctx, 9, 3)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "build", jobs[0].Stage)

	trace, err := client.GetJobTrace(ctx, 9, 30)
	require.NoError(t, err)
	assert.Equal(t, "$ make\nerror: boom\n", trace)
}

func TestHooks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v4/projects/9/hooks":
			raw, _ := io.ReadAll(r.Body)
			var body createHookRequest
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, "https://dash.example.com/api/v1/webhooks/gitlab", body.URL)
			assert.Equal(t, "s3cret", body.Token)
			assert.True(t, body.PipelineEvents)
			assert.True(t, body.JobEvents)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":77,"url":"https://dash.example.com/api/v1/webhooks/gitlab","pipeline_events":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v4/projects/9/hooks":
			_, _ = w.Write([]byte(`[{"id":77}]`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v4/projects/9/hooks/77":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	hook, err := client.CreateHook(ctx, 9, HookOptions{
		URL:            "https://dash.example.com/api/v1/webhooks/gitlab",
		Token:          "s3cret",
		PipelineEvents: true,
		JobEvents:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), hook.ID)

	hooks, err := client.ListHooks(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, hooks, 1)

	assert.NoError(t, client.DeleteHook(ctx, 9, 77))
}

func TestGroups(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/groups/4":
			_, _ = w.Write([]byte(`{"id":4,"name":"Platform","full_path":"platform"}`))
		case "/api/v4/groups":
			assert.Equal(t, "plat", r.URL.Query().Get("search"))
			_, _ = w.Write([]byte(`[{"id":4,"name":"Platform"}]`))
		}
	})

	group, err := client.GetGroup(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "platform", group.FullPath)

	groups, err := client.SearchGroups(context.Background(), "plat")
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	srv.Close()

	_, err = client.CurrentUser(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
