package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pipedash/internal/model"
	"pipedash/internal/pkg/config"
)

func TestPipelineNotifyType(t *testing.T) {
	assert.Equal(t, NotifyPipelineSuccess, PipelineNotifyType(model.PipelineStatusSuccess))
	assert.Equal(t, NotifyPipelineFailed, PipelineNotifyType(model.PipelineStatusFailed))
	assert.Empty(t, PipelineNotifyType(model.PipelineStatusRunning))
}

func TestPipelineMessage(t *testing.T) {
	project := &model.Project{BaseModel: model.BaseModel{ID: 3}, Name: "demo"}
	pipeline := &model.Pipeline{
		RemoteID: 88,
		Status:   model.PipelineStatusFailed,
		Ref:      "main",
		Stage:    lo.ToPtr("deploy"),
		Duration: lo.ToPtr(75),
		WebURL:   "https://gitlab.example.com/demo/-/pipelines/88",
	}

	msg := PipelineMessage(project, pipeline)
	assert.Equal(t, NotifyPipelineFailed, msg.Type)
	assert.Equal(t, ColorRed, msg.Color)
	assert.Equal(t, int64(88), msg.PipelineID)
	assert.Equal(t, pipeline.WebURL, msg.Link)
	assert.Equal(t, "**项目**: demo\n**流水线**: #88\n**分支**: main\n**阶段**: deploy\n**状态**: FAILED\n**耗时**: 1m15s", msg.Markdown())
}

func TestLarkNotifier_SendPipelineNotification(t *testing.T) {
	var got larkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	n := NewLarkNotifier(srv.URL, true, zap.NewNop())
	project := &model.Project{BaseModel: model.BaseModel{ID: 1}, Name: "demo"}
	pipeline := &model.Pipeline{RemoteID: 88, Status: model.PipelineStatusSuccess, Ref: "main", WebURL: "https://gitlab.example.com/p/88"}

	require.NoError(t, n.SendPipelineNotification(context.Background(), project, pipeline))

	assert.Equal(t, "interactive", got.MsgType)
	assert.Empty(t, got.Sign)
	assert.Equal(t, ColorGreen, got.Card.Header.Template)
	require.Len(t, got.Card.Elements, 3)
	assert.Contains(t, got.Card.Elements[0].Text.Content, "#88")
	require.Len(t, got.Card.Elements[2].Actions, 1)
	assert.Equal(t, pipeline.WebURL, got.Card.Elements[2].Actions[0].URL)
}

func TestLarkNotifier_Signed(t *testing.T) {
	var got larkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := NewLarkNotifier(srv.URL, true, zap.NewNop())
	n.secret = "bot-secret"
	n.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, n.Send(context.Background(), &NotificationMessage{Title: "t"}))
	assert.Equal(t, "1700000000", got.Timestamp)
	want, err := larkSign("1700000000", "bot-secret")
	require.NoError(t, err)
	assert.Equal(t, want, got.Sign)
	assert.Equal(t, ColorGrey, got.Card.Header.Template)
}

func TestLarkNotifier_Errors(t *testing.T) {
	badGateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer badGateway.Close()

	n := NewLarkNotifier(badGateway.URL, true, zap.NewNop())
	assert.Error(t, n.Send(context.Background(), &NotificationMessage{Title: "t"}))

	businessErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":19021,"msg":"sign match fail or timestamp is not within one hour from current time"}`))
	}))
	defer businessErr.Close()

	err := NewLarkNotifier(businessErr.URL, true, zap.NewNop()).Send(context.Background(), &NotificationMessage{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "19021")

	disabled := NewLarkNotifier(badGateway.URL, false, zap.NewNop())
	assert.NoError(t, disabled.Send(context.Background(), &NotificationMessage{Title: "t"}))
}

type failingNotifier struct{ err error }

func (f failingNotifier) Send(context.Context, *NotificationMessage) error { return f.err }

func (f failingNotifier) SendPipelineNotification(context.Context, *model.Project, *model.Pipeline) error {
	return f.err
}

func TestMultiNotifier_JoinsErrors(t *testing.T) {
	errA, errB := errors.New("a down"), errors.New("b down")
	m := NewMultiNotifier(zap.NewNop(), failingNotifier{errA}, NewLogNotifier(zap.NewNop()), failingNotifier{errB})

	err := m.Send(context.Background(), &NotificationMessage{Title: "t"})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	ok := NewMultiNotifier(zap.NewNop(), NewLogNotifier(zap.NewNop()))
	assert.NoError(t, ok.SendPipelineNotification(context.Background(), &model.Project{Name: "demo"}, &model.Pipeline{Status: model.PipelineStatusSuccess}))
}

func TestNewNotifier(t *testing.T) {
	assert.IsType(t, &LogNotifier{}, NewNotifier(&config.NotificationConfig{}, zap.NewNop()))

	n := NewNotifier(&config.NotificationConfig{Enabled: true, Provider: "lark", LarkSecret: "s"}, zap.NewNop())
	require.IsType(t, &MultiNotifier{}, n)
	lark := n.(*MultiNotifier).notifiers[1].(*LarkNotifier)
	assert.Equal(t, "s", lark.secret)
}
