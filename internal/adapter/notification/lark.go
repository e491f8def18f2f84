package notification

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pipedash/internal/model"
)

// LarkNotifier 飞书/Lark 自定义机器人
type LarkNotifier struct {
	webhookURL string
	secret     string // 机器人开启签名校验时填写
	enabled    bool
	logger     *zap.Logger
	client     *http.Client
	now        func() time.Time
}

func NewLarkNotifier(webhookURL string, enabled bool, logger *zap.Logger) *LarkNotifier {
	return &LarkNotifier{
		webhookURL: webhookURL,
		enabled:    enabled,
		logger:     logger,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

type larkText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type larkAction struct {
	Tag  string   `json:"tag"`
	Text larkText `json:"text"`
	URL  string   `json:"url"`
	Type string   `json:"type"`
}

type larkElement struct {
	Tag     string       `json:"tag"`
	Text    *larkText    `json:"text,omitempty"`
	Actions []larkAction `json:"actions,omitempty"`
}

type larkCard struct {
	Header struct {
		Title    larkText `json:"title"`
		Template Color    `json:"template"`
	} `json:"header"`
	Elements []larkElement `json:"elements"`
}

type larkRequest struct {
	Timestamp string   `json:"timestamp,omitempty"`
	Sign      string   `json:"sign,omitempty"`
	MsgType   string   `json:"msg_type"`
	Card      larkCard `json:"card"`
}

// larkResponse 飞书 HTTP 状态码为 200 时仍可能返回业务错误
type larkResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (n *LarkNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	if !n.enabled {
		n.logger.Debug("通知已禁用,跳过发送")
		return nil
	}
	if n.webhookURL == "" {
		n.logger.Warn("Lark Webhook URL未配置")
		return nil
	}

	body, err := n.buildRequest(msg)
	if err != nil {
		return err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Lark API返回错误状态码: %d", resp.StatusCode)
	}
	var result larkResponse
	if raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)); len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err == nil && result.Code != 0 {
			return fmt.Errorf("Lark API返回错误: code=%d msg=%s", result.Code, result.Msg)
		}
	}

	n.logger.Info("Lark通知发送成功",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title))
	return nil
}

func (n *LarkNotifier) SendPipelineNotification(ctx context.Context, project *model.Project, pipeline *model.Pipeline) error {
	return n.Send(ctx, PipelineMessage(project, pipeline))
}

func (n *LarkNotifier) buildRequest(msg *NotificationMessage) (*larkRequest, error) {
	color := msg.Color
	if color == "" {
		color = ColorGrey
	}

	card := larkCard{}
	card.Header.Title = larkText{Tag: "plain_text", Content: msg.Title}
	card.Header.Template = color
	card.Elements = []larkElement{
		{Tag: "div", Text: &larkText{Tag: "lark_md", Content: msg.Markdown()}},
		{Tag: "div", Text: &larkText{Tag: "plain_text", Content: "时间: " + msg.Timestamp.Format("2006-01-02 15:04:05")}},
	}
	if msg.Link != "" {
		card.Elements = append(card.Elements, larkElement{
			Tag: "action",
			Actions: []larkAction{{
				Tag:  "button",
				Text: larkText{Tag: "plain_text", Content: "在 GitLab 查看"},
				URL:  msg.Link,
				Type: "default",
			}},
		})
	}

	req := &larkRequest{MsgType: "interactive", Card: card}
	if n.secret != "" {
		ts := strconv.FormatInt(n.now().Unix(), 10)
		sign, err := larkSign(ts, n.secret)
		if err != nil {
			return nil, err
		}
		req.Timestamp, req.Sign = ts, sign
	}
	return req, nil
}

// larkSign 飞书签名：以 "timestamp\nsecret" 为 key 对空串做 HmacSHA256 后 base64
func larkSign(timestamp, secret string) (string, error) {
	mac := hmac.New(sha256.New, []byte(timestamp+"\n"+secret))
	if _, err := mac.Write(nil); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
