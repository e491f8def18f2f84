package gitlab

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError GitLab 返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string // GitLab 返回的 message/error 字段，缺省为状态文本
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gitlab: %d %s", e.StatusCode, e.Message)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    extractMessage(status, body),
		Body:       string(body),
	}
}

// extractMessage 兼容 {"message": "..."}、{"message": {"name": ["..."]}}、{"error": "..."} 三种格式
func extractMessage(status int, body []byte) string {
	var payload struct {
		Message          json.RawMessage `json:"message"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Message) > 0 {
			var s string
			if err := json.Unmarshal(payload.Message, &s); err == nil && s != "" {
				return s
			}
			var fields map[string][]string
			if err := json.Unmarshal(payload.Message, &fields); err == nil && len(fields) > 0 {
				keys := make([]string, 0, len(fields))
				for k := range fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				parts := make([]string, 0, len(keys))
				for _, k := range keys {
					parts = append(parts, k+" "+strings.Join(fields[k], ", "))
				}
				return strings.Join(parts, "; ")
			}
		}
		if payload.ErrorDescription != "" {
			return payload.ErrorDescription
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}
