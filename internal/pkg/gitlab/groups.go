package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetGroup 获取群组
func (c *Client) GetGroup(ctx context.Context, groupID int64) (*Group, error) {
	var group Group
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d", groupID), nil, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// SearchGroups 搜索 token 可见的群组
func (c *Client) SearchGroups(ctx context.Context, search string) ([]Group, error) {
	query := url.Values{"search": {search}, "per_page": {"100"}}

	var groups []Group
	if err := c.do(ctx, http.MethodGet, "/groups", query, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
