package gitlab

import (
	"context"
	"net/http"
)

// CurrentUser 获取 token 对应的用户
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
