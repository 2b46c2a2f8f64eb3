package apiclient

import (
	"context"
	"net/http"

	"github.com/volunteerhub/portal/internal/auth"
)

// GetProfile fetches the signed-in account.
func (c *Client) GetProfile(ctx context.Context) (*auth.Principal, error) {
	var out auth.Principal
	if err := c.Do(ctx, Request{Endpoint: "users.profile", Method: http.MethodGet, Path: "/users/profile/"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves profile changes and returns the updated account.
func (c *Client) UpdateProfile(ctx context.Context, changes auth.ProfileUpdate) (*auth.Principal, error) {
	var out auth.Principal
	err := c.Do(ctx, Request{
		Endpoint: "users.profileUpdate",
		Method:   http.MethodPut,
		Path:     "/users/profile/update/",
		Body:     changes,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
