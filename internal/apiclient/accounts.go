package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/i18n"
	"github.com/volunteerhub/portal/internal/shared"
)

type roleCredentials struct {
	auth.Credentials
	Character auth.Role `json:"Character"`
}

type roleRegistration struct {
	auth.Registration
	Character auth.Role `json:"Character"`
}

// Login calls the role's login endpoint: volunteerLogin, npoLogin or adminLogin.
func (c *Client) Login(ctx context.Context, role auth.Role, creds auth.Credentials) (*auth.AuthResponse, error) {
	if !role.Valid() {
		return nil, shared.ValidationError(c.translator.T(i18n.KeyUnsupportedRole), map[string][]string{"Character": {role.String()}})
	}
	var out auth.AuthResponse
	err := c.Do(ctx, Request{
		Endpoint: "accounts." + role.Slug() + "Login",
		Method:   http.MethodPost,
		Path:     "/accounts/" + role.Slug() + "Login/",
		Body:     roleCredentials{Credentials: creds, Character: role},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register calls volunteerRegister or npoRegister. Administrators cannot self-register.
func (c *Client) Register(ctx context.Context, role auth.Role, reg auth.Registration) (*auth.AuthResponse, error) {
	if role != auth.RoleVolunteer && role != auth.RoleOrganizer {
		return nil, shared.ValidationError(c.translator.T(i18n.KeyUnsupportedRole), map[string][]string{"Character": {role.String()}})
	}
	var out auth.AuthResponse
	err := c.Do(ctx, Request{
		Endpoint: "accounts." + role.Slug() + "Register",
		Method:   http.MethodPost,
		Path:     "/accounts/" + role.Slug() + "Register/",
		Body:     roleRegistration{Registration: reg, Character: role},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindUserByUsername reports whether username is still free.
func (c *Client) FindUserByUsername(ctx context.Context, username string) (*auth.UsernameAvailability, error) {
	var out auth.UsernameAvailability
	err := c.Do(ctx, Request{
		Endpoint: "accounts.findUserByUsername",
		Method:   http.MethodGet,
		Path:     "/accounts/findUserByUsername/",
		Query:    url.Values{"username": {username}},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
