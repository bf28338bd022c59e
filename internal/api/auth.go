package api

import (
	"context"
	"encoding/json"
	"net/http"

	"eduportal/internal/forms"
	"eduportal/internal/model"
)

// LoginResult is the authenticated user and the bearer token for later calls.
type LoginResult struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	Message string     `json:"-"`
}

// Login exchanges credentials for a token. The user and token may arrive under
// data or at the top level of the envelope.
func (c *Client) Login(ctx context.Context, f forms.Login) (LoginResult, error) {
	const endpoint = "/auth/login"
	env, err := c.do(ctx, http.MethodPost, endpoint, endpoint, nil, f)
	if err != nil {
		return LoginResult{}, err
	}
	out, err := decodeData[LoginResult](env, "POST "+endpoint)
	if err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		out.Token = env.Token
	}
	if out.User.ID == "" && len(env.User) > 0 {
		if err := json.Unmarshal(env.User, &out.User); err != nil {
			return LoginResult{}, &Error{Kind: KindRejected, Op: "POST " + endpoint, Message: "unexpected response from server", Err: err}
		}
	}
	if out.Token == "" {
		return LoginResult{}, &Error{Kind: KindRejected, Op: "POST " + endpoint, Message: "login response did not include a token"}
	}
	out.Message = env.Message
	return out, nil
}

// CreateOrganization registers a new tenant.
func (c *Client) CreateOrganization(ctx context.Context, f forms.Organization) (Result[model.Organization], error) {
	return send[model.Organization](ctx, c, http.MethodPost, "/organization/", "/organization/", f)
}

// Dashboard returns the summary for role.
func (c *Client) Dashboard(ctx context.Context, role model.Role) (model.Dashboard, error) {
	path := "/organization/users/dashboard"
	switch role {
	case model.RoleTutor:
		path = "/organization/users/dashboard/tutor"
	case model.RoleStudent:
		path = "/organization/users/dashboard/student"
	}
	return fetch[model.Dashboard](ctx, c, path, path, nil)
}
