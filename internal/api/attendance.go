package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

const attendancePath = "/organization/attendance/"

// CreateAttendance opens an attendance session for a class.
func (c *Client) CreateAttendance(ctx context.Context, f forms.AttendanceCreate) (Result[model.AttendanceSession], error) {
	return send[model.AttendanceSession](ctx, c, http.MethodPost, attendancePath, attendancePath, f)
}

// ListAttendance lists attendance sessions page by page.
func (c *Client) ListAttendance(ctx context.Context, p pagination.Params) (pagination.Page[model.AttendanceSession], error) {
	return list[model.AttendanceSession](ctx, c, attendancePath, attendancePath, p, nil)
}

// GetAttendance fetches one attendance session with its records.
func (c *Client) GetAttendance(ctx context.Context, id string) (model.AttendanceSession, error) {
	return fetch[model.AttendanceSession](ctx, c, attendancePath+":id", item(attendancePath, id), nil)
}

// RegenerateCode asks upstream to reissue the sign-in or sign-out code.
func (c *Client) RegenerateCode(ctx context.Context, id string, f forms.Regenerate) (Result[model.AttendanceSession], error) {
	body := map[string]string{"regenerate": f.Direction}
	return send[model.AttendanceSession](ctx, c, http.MethodPut, attendancePath+":id", item(attendancePath, id), body)
}

// DeleteAttendance removes a session and returns the upstream message.
func (c *Client) DeleteAttendance(ctx context.Context, id string) (string, error) {
	return remove(ctx, c, attendancePath+":id", item(attendancePath, id))
}

// SignIn redeems a sign-in code for the authenticated student.
func (c *Client) SignIn(ctx context.Context, f forms.Redeem) (Result[model.AttendanceRecord], error) {
	const endpoint = attendancePath + "signin"
	return send[model.AttendanceRecord](ctx, c, http.MethodPost, endpoint, endpoint, f.Normalized())
}

// SignOut redeems a sign-out code for the authenticated student.
func (c *Client) SignOut(ctx context.Context, f forms.Redeem) (Result[model.AttendanceRecord], error) {
	const endpoint = attendancePath + "signout"
	return send[model.AttendanceRecord](ctx, c, http.MethodPost, endpoint, endpoint, f.Normalized())
}

// ActiveSessions lists sessions that are still accepting codes.
func (c *Client) ActiveSessions(ctx context.Context) ([]model.AttendanceSession, error) {
	const endpoint = attendancePath + "active"
	return fetch[[]model.AttendanceSession](ctx, c, endpoint, endpoint, nil)
}

// PastSessions lists closed sessions page by page.
func (c *Client) PastSessions(ctx context.Context, p pagination.Params) (pagination.Page[model.AttendanceSession], error) {
	const endpoint = attendancePath + "past"
	return list[model.AttendanceSession](ctx, c, endpoint, endpoint, p, nil)
}

// CloseSession ends a session; codes are no longer redeemable afterwards.
func (c *Client) CloseSession(ctx context.Context, id string) (Result[model.AttendanceSession], error) {
	const prefix = attendancePath + "close/"
	return send[model.AttendanceSession](ctx, c, http.MethodPut, prefix+":id", item(prefix, id), nil)
}

// History lists the authenticated student's attendance within a month or day.
func (c *Client) History(ctx context.Context, f forms.HistoryFilter, p pagination.Params) (pagination.Page[model.HistoryEntry], error) {
	const endpoint = attendancePath + "history"
	extra := url.Values{"month": {fmt.Sprint(f.Month)}}
	if f.Day > 0 {
		extra.Set("day", fmt.Sprint(f.Day))
	}
	if f.Year > 0 {
		extra.Set("year", fmt.Sprint(f.Year))
	}
	return list[model.HistoryEntry](ctx, c, endpoint, endpoint, p, extra)
}
