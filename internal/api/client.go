package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eduportal/internal/pagination"
)

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(method, endpoint, outcome string, elapsed time.Duration)
}

// Client calls the organization REST API. A Client bound to a token with As
// attaches it as a bearer token to every request.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Observer Observer

	token string
}

// New creates a client for baseURL (including the /api/v1 prefix).
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// As returns a copy of c that authenticates with token.
func (c *Client) As(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Result is the payload and message of a successful mutation.
type Result[T any] struct {
	Data    T
	Message string
}

// envelope is the common response body. Lists report page/currentPage and
// total/totalCount depending on the endpoint.
type envelope struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Error       string          `json:"error"`
	Data        json.RawMessage `json:"data"`
	Page        int             `json:"page"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	Total       *int            `json:"total"`
	TotalCount  *int            `json:"totalCount"`
	Token       string          `json:"token"`
	User        json.RawMessage `json:"user"`
}

func (c *Client) do(ctx context.Context, method, endpoint, path string, query url.Values, body any) (env *envelope, err error) {
	op := method + " " + endpoint
	start := time.Now()
	defer func() {
		if c.Observer != nil {
			outcome := "ok"
			if err != nil {
				outcome = "error"
				if ae, ok := err.(*Error); ok {
					outcome = ae.Kind.String()
				}
			}
			c.Observer.ObserveUpstream(method, endpoint, outcome, time.Since(start))
		}
	}()

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Message: "unable to reach the server, check your connection", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Op: op, Message: "connection lost while reading the response", Err: err}
	}

	env = &envelope{}
	decodeErr := json.Unmarshal(raw, env)

	if resp.StatusCode >= 300 {
		msg := firstNonEmpty(env.Message, env.Error)
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("request failed: %s", resp.Status)
		}
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode, Op: op, Message: msg}
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindRejected, Status: resp.StatusCode, Op: op, Message: "unexpected response from server", Err: decodeErr}
	}
	if !env.Success {
		msg := firstNonEmpty(env.Message, env.Error, "request was not successful")
		return nil, &Error{Kind: KindRejected, Status: resp.StatusCode, Op: op, Message: msg}
	}
	return env, nil
}

func decodeData[T any](env *envelope, op string) (T, error) {
	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, &Error{Kind: KindRejected, Op: op, Message: "unexpected response from server", Err: err}
	}
	return out, nil
}

func fetch[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) (T, error) {
	env, err := c.do(ctx, http.MethodGet, endpoint, path, query, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeData[T](env, "GET "+endpoint)
}

func send[T any](ctx context.Context, c *Client, method, endpoint, path string, body any) (Result[T], error) {
	env, err := c.do(ctx, method, endpoint, path, nil, body)
	if err != nil {
		return Result[T]{}, err
	}
	data, err := decodeData[T](env, method+" "+endpoint)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Data: data, Message: env.Message}, nil
}

func remove(ctx context.Context, c *Client, endpoint, path string) (string, error) {
	env, err := c.do(ctx, http.MethodDelete, endpoint, path, nil, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func list[T any](ctx context.Context, c *Client, endpoint, path string, p pagination.Params, extra url.Values) (pagination.Page[T], error) {
	q := url.Values{}
	for k, v := range extra {
		if len(v) > 0 && v[0] != "" {
			q[k] = v
		}
	}
	if p.Page > 0 {
		q.Set("page", fmt.Sprint(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprint(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}

	env, err := c.do(ctx, http.MethodGet, endpoint, path, q, nil)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	items, err := decodeData[[]T](env, "GET "+endpoint)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	if items == nil {
		items = []T{}
	}
	return pagination.Page[T]{Items: items, Meta: listMeta(env, p, len(items))}, nil
}

// listMeta reconciles the page/currentPage and total/totalCount spellings.
func listMeta(env *envelope, p pagination.Params, n int) pagination.Meta {
	page := env.Page
	if page == 0 {
		page = env.CurrentPage
	}
	if page == 0 {
		page = max(p.Page, 1)
	}
	total := n
	switch {
	case env.Total != nil:
		total = *env.Total
	case env.TotalCount != nil:
		total = *env.TotalCount
	}
	limit := p.Limit
	if limit <= 0 {
		limit = max(n, 1)
	}
	meta := pagination.BuildMeta(total, pagination.Params{Page: page, Limit: limit})
	if env.TotalPages > 0 {
		meta.TotalPages = env.TotalPages
		meta.HasNext = page < env.TotalPages
	}
	return meta
}

func item(collection, id string) string {
	return collection + url.PathEscape(id)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
