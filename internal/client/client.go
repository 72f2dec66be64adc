// Package client talks JSON to the chore server.
package client

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

	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/page"
)

const maxBody = 1 << 20

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every request; zero leaves requests unbounded. It is
// applied to a copy of the final http.Client, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = stripBearer(strings.TrimSpace(token)) }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q: need scheme and host", baseURL)
	}
	c := &Client{base: u, http: &http.Client{}}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		h := *c.http
		h.Timeout = c.timeout
		c.http = &h
	}
	return c, nil
}

// Resolve turns a form action or path into an absolute URL on the server.
func (c *Client) Resolve(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", ref, err)
	}
	return c.base.ResolveReference(r).String(), nil
}

// Page fetches and parses the index page.
func (c *Client) Page(ctx context.Context) (*page.Document, error) {
	body, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	doc, err := page.Parse(io.LimitReader(body, maxBody))
	if err != nil {
		return nil, err
	}
	if doc.Action == "" {
		doc.Action = "/"
	}
	return doc, nil
}

// List fetches every task, newest first.
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := c.call(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add posts {"title": title} to action and returns the created task.
func (c *Client) Add(ctx context.Context, action, title string) (model.Task, error) {
	var t model.Task
	if err := c.call(ctx, http.MethodPost, action, map[string]string{"title": title}, &t); err != nil {
		return model.Task{}, err
	}
	if t.ID == "" {
		return model.Task{}, fmt.Errorf("add: response carries no id")
	}
	return t, nil
}

// Toggle flips a task server-side and returns its new completion state.
func (c *Client) Toggle(ctx context.Context, id model.TaskID) (bool, error) {
	var res struct {
		Completed *model.Flag `json:"completed"`
	}
	if err := c.call(ctx, http.MethodPost, "/toggle/"+url.PathEscape(id.String()), nil, &res); err != nil {
		return false, err
	}
	if res.Completed == nil {
		return false, fmt.Errorf("toggle %s: response carries no completed field", id)
	}
	return bool(*res.Completed), nil
}

// Delete removes a task server-side. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id model.TaskID) error {
	return c.call(ctx, http.MethodPost, "/delete/"+url.PathEscape(id.String()), nil, nil)
}

func (c *Client) call(ctx context.Context, method, ref string, in, out any) error {
	body, err := c.do(ctx, method, ref, in)
	if err != nil {
		return err
	}
	defer body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBody))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, ref, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, ref string, in any) (io.ReadCloser, error) {
	target, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &StatusError{Method: method, URL: target, Code: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return res.Body, nil
}
