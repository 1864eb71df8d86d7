// Package client talks to the daemon's loopback control API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/neustart-io/neustart/internal/buildinfo"
	"github.com/neustart-io/neustart/internal/config"
	"github.com/neustart-io/neustart/internal/models"
)

// DefaultTimeout bounds a single API call. Stopping an app waits for the
// daemon's stop timeout, so this is generous.
const DefaultTimeout = 30 * time.Second

// ErrDaemonNotRunning is returned when no live daemon.yaml is found.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// APIError is a non-2xx response from the control API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a 404 from the control API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsConflict reports whether err is a 409 from the control API.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is a typed wrapper over the control API.
type Client struct {
	resty *resty.Client
}

// New creates a client for the API at baseURL (e.g. http://127.0.0.1:8080).
func New(baseURL string) *Client {
	r := resty.New()
	r.
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(100*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("User-Agent", "neustart/"+buildinfo.Version).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	// Only connection failures are retried; commands are not idempotent.
	r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		var opErr *net.OpError
		return err != nil && errors.As(err, &opErr) && opErr.Op == "dial"
	})

	return &Client{resty: r}
}

// ForDaemon creates a client for the daemon described by info.
func ForDaemon(info *models.DaemonInfo) *Client {
	host := info.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return New("http://" + net.JoinHostPort(host, strconv.Itoa(info.Port)))
}

// Connect locates the running daemon through daemon.yaml.
func Connect() (*Client, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return nil, fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		return nil, ErrDaemonNotRunning
	}
	return ForDaemon(info), nil
}

func (c *Client) do(ctx context.Context, method, path, id string, body, result any) error {
	var apiErr models.ErrorResponse
	req := c.resty.R().
		SetContext(ctx).
		SetError(&apiErr)
	if id != "" {
		req.SetPathParam("id", id)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

// ListApps returns every app in registry order.
func (c *Client) ListApps(ctx context.Context) ([]models.Snapshot, error) {
	var list models.AppList
	if err := c.do(ctx, http.MethodGet, "/api/apps", "", nil, &list); err != nil {
		return nil, err
	}
	return list.Apps, nil
}

// GetApp returns the snapshot of one app.
func (c *Client) GetApp(ctx context.Context, id string) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/apps/{id}", id, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetDefinition returns the persisted definition of one app.
func (c *Client) GetDefinition(ctx context.Context, id string) (*models.AppDefinition, error) {
	var def models.AppDefinition
	if err := c.do(ctx, http.MethodGet, "/api/apps/{id}/definition", id, nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// AddApp registers a new app. The daemon starts it when enabled.
func (c *Client) AddApp(ctx context.Context, req models.AppRequest) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodPost, "/api/apps", "", req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// UpdateApp replaces the definition of an existing app.
func (c *Client) UpdateApp(ctx context.Context, id string, req models.AppRequest) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodPut, "/api/apps/{id}", id, req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RenameApp changes an app's ID.
func (c *Client) RenameApp(ctx context.Context, id, newID string) (*models.Snapshot, error) {
	var snap models.Snapshot
	body := models.RenameRequest{NewID: newID}
	if err := c.do(ctx, http.MethodPost, "/api/apps/{id}/rename", id, body, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RemoveApp closes and deletes an app.
func (c *Client) RemoveApp(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/apps/{id}", id, nil, nil)
}

// StartApp enables and launches an app.
func (c *Client) StartApp(ctx context.Context, id string) (*models.Snapshot, error) {
	return c.command(ctx, id, "start")
}

// StopApp disables and terminates an app.
func (c *Client) StopApp(ctx context.Context, id string) (*models.Snapshot, error) {
	return c.command(ctx, id, "stop")
}

// ToggleEnabled flips an app's Enabled flag.
func (c *Client) ToggleEnabled(ctx context.Context, id string) (*models.Snapshot, error) {
	return c.command(ctx, id, "toggle-enabled")
}

// ToggleHidden flips an app's Hidden flag.
func (c *Client) ToggleHidden(ctx context.Context, id string) (*models.Snapshot, error) {
	return c.command(ctx, id, "toggle-hidden")
}

func (c *Client) command(ctx context.Context, id, action string) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.do(ctx, http.MethodPost, "/api/apps/{id}/"+action, id, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Machine returns the latest machine-wide sample.
func (c *Client) Machine(ctx context.Context) (*models.MachineStats, error) {
	var stats models.MachineStats
	if err := c.do(ctx, http.MethodGet, "/api/machine", "", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Shutdown asks the daemon to close every app and exit.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/shutdown", "", nil, nil)
}
