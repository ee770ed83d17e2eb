// internal/panel/client.go
package panel

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

	"github.com/charmbracelet/log"

	"github.com/Tanxunze/7inet-bot/internal/models"
)

// Client talks to the 7iNet panel. Every call is a stateless request that
// carries the token explicitly; the client holds no session state and
// never retries. A failed attempt is reported upward immediately.
type Client struct {
	baseURL string
	http    *http.Client
}

// Browser-like header set the panel expects. Accept-Encoding is left to
// the transport so gzip responses are decompressed transparently.
var panelHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// get performs a panel GET and returns the raw response body.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, remoteErr(op, err)
	}
	for k, v := range panelHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", c.baseURL+"/")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("Panel request failed", "op", op, "error", err)
		return nil, remoteErr(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, remoteErr(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("Panel returned non-success status", "op", op, "status", resp.StatusCode)
		return nil, remoteErr(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	log.Debug("Panel request successful",
		"op", op,
		"duration", time.Since(start),
		"body_len", len(body),
	)
	return body, nil
}

// loginResponse matches the JSON payload of /user/oauth.do.
type loginResponse struct {
	Code  int    `json:"code"`
	Token string `json:"token"`
	Msg   string `json:"msg"`
}

// Login exchanges credentials for a bearer token. A response whose code
// is not 200 or that carries no token is an AuthError; transport and
// payload problems are RemoteErrors.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	params := url.Values{}
	params.Set("code", "")
	params.Set("method", "login.chk")
	params.Set("u", username)
	params.Set("p", password)

	body, err := c.get(ctx, "login", "/user/oauth.do", params)
	if err != nil {
		return "", err
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", remoteErr("login", fmt.Errorf("unexpected login payload: %w", err))
	}
	if lr.Code != 200 || lr.Token == "" {
		msg := "login failed"
		if lr.Msg != "" {
			msg = lr.Msg
		}
		log.Infof("Panel login rejected for user '%s'", username)
		return "", &AuthError{Message: msg}
	}
	return lr.Token, nil
}

// ListInstances fetches and parses the instance list page. An account
// with a rendered-but-empty table yields an empty slice; a document
// without the table at all yields ErrNoInstanceTable.
func (c *Client) ListInstances(ctx context.Context, token string) ([]models.InstanceSummary, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("showexpired", "false")

	body, err := c.get(ctx, "list_instances", "/user/instance_manager.page", params)
	if err != nil {
		return nil, err
	}
	return ParseInstanceList(bytes.NewReader(body))
}

// InstanceDetail fetches and parses the instance control page.
func (c *Client) InstanceDetail(ctx context.Context, token, instanceID string) (*models.InstanceDetail, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("id", instanceID)

	body, err := c.get(ctx, "instance_detail", "/user/instance_control.do", params)
	if err != nil {
		return nil, err
	}
	detail, err := ParseInstanceDetail(bytes.NewReader(body))
	if err != nil {
		return nil, remoteErr("instance_detail", err)
	}
	return detail, nil
}

// PowerControl issues a boot/stop/reboot command. The panel gives no
// synchronous completion signal: success means the command was accepted,
// not that the instance reached the target state.
func (c *Client) PowerControl(ctx context.Context, token, instanceID string, action models.PowerAction) error {
	if !action.Valid() {
		return remoteErr("power_control", fmt.Errorf("invalid power action '%s'", action))
	}
	params := url.Values{}
	params.Set("token", token)
	params.Set("id", instanceID)
	params.Set("_senkinlxc_powermgmt", string(action))

	_, err := c.get(ctx, "power_control", "/user/instance_control.do", params)
	return err
}

// AddPortForward creates a forwarding rule on the instance.
func (c *Client) AddPortForward(ctx context.Context, token, instanceID, protocol, internalPort, externalPort string) error {
	params := url.Values{}
	params.Set("token", token)
	params.Set("id", instanceID)
	params.Set("_senkinlxc_port", fmt.Sprintf("addport|%s|%s|%s", protocol, internalPort, externalPort))

	_, err := c.get(ctx, "add_port_forward", "/user/instance_control.do", params)
	return err
}

// DeletePortForward removes a forwarding rule from the instance.
func (c *Client) DeletePortForward(ctx context.Context, token, instanceID, protocol, internalPort, externalPort string) error {
	params := url.Values{}
	params.Set("token", token)
	params.Set("id", instanceID)
	params.Set("_senkinlxc_port", fmt.Sprintf("delport|%s|%s|%s", protocol, internalPort, externalPort))

	_, err := c.get(ctx, "delete_port_forward", "/user/instance_control.do", params)
	return err
}

// ChangePassword sets a new root password on the instance.
func (c *Client) ChangePassword(ctx context.Context, token, instanceID, newPassword string) error {
	params := url.Values{}
	params.Set("token", token)
	params.Set("id", instanceID)
	params.Set("_senkinlxc_password", newPassword)

	_, err := c.get(ctx, "change_password", "/user/instance_control.do", params)
	return err
}
