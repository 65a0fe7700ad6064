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

	"github.com/kgellert/hodatay-groups/internal/groups"
	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
	"github.com/kgellert/hodatay-groups/internal/messages"
)

const defaultHTTPTimeout = 10 * time.Second

// Client talks to the groups HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// APIError is an error body returned by the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type PublicConfig struct {
	Messages struct {
		EnforceGroupExists bool `json:"enforce_group_exists"`
	} `json:"messages"`
	Uploads struct {
		MaxImageSize int64 `json:"max_image_size"`
	} `json:"uploads"`
	AllowedImageTypes []string `json:"allowed_image_types"`
}

func (c *Client) Config(ctx context.Context) (PublicConfig, error) {
	var resp struct {
		Config PublicConfig `json:"config"`
	}
	err := c.do(ctx, http.MethodGet, "/config", nil, nil, "", &resp)
	return resp.Config, err
}

func (c *Client) ListGroups(ctx context.Context) ([]groups.Group, error) {
	var resp groups.GetGroupsResponse
	err := c.do(ctx, http.MethodGet, "/groups", nil, nil, "", &resp)
	return resp.Groups, err
}

// GetGroup returns nil when the server has no single group with id.
func (c *Client) GetGroup(ctx context.Context, id string) (*groups.Group, error) {
	var resp groups.GetGroupResponse
	err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(id), nil, nil, "", &resp)
	return resp.Group, err
}

func (c *Client) CreateGroup(ctx context.Context, p groups.CreateGroupParams) error {
	return c.doJSON(ctx, http.MethodPost, "/groups", groups.CreateGroupRequest{
		Name:        &p.Name,
		Description: &p.Description,
		IconURL:     &p.IconURL,
	})
}

func (c *Client) ListMessages(ctx context.Context, groupID string) ([]messages.Message, error) {
	var resp messages.GetMessagesResponse
	err := c.do(ctx, http.MethodGet, "/groups/"+url.PathEscape(groupID)+"/messages", nil, nil, "", &resp)
	return resp.Messages, err
}

// SendMessage posts a text message. Blank content is refused locally with
// messages.ErrEmptyMessage.
func (c *Client) SendMessage(ctx context.Context, groupID, user, content string) error {
	if strings.TrimSpace(content) == "" {
		return messages.ErrEmptyMessage
	}

	return c.doJSON(ctx, http.MethodPost, "/groups/"+url.PathEscape(groupID)+"/messages", messages.SendMessageRequest{
		Content: &content,
		User:    &user,
	})
}

// SendImage uploads body through the ingress endpoint. An empty contentType
// lets the server sniff the image type.
func (c *Client) SendImage(ctx context.Context, groupID, user, content, contentType string, body io.Reader) error {
	q := url.Values{}
	q.Set("user", user)
	q.Set("group_id", groupID)
	q.Set("content", content)

	var resp response.Response
	return c.do(ctx, http.MethodPost, "/sendImage", q, body, contentType, &resp)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var resp response.Response
	return c.do(ctx, method, path, nil, bytes.NewReader(payload), "application/json", &resp)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var errResp response.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		apiErr.Code = errResp.Error.Code
		apiErr.Message = errResp.Error.Message
	}

	return apiErr
}
