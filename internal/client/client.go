package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jon4hz/codevault/internal/api/models"
)

var (
	// ErrUnauthenticated is returned when the server rejects the presented token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned when the server rejects a login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the CodeVault JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) doRequest(ctx context.Context, method, endpoint, token string, queryParams url.Values, body any) (*http.Response, error) {
	reqURL := c.baseURL + endpoint
	if len(queryParams) > 0 {
		reqURL += "?" + queryParams.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		return nil, decodeError(resp)
	}

	return resp, nil
}

func decodeError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var msg models.MessageResponse
	_ = json.Unmarshal(bodyBytes, &msg)

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthenticated, apiErr)
	}
	return apiErr
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, queryParams url.Values, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, token, queryParams, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token. device names the token on the server.
func (c *Client) Login(ctx context.Context, username, accessKey, device string) (*models.LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/login", "", nil, models.LoginRequest{
		Username:  username,
		AccessKey: accessKey,
		Device:    device,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusUnprocessableEntity) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var login models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, fmt.Errorf("error decoding login response: %w", err)
	}
	if login.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &login, nil
}

// Whoami returns the owner of token.
func (c *Client) Whoami(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/api/user", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/logout", token, nil, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// ProjectFilter narrows the project listing. Empty fields match everything.
type ProjectFilter struct {
	Language   string
	Difficulty string
	Tag        string
}

func (f ProjectFilter) values() url.Values {
	v := url.Values{}
	if f.Language != "" {
		v.Set("language", f.Language)
	}
	if f.Difficulty != "" {
		v.Set("difficulty", f.Difficulty)
	}
	if f.Tag != "" {
		v.Set("tag", f.Tag)
	}
	return v
}

// Projects lists the catalog.
func (c *Client) Projects(ctx context.Context, token string, filter ProjectFilter) (*models.ProjectList, error) {
	var list models.ProjectList
	if err := c.getJSON(ctx, "/api/projects", token, filter.values(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Project returns a project with its download command.
func (c *Client) Project(ctx context.Context, token, id string) (*models.ProjectDetail, error) {
	var detail models.ProjectDetail
	if err := c.getJSON(ctx, "/api/projects/"+url.PathEscape(id), token, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Explain returns the explanation of a project's download command.
func (c *Client) Explain(ctx context.Context, token, id string) (*models.Explanation, error) {
	var explanation models.Explanation
	if err := c.getJSON(ctx, "/api/projects/"+url.PathEscape(id)+"/explain", token, nil, &explanation); err != nil {
		return nil, err
	}
	return &explanation, nil
}

// StudyGuide returns the study guide of a project.
func (c *Client) StudyGuide(ctx context.Context, token, id string) (*models.StudyGuide, error) {
	var guide models.StudyGuide
	if err := c.getJSON(ctx, "/api/projects/"+url.PathEscape(id)+"/guide", token, nil, &guide); err != nil {
		return nil, err
	}
	return &guide, nil
}
