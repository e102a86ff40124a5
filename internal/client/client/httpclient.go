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

	"github.com/dmitrijs2005/accountlink/internal/client/models"
	"github.com/dmitrijs2005/accountlink/internal/common"
	"github.com/dmitrijs2005/accountlink/internal/logging"
	"github.com/google/uuid"
)

const (
	RequestIDHeaderName = "X-Request-ID"

	maxResponseBytes = 1 << 20
)

type HTTPClient struct {
	baseURL  string
	deviceID string
	http     *http.Client
	logger   logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for the API rooted at baseURL. timeout bounds
// each request; zero means no client-side limit beyond the caller's context.
func NewHTTPClient(baseURL, deviceID string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		http:     &http.Client{Timeout: timeout},
		logger:   logger.With("module", "api_client"),
	}
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (c *HTTPClient) Login(ctx context.Context, phone, password string) (*models.LoginResult, error) {
	body, err := json.Marshal(loginRequest{Phone: phone, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/login", "", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, c.apiError(opLogin, resp)
	}

	var res models.LoginResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %w", common.ErrNetwork, err)
	}
	if res.AccountID == "" || res.Token == "" {
		return nil, fmt.Errorf("%w: login response without account id or token", common.ErrNetwork)
	}
	return &res, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, accountID, token string) (*models.Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/users/"+url.PathEscape(accountID), token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, c.apiError(opGetUser, resp)
	}

	var p models.Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %w", common.ErrTokenInvalid, err)
	}
	if p.AccountID == "" {
		p.AccountID = accountID
	}
	if p.AccountID != accountID {
		return nil, fmt.Errorf("%w: profile is for another account", common.ErrTokenInvalid)
	}
	return &p, nil
}

func (c *HTTPClient) do(ctx context.Context, method, target, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeaderName, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.deviceID != "" {
		req.Header.Set(common.DeviceIDHeaderName, c.deviceID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn(ctx, "request failed", "method", method, "path", req.URL.Path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	c.logger.Debug(ctx, "request done", "method", method, "path", req.URL.Path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))
	return resp, nil
}

func (c *HTTPClient) apiError(op operation, resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode, err: mapStatus(op, resp.StatusCode)}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		e.Kind = er.Kind
		e.Message = er.Message
	}
	return e
}
