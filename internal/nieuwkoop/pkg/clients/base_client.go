package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bloommarbella_api/pkg/logger"
	"bloommarbella_api/pkg/middleware"
)

const DefaultTimeout = 30 * time.Second

type BaseClient struct {
	ApiURL string
	log    logger.Logger
	client *http.Client
	auth   AuthEngine
	do     middleware.RequestFunc
}

func NewBaseClient(apiURL string, timeout time.Duration, auth AuthEngine, log logger.Logger, mws ...middleware.Middleware) *BaseClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &BaseClient{
		ApiURL: strings.TrimRight(apiURL, "/"),
		log:    log,
		client: &http.Client{Timeout: timeout},
		auth:   auth,
	}
	c.do = middleware.Chain(c.doRequest, mws...)
	return c
}

func (c *BaseClient) get(ctx context.Context, endpoint string, query url.Values, response interface{}) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, endpoint, nil, response)
}

func (c *BaseClient) doRequest(ctx context.Context, method, endpoint string, requestBody interface{}, response interface{}) error {
	var body io.Reader
	if requestBody != nil {
		bodyBytes, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = strings.NewReader(string(bodyBytes))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ApiURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		c.auth.SetAuth(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
			var urlErr *url.Error
			if errors.As(err, &urlErr) && urlErr.Timeout() {
				return fmt.Errorf("request timed out after %v: %w", c.client.Timeout, err)
			}
			return fmt.Errorf("failed to execute request: %w", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("non-OK status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
