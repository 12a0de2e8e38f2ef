package engine

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

	"github.com/airenas/dubly/internal/pkg/engine/api"
	"github.com/airenas/dubly/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
)

// Client communicates with the processing engine
type Client struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates an engine client
func NewClient(urlStr string) (*Client, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("no engine URL")
	}
	if !strings.HasPrefix(urlStr, "http") {
		return nil, fmt.Errorf("no http in engine URL '%s'", urlStr)
	}
	return &Client{url: strings.TrimSuffix(urlStr, "/"), timeout: time.Second * 30,
		httpclient: engineHTTPClient(), backoff: newSimpleBackoff}, nil
}

// Analyze sends the analyze command, returns the engine task ID
func (c *Client) Analyze(ctx context.Context, req *api.AnalyzeRequest) (string, error) {
	return c.start(ctx, "analyze", req)
}

// Process sends the process command, returns the engine task ID
func (c *Client) Process(ctx context.Context, req *api.ProcessRequest) (string, error) {
	return c.start(ctx, "process", req)
}

func (c *Client) start(ctx context.Context, cmd string, data interface{}) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("can't marshal: %w", err)
	}
	urlStr, err := url.JoinPath(c.url, cmd)
	if err != nil {
		return "", fmt.Errorf("can't prepare URL: %w", err)
	}
	goapp.Log.Info().Str("url", urlStr).Msg("call")
	return goapp.InvokeWithBackoff(ctx, func() (string, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, urlStr, bytes.NewReader(b))
		if err != nil {
			return "", false, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return "", goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := validateResp(req, resp); err != nil {
			return "", goapp.IsRetryableCode(resp.StatusCode), err
		}
		var respData api.TaskResponse
		if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
			return "", true, fmt.Errorf("can't decode response: %w", err)
		}
		if respData.TaskID == "" {
			return "", false, fmt.Errorf("no task ID in response")
		}
		return respData.TaskID, false, nil
	}, c.backoff())
}

// Clean removes engine data of the project
func (c *Client) Clean(ctx context.Context, projectID string) error {
	urlStr, err := url.JoinPath(c.url, "task", projectID)
	if err != nil {
		return fmt.Errorf("can't prepare URL: %w", err)
	}
	goapp.Log.Info().Str("url", urlStr).Msg("delete")
	_, err = goapp.InvokeWithBackoff(ctx,
		func() (interface{}, bool, error) {
			ctx, cancelF := context.WithTimeout(ctx, c.timeout)
			defer cancelF()
			req, err := http.NewRequestWithContext(ctx, http.MethodDelete, urlStr, nil)
			if err != nil {
				return nil, false, err
			}
			resp, err := c.httpclient.Do(req)
			if err != nil {
				return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
			}
			defer func() {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
				_ = resp.Body.Close()
			}()
			if resp.StatusCode == http.StatusNotFound {
				return nil, false, nil
			}
			if err := validateResp(req, resp); err != nil {
				return nil, goapp.IsRetryableCode(resp.StatusCode), err
			}
			return nil, false, nil
		}, c.backoff())
	return err
}

// validateResp marks client errors as non retryable for the job queue
func validateResp(req *http.Request, resp *http.Response) error {
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && !goapp.IsRetryableCode(resp.StatusCode) {
			return utils.NewErrNonRetryable(err)
		}
		return err
	}
	return nil
}

func engineHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
