package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airenas/dubly/internal/pkg/persistence"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
)

// ProjectLoader loads a project record
type ProjectLoader interface {
	LoadProject(ctx context.Context, id string) (*persistence.Project, error)
}

// StoreFetcher reads snapshots from the project store
type StoreFetcher struct {
	store ProjectLoader
}

// NewStoreFetcher creates fetcher
func NewStoreFetcher(store ProjectLoader) (*StoreFetcher, error) {
	if store == nil {
		return nil, fmt.Errorf("no store")
	}
	return &StoreFetcher{store: store}, nil
}

// Snapshot implements Fetcher
func (f *StoreFetcher) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	p, err := f.store.LoadProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromProject(p), nil
}

// HTTPFetcher reads snapshots from the status service
type HTTPFetcher struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewHTTPFetcher creates fetcher, urlStr is the status service address
func NewHTTPFetcher(urlStr string) (*HTTPFetcher, error) {
	if !strings.HasPrefix(urlStr, "http") {
		return nil, fmt.Errorf("wrong status URL '%s'", urlStr)
	}
	return &HTTPFetcher{url: strings.TrimSuffix(urlStr, "/"), timeout: 10 * time.Second,
		httpclient: &http.Client{}, backoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)
		}}, nil
}

// Snapshot implements Fetcher, a missing project is reported as persistence.ErrNotFound
func (f *HTTPFetcher) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	urlStr, err := url.JoinPath(f.url, "status", id)
	if err != nil {
		return nil, fmt.Errorf("can't prepare URL: %w", err)
	}
	notFound := false
	res, err := goapp.InvokeWithBackoff(ctx, func() (*Snapshot, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, f.timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, false, err
		}
		resp, err := f.httpclient.Do(req)
		if err != nil {
			return nil, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if resp.StatusCode == http.StatusNotFound {
			notFound = true
			return nil, false, persistence.ErrNotFound
		}
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			return nil, goapp.IsRetryableCode(resp.StatusCode), fmt.Errorf("can't invoke '%s': %w", urlStr, err)
		}
		var res Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, false, fmt.Errorf("can't decode response: %w", err)
		}
		return &res, false, nil
	}, f.backoff())
	if notFound {
		return nil, persistence.ErrNotFound
	}
	return res, err
}
