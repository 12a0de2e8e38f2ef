package inform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jordan-wright/email"
	"github.com/spf13/viper"
)

// HTTPEmailSender posts emails to an http endpoint instead of smtp, used in test environments
type HTTPEmailSender struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

type httpEmail struct {
	To      []string `json:"to"`
	From    string   `json:"from,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

// NewHTTPEmailSender initiates email sender from smtp.fakeUrl
func NewHTTPEmailSender(c *viper.Viper) (*HTTPEmailSender, error) {
	res := &HTTPEmailSender{url: c.GetString("smtp.fakeUrl"), timeout: c.GetDuration("smtp.fakeTimeout"),
		client: &http.Client{}}
	if res.url == "" {
		return nil, fmt.Errorf("no URL")
	}
	if res.timeout <= 0 {
		res.timeout = 5 * time.Second
	}
	goapp.Log.Info().Str("URL", res.url).Msg("http email sender")
	return res, nil
}

// Send implements Sender
func (s *HTTPEmailSender) Send(e *email.Email) error {
	body, err := json.Marshal(httpEmail{To: e.To, From: e.From, Subject: e.Subject, Text: string(e.Text),
		HTML: string(e.HTML)})
	if err != nil {
		return fmt.Errorf("can't marshal: %w", err)
	}
	ctx, cancelF := context.WithTimeout(context.Background(), s.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("can't call: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
		return fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
	}
	return nil
}
