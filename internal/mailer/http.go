// AngelaMos | 2026
// http.go

package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// HTTPSender posts {to, subject, body} to {baseURL}/send. Any non-2xx
// status is a failed delivery.
type HTTPSender struct {
	endpoint string
	subject  string
	client   *http.Client
}

func NewHTTPSender(baseURL, subject string, client *http.Client) *HTTPSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSender{
		endpoint: strings.TrimRight(baseURL, "/") + "/send",
		subject:  subject,
		client:   client,
	}
}

func (s *HTTPSender) Send(ctx context.Context, to, code string) error {
	payload, err := json.Marshal(sendRequest{
		To:      to,
		Subject: s.subject,
		Body:    Body(code),
	})
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.endpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	//nolint:errcheck // drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send mail: unexpected status %d", resp.StatusCode)
	}

	return nil
}
