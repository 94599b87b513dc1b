package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/juscheck/internal/model"
)

// ResendSender delivers messages through the Resend HTTP API.
type ResendSender struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewResendSender creates a Resend client.
func NewResendSender(cfg model.ResendConfig) *ResendSender {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	return &ResendSender{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// resendEmail is the body of POST /emails.
type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// resendError is the error payload returned on non-2xx responses.
type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts env to the Resend API.
func (s *ResendSender) Send(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(resendEmail{
		From:    env.From,
		To:      env.To,
		Subject: env.Subject,
		HTML:    env.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request POST /emails: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr resendError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("resend API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %d from resend: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
