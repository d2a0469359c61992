package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/glowdesk/platform/pkg/logging"
)

// SMSSender delivers a text message.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// HTTPSMSSender posts messages to an SMS gateway.
type HTTPSMSSender struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

// NewHTTPSMSSender configures a gateway-backed sender.
func NewHTTPSMSSender(baseURL, apiKey, from string) *HTTPSMSSender {
	return &HTTPSMSSender{
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// Send posts one message. Non-2xx gateway responses are errors.
func (s *HTTPSMSSender) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(smsPayload{To: to, From: s.from, Body: body})
	if err != nil {
		return fmt.Errorf("notify: marshal sms: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send sms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: sms gateway returned %d", resp.StatusCode)
	}
	return nil
}

// StubSMSSender logs messages instead of sending them. Used in development
// and wherever no gateway is configured.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a log-only sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

// Send logs the message.
func (s *StubSMSSender) Send(ctx context.Context, to, body string) error {
	s.logger.Info("sms (stub)", "to", to, "body", body)
	return nil
}
