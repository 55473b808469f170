// Package notification sends transactional email through an HTTP email API.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.resend.com/emails"

var ErrNoRecipients = errors.New("email has no recipients")

// Recipients decodes from either a single address or a list of addresses.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = nil
		if strings.TrimSpace(one) != "" {
			*r = Recipients{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("to must be a string or an array of strings: %w", err)
	}
	*r = many
	return nil
}

type Email struct {
	To      Recipients `json:"to"`
	Subject string     `json:"subject"`
	HTML    string     `json:"html"`
}

// Response is the provider's raw answer.
type Response struct {
	Status int
	Body   []byte
}

type Notifier interface {
	Send(ctx context.Context, e Email) (Response, error)
}

// StatusError is returned for non-2xx provider replies.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("email provider responded %d: %s", e.Status, e.Body)
}

// ResendClient posts to a Resend-compatible endpoint.
type ResendClient struct {
	url     string
	apiKey  string
	from    string
	timeout time.Duration
}

var _ Notifier = (*ResendClient)(nil)

func NewResendClient(url, apiKey, from string) *ResendClient {
	if url == "" {
		url = DefaultAPIURL
	}
	return &ResendClient{url: url, apiKey: apiKey, from: from, timeout: 10 * time.Second}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (r *ResendClient) Send(ctx context.Context, e Email) (Response, error) {
	if len(e.To) == 0 {
		return Response{}, ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	timeout := r.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(r.url)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+r.apiKey)
	agent.JSON(resendPayload{From: r.from, To: e.To, Subject: e.Subject, HTML: e.HTML})
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Response{}, fmt.Errorf("send email: %w", errors.Join(errs...))
	}
	resp := Response{Status: status, Body: body}
	if status < 200 || status > 299 {
		return resp, &StatusError{Status: status, Body: body}
	}
	return resp, nil
}

// LogNotifier only logs. Used when no API key is configured.
type LogNotifier struct {
	log *zap.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Send(_ context.Context, e Email) (Response, error) {
	if len(e.To) == 0 {
		return Response{}, ErrNoRecipients
	}
	l.log.Info("email not sent, no provider configured",
		zap.Strings("to", e.To),
		zap.String("subject", e.Subject),
		zap.Int("html_bytes", len(e.HTML)),
	)
	return Response{Status: fiber.StatusOK, Body: []byte(`{"id":"logged"}`)}, nil
}
