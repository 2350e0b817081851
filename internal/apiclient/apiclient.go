// Package apiclient is a thin HTTP client for a running triage server, used
// by the batch and stream commands.
package apiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/daviddao/mailtriage/internal/schema"
	"github.com/daviddao/mailtriage/internal/server"
)

// apiError mirrors the server's {"detail": "..."} error body.
type apiError struct {
	Detail string `json:"detail"`
}

// StatusError is returned when the server answers with a non-2xx status.
// Callers that care about the code (batch error records) unwrap it with
// errors.As; everyone else just sees a formatted message.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("triage failed (%d): %s", e.Code, e.Detail)
}

// Client talks to a running triage server.
type Client struct {
	http *resty.Client
}

// New builds a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient}
}

// Triage posts one raw Gmail message and returns the decision envelope.
func (c *Client) Triage(ctx context.Context, msg *schema.GmailMessage) (*schema.TriageResponse, error) {
	var (
		out     schema.TriageResponse
		failure apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&out).
		SetError(&failure).
		Post(server.PathTriage)
	if err != nil {
		return nil, fmt.Errorf("triage request: %w", err)
	}
	if resp.IsError() {
		detail := failure.Detail
		if detail == "" {
			detail = resp.Status()
		}
		return nil, &StatusError{Code: resp.StatusCode(), Detail: detail}
	}
	return &out, nil
}
