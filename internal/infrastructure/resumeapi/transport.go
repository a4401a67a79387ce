package resumeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/resilience"
)

const maxErrorBody = 4096

type request struct {
	operation   string
	method      string
	path        string
	contentType string
	body        []byte
	accept      string
}

func (r request) idempotent() bool {
	return r.method == http.MethodGet
}

// send runs one logical call through the executor. The body is replayed from
// memory on each attempt.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	call := func(ctx context.Context) ([]byte, error) {
		return c.roundTrip(ctx, req)
	}
	raw, err := resilience.Do(ctx, c.executor, "resume."+req.operation, call, classifyRemoteError(req.idempotent()))
	return raw, wrapCircuitOpen(req.operation, err)
}

func (c *Client) roundTrip(ctx context.Context, req request) ([]byte, error) {
	token, err := c.token(ctx, req.operation)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", req.operation, err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.NetworkError{Operation: req.operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError(req.operation, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Operation: req.operation, Err: fmt.Errorf("read response: %w", err)}
	}
	return raw, nil
}

func (c *Client) token(ctx context.Context, operation string) (string, error) {
	if c.session == nil {
		return "", domain.WrapError(domain.ErrUnauthorized, operation, errors.New("no session provider"))
	}
	token, err := c.session.Token(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnauthorized) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrUnauthorized, operation, err)
	}
	if strings.TrimSpace(token) == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, operation, errors.New("empty session token"))
	}
	return token, nil
}

func (c *Client) postJSON(ctx context.Context, operation, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	raw, err := c.send(ctx, request{
		operation:   operation,
		method:      http.MethodPost,
		path:        path,
		contentType: "application/json",
		body:        body,
	})
	if err != nil {
		return err
	}
	return decode(operation, raw, out)
}

func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	raw, err := c.send(ctx, request{operation: operation, method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(operation, raw, out)
}

func decode(operation string, raw []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	svcErr := &domain.ServiceError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Detail:     parseDetail(body),
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return domain.WrapError(domain.ErrUnauthorized, operation, svcErr)
	}
	return svcErr
}

// parseDetail reads the service error body. The detail is either a single
// message or a list of field errors whose messages are joined with a comma.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var message string
	if err := json.Unmarshal(payload.Detail, &message); err == nil {
		return strings.TrimSpace(message)
	}

	var fields []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if msg := strings.TrimSpace(f.Msg); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, ", ")
	}
	return strings.TrimSpace(string(payload.Detail))
}
