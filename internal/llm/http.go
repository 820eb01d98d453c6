package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// retryable status codes: rate limited or a transient server fault
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// SendJSON posts body as JSON to url with optional headers and returns the raw response body.
// It does not assume any provider. Rate-limit and 5xx responses are retried up to
// retries extra times with a doubling backoff; the last response is returned.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, retries int, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	reqID := uuid.New().String()
	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("llm.http.encode_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		raw, status, err := sendOnce(ctx, client, url, bs, headers, reqID, attempt, logger)
		if err == nil || attempt >= retries || (status != 0 && !retryable(status)) || ctx.Err() != nil {
			return raw, status, err
		}
		logger.Warn("llm.http.retry", "req_id", reqID, "attempt", attempt+1, "status", status, "backoff_ms", backoff.Milliseconds())
		select {
		case <-ctx.Done():
			return raw, status, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func sendOnce(ctx context.Context, client *http.Client, url string, bs []byte, headers map[string]string, reqID string, attempt int, logger *slog.Logger) ([]byte, int, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		logger.Error("llm.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	// Default headers; allow caller overrides.
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request",
		"req_id", reqID,
		"attempt", attempt,
		"url", url,
		"content_length", len(bs),
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	logger.Debug("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
