package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// maxResponseBytes caps how much of a provider body is read into memory
const maxResponseBytes = 10 << 20

// PostJSON marshals payload, POSTs it to endpoint and returns the raw body.
// Network failures, timeouts and non-2xx statuses are returned as *ProviderError.
func PostJSON(ctx context.Context, client *http.Client, provider Kind, endpoint string, headers map[string]string, payload interface{}) (*RawResponse, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(provider, CodeMarshalError, "Failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewProviderError(provider, CodeRequestError, "Failed to create request", 0, false, redactURLError(err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, provider, redactURLError(err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewProviderError(provider, CodeReadError, "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, errorFromStatus(provider, httpResp.StatusCode, respBody)
	}

	return &RawResponse{
		Provider:   provider,
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
	}, nil
}

func classifyTransportError(ctx context.Context, provider Kind, err error) *ProviderError {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return NewProviderError(provider, CodeCancelled, "Request cancelled", 0, false, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewProviderError(provider, CodeTimeout, "Request timed out", 0, true, err)
	}

	return NewProviderError(provider, CodeHTTPError, "HTTP request failed", 0, true, err)
}

// errorFromStatus builds a ProviderError from a non-2xx response. The error
// objects of all four providers live under "error"; the identifying field
// differs (status for google, type for openai/claude/deepseek).
func errorFromStatus(provider Kind, statusCode int, body []byte) *ProviderError {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	code := fmt.Sprintf("HTTP_%d", statusCode)
	message := fmt.Sprintf("Request failed with status code %d", statusCode)

	if gjson.ValidBytes(body) {
		errObj := gjson.GetBytes(body, "error")
		for _, path := range []string{"status", "type", "code"} {
			if v := errObj.Get(path); v.Exists() && v.String() != "" {
				code = v.String()
				break
			}
		}
		if v := errObj.Get("message"); v.Exists() && v.String() != "" {
			message = v.String()
		}
	}

	return NewProviderError(provider, code, message, statusCode, retryable, nil)
}

// redactURLError strips the query string from URLs embedded in net/http
// errors. Google carries the API key as a query parameter.
func redactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := *urlErr
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		redacted.URL = u.String()
	} else {
		redacted.URL = "<redacted>"
	}
	return &redacted
}
