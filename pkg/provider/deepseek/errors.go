package deepseek

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/modelgate/modelgate/pkg/api"
)

// mapHTTPError converts a non-2xx DeepSeek response into an UpstreamError,
// extracting the Chat Completions error message when the body carries one.
func mapHTTPError(resp *http.Response) *api.UpstreamError {
	return &api.UpstreamError{
		Provider:   Name,
		StatusCode: resp.StatusCode,
		Message:    extractErrorMessage(resp.Body),
	}
}

// mapNetworkError wraps a transport-level failure (connection refused,
// timeout, DNS resolution) into an UpstreamError with no status code.
func mapNetworkError(err error) *api.UpstreamError {
	return &api.UpstreamError{Provider: Name, Err: err}
}

// extractErrorMessage reads a bounded amount of the response body and tries
// to parse the Chat Completions error envelope. Falls back to the raw body
// text.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp chatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return string(data)
}
