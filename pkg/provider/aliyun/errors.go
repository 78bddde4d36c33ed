package aliyun

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/modelgate/modelgate/pkg/api"
)

// mapHTTPError converts a non-2xx DashScope response into an UpstreamError,
// extracting the service's code and message when the body carries them.
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
// to parse the DashScope error envelope. Falls back to the raw body text.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp generationErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Message != "" {
		if errResp.Code != "" {
			return fmt.Sprintf("%s: %s", errResp.Code, errResp.Message)
		}
		return errResp.Message
	}

	return string(data)
}
