package providers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody 错误响应体最多读取的字节数
const maxErrorBody = 4096

// StatusError 将非 2xx 响应转换为提供商错误，并关闭响应体
func StatusError(provider string, resp *http.Response) *Error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	code := "bad_request"
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		code = "rate_limit"
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		code = "auth_failed"
	case resp.StatusCode == 456:
		code = "quota_exceeded"
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusGatewayTimeout:
		code = "timeout"
	case resp.StatusCode >= 500:
		code = "server_error"
	}

	msg := fmt.Sprintf("%s: API error: %s", provider, resp.Status)
	if text := strings.TrimSpace(string(body)); text != "" {
		msg += ": " + text
	}
	return NewErrorWithDetails(code, msg, map[string]interface{}{
		"status": resp.StatusCode,
	})
}
