package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-transflow/pkg/providers"
)

// 预定义错误
var (
	// ErrNoProvider 翻译提供商未设置
	ErrNoProvider = errors.New("translation provider not configured")

	// ErrEmptyText 空文本错误
	ErrEmptyText = errors.New("empty text provided")

	// ErrBatchLengthMismatch 批量翻译返回数量与输入不一致
	ErrBatchLengthMismatch = errors.New("batch translation returned a different number of texts")

	// ErrTimeout 超时错误
	ErrTimeout = errors.New("translation timeout")

	// ErrRateLimited 速率限制错误
	ErrRateLimited = errors.New("rate limited")
)

// TranslationError 翻译错误
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *TranslationError) IsRetryable() bool {
	return e.Retry
}

// NewTranslationError 创建翻译错误
func NewTranslationError(code, message string, cause error) *TranslationError {
	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Retry:   false,
	}
}

// 错误代码常量
const (
	ErrCodeConfig     = "CONFIG_ERROR"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeProvider   = "PROVIDER_ERROR"
	ErrCodeTimeout    = "TIMEOUT_ERROR"
	ErrCodeFetch      = "FETCH_ERROR"
	ErrCodeParse      = "PARSE_ERROR"
	ErrCodeRender     = "RENDER_ERROR"
	ErrCodeUnknown    = "UNKNOWN_ERROR"
)

// WrapError 包装错误
func WrapError(err error, code, message string) *TranslationError {
	if err == nil {
		return nil
	}

	// 如果已经是TranslationError，保留原有代码
	var te *TranslationError
	if errors.As(err, &te) {
		return &TranslationError{
			Code:    te.Code,
			Message: message + ": " + te.Message,
			Cause:   te.Cause,
			Retry:   te.Retry,
		}
	}

	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   err,
		Retry:   isRetryableError(err),
	}
}

// IsRetryable 判断任意错误是否可重试
func IsRetryable(err error) bool {
	var te *TranslationError
	if errors.As(err, &te) {
		return te.Retry
	}
	return isRetryableError(err)
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// 提供商错误自带分类
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.IsRetryable()
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"temporary failure",
		"rate limit",
		"connection reset",
		"broken pipe",
		"no such host",
		"network is unreachable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
