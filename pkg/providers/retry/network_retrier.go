package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// 可重试 HTTP 状态（429、5xx）的最大重试次数
	MaxRetries int `json:"max_retries"`

	// 网络错误专用重试次数（快速重试）
	NetworkMaxRetries int `json:"network_max_retries"`

	// 初始延迟时间
	InitialDelay time.Duration `json:"initial_delay"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor"`

	// 网络错误的初始延迟（通常更短）
	NetworkInitialDelay time.Duration `json:"network_initial_delay"`

	// 网络错误的最大延迟
	NetworkMaxDelay time.Duration `json:"network_max_delay"`
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          3,
		NetworkMaxRetries:   5,
		InitialDelay:        1 * time.Second,
		MaxDelay:            30 * time.Second,
		BackoffFactor:       2.0,
		NetworkInitialDelay: 100 * time.Millisecond,
		NetworkMaxDelay:     5 * time.Second,
	}
}

// ErrorType 错误类型枚举
type ErrorType int

const (
	ErrorTypeNone          ErrorType = iota
	ErrorTypeNetwork                 // 网络瞬时错误
	ErrorTypeRetryableHTTP           // 可重试的HTTP错误
	ErrorTypeClientError             // 客户端错误（4xx）
	ErrorTypeServerError             // 服务端错误（5xx）
	ErrorTypePermanent               // 永久性错误
)

// NetworkRetrier 网络重试器
type NetworkRetrier struct {
	config RetryConfig
}

// NewNetworkRetrier 创建网络重试器
func NewNetworkRetrier(config RetryConfig) *NetworkRetrier {
	return &NetworkRetrier{
		config: config,
	}
}

// RequestFunc 每次尝试都重新构造请求，保证请求体可重复读取
type RequestFunc func() (*http.Request, error)

// Do 发送请求并按错误类型重试。
// 最终仍为非 2xx 时返回最后一个响应且 error 为 nil，由调用方解析错误体
func (nr *NetworkRetrier) Do(ctx context.Context, client *http.Client, newRequest RequestFunc) (*http.Response, error) {
	httpRetries, networkRetries := 0, 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		var delay time.Duration
		switch nr.classifyError(err, resp) {
		case ErrorTypeNetwork:
			if networkRetries >= nr.config.NetworkMaxRetries {
				return nil, err
			}
			delay = nr.calculateDelay(true, networkRetries)
			networkRetries++

		case ErrorTypeServerError, ErrorTypeRetryableHTTP:
			if httpRetries >= nr.config.MaxRetries {
				return resp, nil
			}
			delay = nr.calculateDelay(false, httpRetries)
			httpRetries++
			resp.Body.Close()

		default:
			if err != nil {
				return nil, err
			}
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// classifyError 分类错误
func (nr *NetworkRetrier) classifyError(err error, resp *http.Response) ErrorType {
	// 网络错误
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrorTypePermanent
		}
		if IsNetworkError(err) {
			return ErrorTypeNetwork
		}
		return ErrorTypePermanent
	}

	// HTTP状态码错误
	if resp != nil {
		switch {
		case resp.StatusCode >= 500:
			return ErrorTypeServerError
		case resp.StatusCode == http.StatusTooManyRequests:
			return ErrorTypeRetryableHTTP
		case resp.StatusCode >= 400:
			return ErrorTypeClientError
		}
	}

	return ErrorTypeNone
}

// IsNetworkError 判断是否为网络瞬时错误
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// 检查URL错误
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		if IsNetworkError(urlErr.Err) {
			return true
		}
	}

	// 检查网络相关错误
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// 检查连接错误
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// 检查错误消息模式
	errStr := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timed out",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"broken pipe",
		"i/o timeout",
		"eof",
	}

	for _, pattern := range networkPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// calculateDelay 计算延迟时间
func (nr *NetworkRetrier) calculateDelay(isNetworkError bool, retryCount int) time.Duration {
	var delay time.Duration
	var maxDelay time.Duration

	if isNetworkError {
		// 网络错误使用较短的延迟
		delay = nr.config.NetworkInitialDelay
		maxDelay = nr.config.NetworkMaxDelay
	} else {
		delay = nr.config.InitialDelay
		maxDelay = nr.config.MaxDelay
	}

	// 指数退避
	if retryCount > 0 {
		backoffFactor := nr.config.BackoffFactor
		if backoffFactor <= 1.0 {
			backoffFactor = 2.0
		}

		multiplier := math.Pow(backoffFactor, float64(retryCount))
		delay = time.Duration(float64(delay) * multiplier)
	}

	// 限制最大延迟
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	return delay
}
