package translation

import (
	"time"

	"go.uber.org/zap"
)

// Option 服务配置选项函数
type Option func(*serviceOptions)

// serviceOptions 服务内部选项
type serviceOptions struct {
	logger         *zap.Logger
	requestTimeout time.Duration
	onError        func(Unit, error)
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithRequestTimeout 设置单次提供商调用的超时，0 表示不限制
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *serviceOptions) {
		o.requestTimeout = timeout
	}
}

// WithErrorHandler 设置错误回调
func WithErrorHandler(handler func(Unit, error)) Option {
	return func(o *serviceOptions) {
		o.onError = handler
	}
}
