package transflow

import (
	"errors"
	"maps"
	"sync"

	"github.com/nerdneilsfield/go-transflow/pkg/translation"
)

// ErrorTally 按错误代码累计提供商调用失败次数，作为 translation.WithErrorHandler 的回调
type ErrorTally struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewErrorTally 创建计数器
func NewErrorTally() *ErrorTally {
	return &ErrorTally{counts: make(map[string]int)}
}

// Record 记录一次失败
func (t *ErrorTally) Record(_ translation.Unit, err error) {
	code := translation.ErrCodeUnknown
	var te *translation.TranslationError
	if errors.As(err, &te) {
		code = te.Code
	}

	t.mu.Lock()
	t.counts[code]++
	t.mu.Unlock()
}

// Counts 返回各错误代码的次数快照
func (t *ErrorTally) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.counts)
}

// Total 失败总数
func (t *ErrorTally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}
