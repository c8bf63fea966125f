package fetcher

import "fmt"

// FetchError 浏览器无法启动或页面无法打开时返回
type FetchError struct {
	URL string
	Op  string // launch、new_page、content
	Err error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Op, e.Err)
}

// Unwrap 返回原因错误
func (e *FetchError) Unwrap() error {
	return e.Err
}
