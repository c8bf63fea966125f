package cli

import (
	"io"

	"github.com/pterm/pterm"
)

// groupProgress 分组翻译进度条，首次回调时才知道总组数
type groupProgress struct {
	w     io.Writer
	quiet bool
	bar   *pterm.ProgressbarPrinter
	done  int
}

func newGroupProgress(w io.Writer, quiet bool) *groupProgress {
	return &groupProgress{w: w, quiet: quiet}
}

// Update 实现 translator.ProgressCallback，调用方保证串行
func (p *groupProgress) Update(done, total int) {
	if p.quiet || total <= 0 {
		return
	}
	if p.bar == nil {
		bar, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("翻译分组").
			WithWriter(p.w).
			WithRemoveWhenDone(true).
			Start()
		if err != nil {
			p.quiet = true
			return
		}
		p.bar = bar
	}
	if done > p.done {
		p.bar.Add(done - p.done)
		p.done = done
	}
}

// Stop 结束进度条
func (p *groupProgress) Stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
