package installgen

import "fmt"

// RenderError 表示模板渲染失败（内部错误，不是用户输入错误）。
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
