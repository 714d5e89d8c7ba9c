// Package main: validate command. 校验页面定义与解析器参数一致，并试渲染两个 profile 的默认脚本。
package main

import (
	"fmt"

	"github.com/tunescout/tunescout-installer/internal/installgen"
	"github.com/tunescout/tunescout-installer/internal/webui"
)

func cmdValidate(c *cli) error {
	def, err := webui.LoadPage(c.cfg.PagePath)
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	for _, p := range installgen.Profiles() {
		if _, _, err := installgen.Build(p, nil); err != nil {
			return fmt.Errorf("config validation failed: %s: %w", p, err)
		}
	}
	fmt.Fprintln(c.stdout, "config OK")
	return nil
}
