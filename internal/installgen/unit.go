package installgen

import (
	"bytes"
	"strings"
	"text/template"
)

// unitRestartSec 固定的自动重启间隔（秒）。
const unitRestartSec = 5

// apiWSGIApp 为 gunicorn 加载的 WSGI 入口。
const apiWSGIApp = "wsgi:app"

// unitTemplate 是 systemd unit 正文。身份与目录字段由外层脚本的 shell 变量在安装时展开，
// 启动命令的参数在编译期写入。
var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Description}}
After=network.target

[Service]
Type=simple
User={{.User}}
Group={{.Group}}
WorkingDirectory={{.WorkingDirectory}}
{{- range .Environment}}
Environment={{.}}
{{- end}}
ExecStart={{.ExecStart}}
Restart=always
RestartSec={{.RestartSec}}

[Install]
WantedBy=multi-user.target
`))

type unitData struct {
	Description      string
	User             string
	Group            string
	WorkingDirectory string
	Environment      []string
	ExecStart        string
	RestartSec       int
}

// ShellVar 为外层脚本在写 unit 之前赋值的变量。
type ShellVar struct {
	Name  string
	Value string
}

// UnitVariables 返回 unit 正文引用的 shell 变量及其编译期取值，顺序固定。
func UnitVariables(cfg Config) []ShellVar {
	return []ShellVar{
		{"SERVICE_NAME", cfg.ServiceName},
		{"DAEMON_USER", cfg.DaemonUser},
		{"DAEMON_GROUP", cfg.DaemonGroup},
		{"INSTALLATION_PATH", cfg.InstallationPath},
	}
}

// RenderUnit 渲染嵌入脚本 heredoc 的 unit 正文：${SERVICE_NAME} 等占位符原样保留，
// 编译期写入的值已按 heredoc 规则转义。
func RenderUnit(cfg Config) (string, error) {
	ref := func(name string) string { return "${" + name + "}" }
	return renderUnit(cfg, ref, heredocEscape)
}

// PreviewUnit 渲染安装完成后磁盘上的 unit 内容（占位符已替换为实际值）。
func PreviewUnit(cfg Config) (string, error) {
	values := make(map[string]string)
	for _, v := range UnitVariables(cfg) {
		values[v.Name] = v.Value
	}
	ref := func(name string) string { return values[name] }
	return renderUnit(cfg, ref, func(s string) string { return s })
}

func renderUnit(cfg Config, ref func(string) string, esc func(string) string) (string, error) {
	data := unitData{
		Description:      cfg.Profile.Title() + " (" + ref("SERVICE_NAME") + ")",
		User:             ref("DAEMON_USER"),
		Group:            ref("DAEMON_GROUP"),
		WorkingDirectory: ref("INSTALLATION_PATH"),
		RestartSec:       unitRestartSec,
	}
	switch cfg.Profile {
	case ProfileAPI:
		data.ExecStart = ref("INSTALLATION_PATH") + "/venv/bin/gunicorn" +
			" --workers " + esc(cfg.Workers) +
			" --timeout " + esc(cfg.Timeout) +
			" --bind " + esc(cfg.Bind) +
			" " + apiWSGIApp
	case ProfileUI:
		data.Environment = []string{"NODE_ENV=production"}
		data.ExecStart = "/usr/bin/env npm run start --" +
			" --hostname " + esc(cfg.Hostname) +
			" --port " + esc(cfg.Port)
	}

	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, data); err != nil {
		return "", &RenderError{Stage: "unit", Err: err}
	}
	return buf.String(), nil
}

// heredocEscape 转义非引号 heredoc 中会被 shell 解释的 \ $ `。
func heredocEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "$", `\$`)
	return strings.ReplaceAll(s, "`", "\\`")
}
