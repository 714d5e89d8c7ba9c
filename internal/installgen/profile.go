// Package installgen 把运维提交的部署参数解析为完整配置，并编译成可重复执行的 bash 安装脚本（内嵌 systemd unit）。
package installgen

import (
	"fmt"
	"strings"
)

// Profile 安装目标：后端 API 守护进程或前端 Node 应用。
type Profile string

const (
	ProfileAPI Profile = "api"
	ProfileUI  Profile = "ui"
)

// 参数名（query string 的 key），页面表单字段须与之一一对应。
const (
	KeyServiceName      = "service_name"
	KeyDaemonUser       = "daemon_user"
	KeyDaemonGroup      = "daemon_group"
	KeyInstallationPath = "installation_path"
	KeySystemdPath      = "systemd_path"
	KeyWorkers          = "workers"
	KeyTimeout          = "timeout"
	KeyBind             = "bind"
	KeyAPIBaseURL       = "api_base_url"
)

// 发布包地址固定，不接受运维参数覆盖。
const (
	apiReleaseURL = "https://github.com/tunescout/tunescout_api/releases/latest/download/tunescout_api.tar.gz"
	uiReleaseURL  = "https://github.com/tunescout/tunescout_ui/releases/latest/download/tunescout_ui.tar.gz"
)

// 前端 bind 拆分后 host/port 各自的回退值。
const (
	defaultUIHost = "127.0.0.1"
	defaultUIPort = "60080"
)

var apiDefaults = map[string]string{
	KeyServiceName:      "tunescout_api",
	KeyDaemonUser:       "www-data",
	KeyDaemonGroup:      "www-data",
	KeyInstallationPath: "/var/www/tunescout_api",
	KeyWorkers:          "10",
	KeyTimeout:          "600",
	KeyBind:             "127.0.0.1:50080",
	KeySystemdPath:      "/etc/systemd/system",
}

var uiDefaults = map[string]string{
	KeyServiceName:      "tunescout_ui",
	KeyDaemonUser:       "www-data",
	KeyDaemonGroup:      "www-data",
	KeyInstallationPath: "/var/www/tunescout_ui",
	KeyAPIBaseURL:       "http://127.0.0.1:50080",
	KeyBind:             defaultUIHost + ":" + defaultUIPort,
	KeySystemdPath:      "/etc/systemd/system",
}

// apiKeys / uiKeys 固定顺序，供表单校验与 CLI 帮助输出使用。
var (
	apiKeys = []string{KeyServiceName, KeyDaemonUser, KeyDaemonGroup, KeyInstallationPath, KeyWorkers, KeyTimeout, KeyBind, KeySystemdPath}
	uiKeys  = []string{KeyServiceName, KeyDaemonUser, KeyDaemonGroup, KeyInstallationPath, KeyAPIBaseURL, KeyBind, KeySystemdPath}
)

// Profiles 返回全部安装目标，顺序稳定。
func Profiles() []Profile {
	return []Profile{ProfileAPI, ProfileUI}
}

// ParseProfile 接受 "api"/"ui" 以及路由形式 "install-api"/"install-ui"。
func ParseProfile(s string) (Profile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(strings.TrimPrefix(s, "/"), "install-")
	switch Profile(s) {
	case ProfileAPI, ProfileUI:
		return Profile(s), nil
	}
	return "", fmt.Errorf("unknown profile %q (use api or ui)", s)
}

// Route 返回该 profile 对应的 HTTP 路径。
func (p Profile) Route() string {
	return "/install-" + string(p)
}

// Keys 返回该 profile 识别的参数名。
func (p Profile) Keys() []string {
	switch p {
	case ProfileAPI:
		return append([]string(nil), apiKeys...)
	case ProfileUI:
		return append([]string(nil), uiKeys...)
	}
	return nil
}

// Defaults 返回该 profile 的默认值副本。
func (p Profile) Defaults() map[string]string {
	src := uiDefaults
	if p == ProfileAPI {
		src = apiDefaults
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// ReleaseURL 返回该 profile 固定的发布包地址。
func (p Profile) ReleaseURL() string {
	if p == ProfileAPI {
		return apiReleaseURL
	}
	return uiReleaseURL
}

// Title 用于脚本头注释与 unit Description。
func (p Profile) Title() string {
	if p == ProfileAPI {
		return "TuneScout API"
	}
	return "TuneScout UI"
}
