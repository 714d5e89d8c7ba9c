package installgen

import (
	"net/url"
	"strings"
)

// Params 为原始输入（InstallRequest）：参数名 -> 值，缺省或空值均合法。
type Params map[string]string

// ParamsFromQuery 取每个 key 的第一个值；未识别的 key 保留，由 Resolve 忽略。
func ParamsFromQuery(q url.Values) Params {
	out := make(Params, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// Config 为完全填充后的配置（ResolvedConfig），是 Params 的纯函数。
type Config struct {
	Profile Profile

	ServiceName      string
	DaemonUser       string
	DaemonGroup      string
	InstallationPath string
	SystemdPath      string

	// api
	Workers string
	Timeout string

	// 两种 profile 共用；api 原样透传给 gunicorn，ui 拆成 Hostname/Port
	Bind string

	// ui
	APIBaseURL string
	Hostname   string
	Port       string

	// 派生：SystemdPath + "/" + ServiceName + ".service"
	UnitFile string
}

// Resolve 对缺失、空白或含控制字符的参数套用 profile 默认值，永不失败。
// workers/timeout 等数值按不透明字符串处理，不做范围校验。
func Resolve(p Profile, raw Params) Config {
	defaults := p.Defaults()
	get := func(key string) string {
		if v, ok := lookup(raw, key); ok {
			return v
		}
		return defaults[key]
	}

	cfg := Config{
		Profile:          p,
		ServiceName:      get(KeyServiceName),
		DaemonUser:       get(KeyDaemonUser),
		DaemonGroup:      get(KeyDaemonGroup),
		InstallationPath: get(KeyInstallationPath),
		SystemdPath:      get(KeySystemdPath),
		Bind:             get(KeyBind),
	}
	switch p {
	case ProfileAPI:
		cfg.Workers = get(KeyWorkers)
		cfg.Timeout = get(KeyTimeout)
	case ProfileUI:
		cfg.APIBaseURL = get(KeyAPIBaseURL)
		cfg.Hostname, cfg.Port = SplitBind(cfg.Bind)
	}
	cfg.UnitFile = UnitFilePath(cfg.SystemdPath, cfg.ServiceName)
	return cfg
}

// Rejected 列出 raw 中因含控制字符而被替换为默认值的 key（按 profile 参数顺序）。
func Rejected(p Profile, raw Params) []string {
	var out []string
	for _, k := range p.Keys() {
		v, present := raw[k]
		if !present {
			continue
		}
		if strings.TrimSpace(v) != "" && hasControl(v) {
			out = append(out, k)
		}
	}
	return out
}

// SplitBind 在第一个 ':' 处拆分 host:port，两半各自回退默认值（":7000" -> 127.0.0.1, 7000）。
func SplitBind(bind string) (host, port string) {
	host, port, _ = strings.Cut(bind, ":")
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	if host == "" {
		host = defaultUIHost
	}
	if port == "" {
		port = defaultUIPort
	}
	return host, port
}

// UnitFilePath 拼接 unit 文件路径；systemd_path 末尾的 '/' 会被去掉。
func UnitFilePath(systemdPath, serviceName string) string {
	return strings.TrimRight(systemdPath, "/") + "/" + serviceName + ".service"
}

func lookup(raw Params, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" || hasControl(v) {
		return "", false
	}
	return v, true
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
