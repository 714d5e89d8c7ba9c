// Package main 提供 TuneScout 安装脚本生成服务的 CLI：启动 HTTP 服务、本地渲染脚本、校验表单页定义。
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soulteary/cli-kit/configutil"
	"github.com/soulteary/cli-kit/flagutil"
)

// version 由构建时 -ldflags "-X main.version=..." 注入。
var version = "dev"

const (
	defaultListen    = "127.0.0.1:8000"
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
)

// globalFlag 描述一个可由环境变量覆盖的全局 flag。
type globalFlag struct {
	name, env, def, usage string
}

var globalFlags = []globalFlag{
	{"listen", "LISTEN_ADDR", defaultListen, "HTTP listen address"},
	{"log-level", "LOG_LEVEL", defaultLogLevel, "debug, info, warn or error"},
	{"log-format", "LOG_FORMAT", defaultLogFormat, "console or json"},
	{"public-url", "PUBLIC_URL", "", "origin used in the copied install command (empty: browser origin)"},
	{"page", "PAGE_CONFIG", "", "page definition YAML overriding the embedded one"},
	{"redis-addr", "AUDIT_REDIS_ADDR", "", "Redis address for the render audit trail (empty: disabled)"},
	{"redis-password", "AUDIT_REDIS_PASSWORD", "", "Redis password"},
	{"redis-db", "AUDIT_REDIS_DB", "0", "Redis database number"},
	{"audit-key", "AUDIT_KEY", "", "Redis list key for audit entries"},
}

// config 为解析后的全局配置：flag > 环境变量 > 默认值。
type config struct {
	Listen        string
	LogLevel      string
	LogFormat     string
	PublicURL     string
	PagePath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AuditKey      string
}

// cli 为每个命令的执行上下文。
type cli struct {
	cfg    config
	args   []string
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name, desc string
	fn         func(*cli) error
}

var commands []command

func getCommands() []command {
	if len(commands) == 0 {
		commands = []command{
			{"help", "Show help information", cmdHelp},
			{"serve", "Start the installer web service (form page, /install-api, /install-ui)", cmdServe},
			{"render", "Render an installation script locally: render <api|ui> [-set key=value]... [-o file] [-unit]", cmdRender},
			{"validate", "Check that the page definition mirrors the resolver parameters", cmdValidate},
			{"version", "Print version", cmdVersion},
		}
	}
	return commands
}

func findCommand(name string) *command {
	list := getCommands()
	for i := range list {
		if list[i].name == name {
			return &list[i]
		}
	}
	return nil
}

func newGlobalFlagSet(stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("installer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	for _, f := range globalFlags {
		_ = fs.String(f.name, f.def, f.usage+" (env "+f.env+")")
	}
	return fs
}

func resolveConfig(fs *flag.FlagSet) (config, error) {
	get := func(name string) string {
		for _, f := range globalFlags {
			if f.name == name {
				return configutil.ResolveString(fs, f.name, f.env, f.def, true)
			}
		}
		return ""
	}
	cfg := config{
		Listen:        get("listen"),
		LogLevel:      get("log-level"),
		LogFormat:     get("log-format"),
		PublicURL:     get("public-url"),
		PagePath:      get("page"),
		RedisAddr:     get("redis-addr"),
		RedisPassword: get("redis-password"),
		AuditKey:      get("audit-key"),
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	db := strings.TrimSpace(get("redis-db"))
	if db == "" {
		db = "0"
	}
	n, err := strconv.Atoi(db)
	if err != nil || n < 0 {
		return cfg, fmt.Errorf("invalid redis db %q", db)
	}
	cfg.RedisDB = n
	return cfg, nil
}

func cmdHelp(c *cli) error {
	w := c.stdout
	fmt.Fprintln(w, "TuneScout installer: generates bash installation scripts for the API and UI services")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: installer [global flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available commands:")
	for _, cmd := range getCommands() {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.desc)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags (flag > env > default):")
	for _, f := range globalFlags {
		def := f.def
		if def == "" {
			def = `""`
		}
		fmt.Fprintf(w, "  -%-16s %-22s default %s\n", f.name, f.env, def)
	}
	return nil
}

func cmdVersion(c *cli) error {
	fmt.Fprintln(c.stdout, version)
	return nil
}

// run 为 main 的可测试主体，返回进程退出码。
func run(args []string, stdout, stderr io.Writer) int {
	fs := newGlobalFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	rest := fs.Args()
	cmdName := "help"
	if len(rest) > 0 {
		cmdName = strings.TrimSpace(rest[0])
		rest = rest[1:]
	}

	cfg, err := resolveConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}
	if flagutil.HasFlag(fs, "public-url") && strings.TrimSpace(flagutil.GetString(fs, "public-url", "")) == "" {
		fmt.Fprintln(stderr, "warning: -public-url is empty, the form page will use the browser origin")
	}

	c := findCommand(cmdName)
	if c == nil {
		fmt.Fprintf(stderr, "Unknown command: %q\n", cmdName)
		fmt.Fprintln(stderr, "Run installer help for usage.")
		return 1
	}
	if err := c.fn(&cli{cfg: cfg, args: rest, stdout: stdout, stderr: stderr}); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", cmdName, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
