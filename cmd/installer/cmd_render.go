// Package main: render command.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tunescout/tunescout-installer/internal/installgen"
	"github.com/tunescout/tunescout-installer/internal/logger"
	"go.uber.org/zap"
)

// setFlags 收集可重复的 -set key=value。
type setFlags installgen.Params

func (s setFlags) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s[k])
	}
	return strings.Join(parts, ",")
}

func (s setFlags) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	s[k] = val
	return nil
}

// cmdRender 输出与 HTTP 路由相同参数下逐字节一致的脚本。
func cmdRender(c *cli) error {
	params := setFlags{}
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Var(params, "set", "parameter override key=value (repeatable)")
	out := fs.String("o", "", "write the script to this file instead of stdout")
	unitOnly := fs.Bool("unit", false, "print the systemd unit as it will be installed instead of the script")

	// 允许 profile 写在 flag 之前：render ui -set bind=0.0.0.0:3000
	args := c.args
	var profileArg string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		profileArg, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if profileArg == "" {
		profileArg = fs.Arg(0)
	}
	if profileArg == "" {
		return fmt.Errorf("missing profile (api or ui)")
	}
	p, err := installgen.ParseProfile(profileArg)
	if err != nil {
		return err
	}

	log := logger.Must(c.cfg.LogLevel, c.cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	raw := installgen.Params(params)
	for k := range raw {
		if !knownKey(p, k) {
			log.Warn("ignoring unknown parameter", zap.String("profile", string(p)), zap.String("key", k))
		}
	}
	if rejected := installgen.Rejected(p, raw); len(rejected) > 0 {
		log.Warn("parameters with control characters replaced by defaults", zap.Strings("keys", rejected))
	}

	cfg, art, err := installgen.Build(p, raw)
	if err != nil {
		return err
	}

	body := art.Body
	if *unitOnly {
		unit, err := installgen.PreviewUnit(cfg)
		if err != nil {
			return err
		}
		body = []byte(unit)
	}

	if *out == "" {
		_, err = c.stdout.Write(body)
		return err
	}
	mode := os.FileMode(0o755)
	if *unitOnly {
		mode = 0o644
	}
	if err := os.WriteFile(*out, body, mode); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Info("script written", zap.String("file", *out), zap.String("sha256", art.SHA256), zap.Int("bytes", len(art.Body)))
	return nil
}

func knownKey(p installgen.Profile, key string) bool {
	for _, k := range p.Keys() {
		if k == key {
			return true
		}
	}
	return false
}
