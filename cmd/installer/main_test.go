package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarvinJWendt/testza"
	"github.com/tunescout/tunescout-installer/internal/installgen"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestHelp(t *testing.T) {
	code, out, _ := runCLI(t)
	testza.AssertEqual(t, 0, code)
	for _, name := range []string{"serve", "render", "validate", "version", "LISTEN_ADDR", "AUDIT_REDIS_ADDR"} {
		testza.AssertContains(t, out, name)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "deploy")
	testza.AssertEqual(t, 1, code)
	testza.AssertContains(t, errOut, `Unknown command: "deploy"`)
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	testza.AssertEqual(t, 0, code)
	testza.AssertEqual(t, version+"\n", out)
}

func TestResolveConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "0.0.0.0:9000")
	t.Setenv("AUDIT_REDIS_DB", "3")
	t.Setenv("PUBLIC_URL", "https://from-env.example.com")

	fs := newGlobalFlagSet(io.Discard)
	testza.AssertNoError(t, fs.Parse([]string{"-public-url", "https://from-flag.example.com"}))
	cfg, err := resolveConfig(fs)
	testza.AssertNoError(t, err)
	testza.AssertEqual(t, "0.0.0.0:9000", cfg.Listen)
	testza.AssertEqual(t, 3, cfg.RedisDB)
	testza.AssertEqual(t, "https://from-flag.example.com", cfg.PublicURL)
	testza.AssertEqual(t, defaultLogLevel, cfg.LogLevel)
}

func TestResolveConfig_InvalidRedisDB(t *testing.T) {
	code, _, errOut := runCLI(t, "-redis-db", "x", "version")
	testza.AssertEqual(t, 1, code)
	testza.AssertContains(t, errOut, "invalid redis db")
}

func TestRender_MatchesCompiler(t *testing.T) {
	code, out, _ := runCLI(t, "-log-level", "error", "render", "ui", "-set", "service_name=foo", "-set", "bind=0.0.0.0:3000")
	testza.AssertEqual(t, 0, code)

	_, art, err := installgen.Build(installgen.ProfileUI, installgen.Params{"service_name": "foo", "bind": "0.0.0.0:3000"})
	testza.AssertNoError(t, err)
	testza.AssertEqual(t, string(art.Body), out)
}

func TestRender_FlagsBeforeProfile(t *testing.T) {
	code, out, _ := runCLI(t, "-log-level", "error", "render", "-set", "workers=4", "install-api")
	testza.AssertEqual(t, 0, code)
	testza.AssertContains(t, out, "--workers 4")
}

func TestRender_UnitPreview(t *testing.T) {
	code, out, _ := runCLI(t, "-log-level", "error", "render", "api", "-unit", "-set", "service_name=radio")
	testza.AssertEqual(t, 0, code)
	testza.AssertTrue(t, strings.HasPrefix(out, "[Unit]\n"))
	testza.AssertContains(t, out, "Description=TuneScout API (radio)")
	testza.AssertNotContains(t, out, "${")
}

func TestRender_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "install.sh")
	code, out, _ := runCLI(t, "-log-level", "error", "render", "api", "-o", path)
	testza.AssertEqual(t, 0, code)
	testza.AssertEqual(t, "", out)

	b, err := os.ReadFile(path)
	testza.AssertNoError(t, err)
	testza.AssertTrue(t, strings.HasPrefix(string(b), "#!/usr/bin/env bash\n"))
	info, err := os.Stat(path)
	testza.AssertNoError(t, err)
	testza.AssertEqual(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestRender_Errors(t *testing.T) {
	code, _, errOut := runCLI(t, "render")
	testza.AssertEqual(t, 1, code)
	testza.AssertContains(t, errOut, "missing profile")

	code, _, errOut = runCLI(t, "render", "worker")
	testza.AssertEqual(t, 1, code)
	testza.AssertContains(t, errOut, `unknown profile "worker"`)

	code, _, _ = runCLI(t, "render", "api", "-set", "novalue")
	testza.AssertEqual(t, 1, code)
}

func TestValidate(t *testing.T) {
	code, out, _ := runCLI(t, "validate")
	testza.AssertEqual(t, 0, code)
	testza.AssertEqual(t, "config OK\n", out)

	bad := filepath.Join(t.TempDir(), "page.yaml")
	testza.AssertNoError(t, os.WriteFile(bad, []byte("forms:\n  - profile: api\n    fields:\n      - name: service_name\n"), 0o644))
	code, _, errOut := runCLI(t, "-page", bad, "validate")
	testza.AssertEqual(t, 1, code)
	testza.AssertContains(t, errOut, "config validation failed")
	testza.AssertContains(t, errOut, "missing form for profile ui")
}

func TestServe_GracefulShutdown(t *testing.T) {
	c := &cli{
		cfg:    config{Listen: "127.0.0.1:0", LogLevel: "error", LogFormat: "json"},
		stdout: io.Discard,
		stderr: io.Discard,
	}
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- serve(ctx, c, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/install-api")
	testza.AssertNoError(t, err)
	_ = resp.Body.Close()
	testza.AssertEqual(t, http.StatusOK, resp.StatusCode)
	testza.AssertEqual(t, "no-store", resp.Header.Get("Cache-Control"))

	cancel()
	select {
	case err := <-done:
		testza.AssertNoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestSetFlags(t *testing.T) {
	s := setFlags{}
	testza.AssertNoError(t, s.Set("b=2"))
	testza.AssertNoError(t, s.Set("a=x=y"))
	testza.AssertEqual(t, "a=x=y,b=2", s.String())
	testza.AssertNotNil(t, s.Set("=1"))
}
