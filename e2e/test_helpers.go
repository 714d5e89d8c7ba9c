package e2e

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/MarvinJWendt/testza"
	"github.com/tunescout/tunescout-installer/internal/server"
	"github.com/tunescout/tunescout-installer/internal/webui"
)

// waitForService polls url until it answers with a status below 500 or timeout.
func waitForService(t *testing.T, url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			if closeErr := resp.Body.Close(); closeErr != nil {
				t.Logf("Warning: failed to close response body: %v", closeErr)
			}
			if resp.StatusCode < 500 {
				return true
			}
		}
		time.Sleep(500 * time.Millisecond)
	}

	return false
}

// ensureInstallerReady 返回可用的服务地址：优先 INSTALLER_URL，否则启动进程内服务。
func ensureInstallerReady(t *testing.T) string {
	t.Helper()
	if base := strings.TrimRight(installerURL(), "/"); base != "" {
		if !waitForService(t, base+"/healthz", 30*time.Second) {
			t.Fatalf("installer at %s is not ready", base)
		}
		return base
	}

	def, err := webui.LoadPage("")
	testza.AssertNoError(t, err)
	page, err := webui.NewPage(def, webui.Options{})
	testza.AssertNoError(t, err)
	ts := httptest.NewServer(server.New(server.Options{Page: page}).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

// fetch 发起 GET 并返回响应与完整正文。
func fetch(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	testza.AssertNoError(t, err)
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Logf("Warning: failed to close response body: %v", closeErr)
		}
	}()
	body, err := io.ReadAll(resp.Body)
	testza.AssertNoError(t, err)
	return resp, string(body)
}

// requireTool 在缺少外部命令时跳过测试。
func requireTool(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

// extractBlock 返回从以 start 开头的行到其后第一行 end（含）之间的文本。
func extractBlock(script, start, end string) string {
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), start) {
			continue
		}
		for j := i; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == end {
				return strings.Join(lines[i:j+1], "\n") + "\n"
			}
		}
	}
	return ""
}

// parsePrometheusMetrics parses Prometheus text format into series -> value.
func parsePrometheusMetrics(metricsText string) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(metricsText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			result[parts[0]] = parts[len(parts)-1]
		}
	}
	return result
}
