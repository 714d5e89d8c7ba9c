// Package server 暴露安装脚本路由、运维表单页以及健康检查与指标端点。
package server

import (
	"context"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tunescout/tunescout-installer/internal/audit"
	"github.com/tunescout/tunescout-installer/internal/installgen"
	"github.com/tunescout/tunescout-installer/internal/webui"
	"go.uber.org/zap"
)

const defaultAuditTimeout = 2 * time.Second

// Options 构造 Server 所需的依赖；除 Page 外均可为空。
type Options struct {
	Page         *webui.Page
	Logger       *zap.Logger
	Recorder     audit.Recorder
	Registry     *prometheus.Registry
	AuditTimeout time.Duration
}

// Server 无请求间共享的可变状态，处理函数可任意并发。
type Server struct {
	page         *webui.Page
	log          *zap.Logger
	recorder     audit.Recorder
	registry     *prometheus.Registry
	metrics      *metrics
	auditTimeout time.Duration
}

func New(opts Options) *Server {
	s := &Server{
		page:         opts.Page,
		log:          opts.Logger,
		recorder:     opts.Recorder,
		registry:     opts.Registry,
		auditTimeout: opts.AuditTimeout,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.recorder == nil {
		s.recorder = audit.Nop{}
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.auditTimeout <= 0 {
		s.auditTimeout = defaultAuditTimeout
	}
	s.metrics = newMetrics(s.registry)
	return s
}

// Handler 返回挂好全部路由与中间件的 http.Handler。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	for _, p := range installgen.Profiles() {
		mux.HandleFunc("GET "+p.Route(), s.handleInstall(p))
	}
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.withObservability(mux)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	if s.page == nil {
		writeError(w, http.StatusNotFound, AppError{Code: "not_found", Message: "form page is disabled"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.page.Render(w); err != nil {
		s.log.Error("render index", zap.Error(err))
		writeError(w, http.StatusInternalServerError, AppError{Code: "render_failed", Message: "failed to render page", Stage: "page"})
	}
}

// handleInstall 解析 query 参数并返回完整脚本。参数一律可缺省，正常路径总是 200。
func (s *Server) handleInstall(p installgen.Profile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := installgen.ParamsFromQuery(r.URL.Query())
		if rejected := installgen.Rejected(p, raw); len(rejected) > 0 {
			s.log.Warn("parameters with control characters replaced by defaults",
				zap.String("profile", string(p)), zap.Strings("keys", rejected))
		}

		cfg, art, err := installgen.Build(p, raw)
		if err != nil {
			s.log.Error("render script", zap.String("profile", string(p)), zap.Error(err))
			writeRenderError(w, err)
			return
		}

		h := w.Header()
		h.Set("Content-Type", art.ContentType)
		h.Set("Cache-Control", art.CacheControl)
		h.Set("Content-Length", strconv.Itoa(len(art.Body)))
		h.Set("X-Script-SHA256", art.SHA256)
		if cd := mime.FormatMediaType("inline", map[string]string{"filename": art.FileName}); cd != "" {
			h.Set("Content-Disposition", cd)
		}
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(art.Body)
		}

		s.metrics.rendered.WithLabelValues(string(p)).Inc()
		s.record(r, audit.Entry{
			Profile:     string(p),
			ServiceName: cfg.ServiceName,
			SHA256:      art.SHA256,
			Bytes:       len(art.Body),
			Remote:      remoteHost(r.RemoteAddr),
		})
	}
}

// record 尽力写入审计记录，失败只记日志，不影响已发出的响应。
func (s *Server) record(r *http.Request, e audit.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.auditTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, e); err != nil {
		s.log.Warn("audit record failed", zap.String("profile", e.Profile), zap.Error(err))
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
