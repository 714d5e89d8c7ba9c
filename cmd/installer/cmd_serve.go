// Package main: serve command.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tunescout/tunescout-installer/internal/audit"
	"github.com/tunescout/tunescout-installer/internal/logger"
	"github.com/tunescout/tunescout-installer/internal/server"
	"github.com/tunescout/tunescout-installer/internal/webui"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func cmdServe(c *cli) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, c, nil)
}

// newRecorder 在配置了 Redis 地址时启用审计；连接失败时退回 Nop，不阻止服务启动。
func newRecorder(ctx context.Context, cfg config, log *zap.Logger) audit.Recorder {
	if cfg.RedisAddr == "" {
		return audit.Nop{}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rec, err := audit.NewRedis(pingCtx, audit.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Key:      cfg.AuditKey,
	})
	if err != nil {
		log.Warn("audit disabled", zap.Error(err))
		return audit.Nop{}
	}
	log.Info("audit enabled", zap.String("redis", cfg.RedisAddr), zap.String("key", rec.Key()))
	return rec
}

// serve 运行到 ctx 结束后优雅退出。ready 非空时在开始监听后收到实际地址。
func serve(ctx context.Context, c *cli, ready chan<- string) error {
	log, err := logger.New(c.cfg.LogLevel, c.cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	def, err := webui.LoadPage(c.cfg.PagePath)
	if err != nil {
		return fmt.Errorf("load page config: %w", err)
	}
	page, err := webui.NewPage(def, webui.Options{PublicURL: c.cfg.PublicURL})
	if err != nil {
		return err
	}

	rec := newRecorder(ctx, c.cfg, log)
	defer func() { _ = rec.Close() }()

	srv := &http.Server{
		Handler:           server.New(server.Options{Page: page, Logger: log, Recorder: rec}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	ln, err := net.Listen("tcp", c.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.cfg.Listen, err)
	}
	addr := ln.Addr().String()
	log.Info("listening", zap.String("addr", addr), zap.String("public_url", c.cfg.PublicURL))
	if ready != nil {
		ready <- addr
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
