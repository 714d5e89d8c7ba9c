package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tunescout/tunescout-installer/internal/installgen"
)

// AppError 为 JSON 错误体。
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage,omitempty"`
}

type errorResponse struct {
	Error AppError `json:"error"`
}

func writeError(w http.ResponseWriter, status int, e AppError) {
	h := w.Header()
	h.Del("Content-Disposition")
	h.Del("X-Script-SHA256")
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: e})
}

// writeRenderError 将编译失败映射为 500；错误体不包含任何脚本内容。
func writeRenderError(w http.ResponseWriter, err error) {
	e := AppError{Code: "render_failed", Message: "failed to render installation script"}
	var re *installgen.RenderError
	if errors.As(err, &re) {
		e.Stage = re.Stage
	}
	writeError(w, http.StatusInternalServerError, e)
}
