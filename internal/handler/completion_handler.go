package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/gitquiz/internal/middleware"
)

// Completer はLLM補完のインターフェース。
// openai.Clientの部分集合として定義する。
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionRecorder はLLM補完のメトリクス記録インターフェース。
type CompletionRecorder interface {
	RecordCompletion(success bool)
	RecordCompletionLatency(duration time.Duration)
}

// CompletionHandler はLLM補完プロキシのHTTPハンドラー。
type CompletionHandler struct {
	completer Completer
	metrics   CompletionRecorder // nil可
}

// NewCompletionHandler はCompletionHandlerを生成する。
func NewCompletionHandler(completer Completer, metrics CompletionRecorder) *CompletionHandler {
	return &CompletionHandler{
		completer: completer,
		metrics:   metrics,
	}
}

// completionRequest はPOST /completionのリクエストボディ。
type completionRequest struct {
	Prompt string `json:"prompt"`
}

// completionResponse はPOST /completionのレスポンスボディ。
type completionResponse struct {
	Response string `json:"response"`
}

// Complete はプロンプトをLLMに転送し、補完結果を返す。
// POST /completion
// promptが欠落している場合は400 {"error":"Missing prompt"}を返す。
// 上流APIの失敗はリトライせず500でそのまま返す。
func (h *CompletionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Missing prompt")
		return
	}

	start := time.Now()
	text, err := h.completer.Complete(r.Context(), req.Prompt)
	if h.metrics != nil {
		h.metrics.RecordCompletionLatency(time.Since(start))
		h.metrics.RecordCompletion(err == nil)
	}
	if err != nil {
		slog.Error("completion request failed", slog.String("error", err.Error()))
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, completionResponse{Response: text})
}
