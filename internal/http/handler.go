package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/daisuketominaga/shinsei/internal/domain"
	"github.com/daisuketominaga/shinsei/internal/llm"
	"github.com/daisuketominaga/shinsei/internal/logging"
	"github.com/daisuketominaga/shinsei/internal/sheets"
	"github.com/daisuketominaga/shinsei/internal/store"
)

// Config holds handler configuration.
type Config struct {
	HistoryLimit int
}

// Handler implements the search, history, and export endpoints. gateway and
// exporter may be nil when their credentials are not configured; the
// corresponding endpoints then answer with a configuration error.
type Handler struct {
	gateway  llm.Gateway
	history  store.HistoryStore
	exporter sheets.Exporter
	cfg      Config
}

func NewHandler(gateway llm.Gateway, history store.HistoryStore, exporter sheets.Exporter, cfg Config) *Handler {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = store.DefaultListLimit
	}
	return &Handler{
		gateway:  gateway,
		history:  history,
		exporter: exporter,
		cfg:      cfg,
	}
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Search runs the two-phase resolution pipeline: confirm the jurisdiction
// (never fails, degrades to the rule-based decision), then fetch procedural
// detail for it (fails hard, there is no safe synthetic procedure).
func (h *Handler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	totalStart := time.Now()

	var req domain.SearchRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("リクエストボディが不正です")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if h.gateway == nil {
		return domain.NewConfigError("PERPLEXITY_API_KEYが設定されていません")
	}

	bt := req.Type()
	logFields := []any{
		"request_id", logging.RequestID(ctx),
		"prefecture", req.Prefecture,
		"city", req.City,
		"business_type", string(bt),
	}

	// Phase 1: confirm the jurisdiction.
	verifyStart := time.Now()
	decision := h.gateway.VerifyJurisdiction(ctx, req.Prefecture, req.City, bt)
	verifyLatency := time.Since(verifyStart)

	slog.InfoContext(ctx, "jurisdiction confirmed",
		append(logFields,
			"jurisdiction", decision.Jurisdiction,
			"is_city", decision.IsCity,
			"verify_ms", verifyLatency.Milliseconds(),
		)...,
	)

	// Phase 2: fetch the application procedure.
	detailStart := time.Now()
	result, err := h.gateway.FetchApplicationDetails(ctx, decision, req.Prefecture, req.City, bt)
	detailLatency := time.Since(detailStart)
	if err != nil {
		slog.ErrorContext(ctx, "detail fetch failed", append(logFields, "error", err)...)
		return err
	}

	slog.InfoContext(ctx, "search completed",
		append(logFields,
			"flow_steps", len(result.Flow),
			"verify_ms", verifyLatency.Milliseconds(),
			"detail_ms", detailLatency.Milliseconds(),
			"total_ms", time.Since(totalStart).Milliseconds(),
		)...,
	)

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) HistoryList(c echo.Context) error {
	records, err := h.history.List(c.Request().Context(), h.cfg.HistoryLimit)
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "history list failed", "error", err)
		return domain.NewInternalError("履歴の取得に失敗しました", err)
	}
	return c.JSON(http.StatusOK, domain.HistoryListResponse{History: records})
}

func (h *Handler) HistoryUpsert(c echo.Context) error {
	var req domain.HistoryUpsertRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("リクエストボディが不正です")
	}
	if req.Prefecture == "" || req.City == "" || req.Jurisdiction == "" {
		return domain.NewValidationError("保存する検索結果が不完全です")
	}

	rec, err := h.history.Upsert(c.Request().Context(), req.Record())
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "history upsert failed", "error", err)
		return domain.NewInternalError("履歴の保存に失敗しました", err)
	}
	return c.JSON(http.StatusOK, domain.MutationResponse{Success: true, Data: rec})
}

func (h *Handler) HistoryUpdateChecked(c echo.Context) error {
	var req domain.CheckedStepsRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("リクエストボディが不正です")
	}
	if req.ID == "" {
		return domain.NewValidationError("IDが指定されていません")
	}

	rec, err := h.history.UpdateCheckedSteps(c.Request().Context(), req.ID, req.CheckedSteps)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		slog.ErrorContext(c.Request().Context(), "checked steps update failed", "error", err, "id", req.ID)
		return domain.NewInternalError("チェック状態の更新に失敗しました", err)
	}
	return c.JSON(http.StatusOK, domain.MutationResponse{Success: true, Data: rec})
}

// HistoryDelete removes one record by id, or the whole history with all=true.
func (h *Handler) HistoryDelete(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("all") == "true" {
		if err := h.history.DeleteAll(ctx); err != nil {
			slog.ErrorContext(ctx, "history clear failed", "error", err)
			return domain.NewInternalError("履歴の削除に失敗しました", err)
		}
		return c.JSON(http.StatusOK, domain.MutationResponse{Success: true})
	}

	id := c.QueryParam("id")
	if id == "" {
		return domain.NewValidationError("IDが指定されていません")
	}
	if err := h.history.Delete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "history delete failed", "error", err, "id", id)
		return domain.NewInternalError("履歴の削除に失敗しました", err)
	}
	return c.JSON(http.StatusOK, domain.MutationResponse{Success: true})
}

func (h *Handler) Export(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ExportRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("リクエストボディが不正です")
	}
	if h.exporter == nil {
		return domain.NewConfigError("Google Sheets の設定が不足しています")
	}

	row := sheets.Row{
		BusinessTypeName:   domain.DisplayName(req.BusinessType),
		Prefecture:         req.Prefecture,
		City:               req.City,
		Jurisdiction:       req.Jurisdiction,
		JurisdictionDetail: req.JurisdictionDetail,
		Summary:            req.Summary,
		GuidelineURL:       req.GuidelineURL,
	}
	if err := h.exporter.Append(ctx, row); err != nil {
		slog.ErrorContext(ctx, "spreadsheet export failed", "error", err)
		return domain.NewInternalError("スプレッドシートへの保存に失敗しました", err)
	}
	return c.JSON(http.StatusOK, domain.MutationResponse{Success: true, Message: "スプレッドシートに保存しました"})
}
