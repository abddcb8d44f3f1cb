// Package handler はレポートAPIのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/period"
	"github.com/hitoshi/workman/internal/report"
	"github.com/hitoshi/workman/internal/workload"
)

// WorkloadServiceInterface はレポートハンドラーが必要とするサービスインターフェース。
type WorkloadServiceInterface interface {
	// BuildReports は複数期間のレポート一覧を生成する。
	BuildReports(ctx context.Context, companyID int64, opts workload.ReportOptions) (*workload.ReportResult, error)
	// BuildReport は期間キーで指定した1期間のレポートを生成する。
	BuildReport(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*workload.SingleReportResult, error)
	// ListPeriods は期間セレクタ用の期間一覧を返す。
	ListPeriods(today time.Time, count int, unit period.Unit, direction period.Direction) ([]period.Period, error)
}

// ReportHandler はレポートAPIのHTTPハンドラー。
type ReportHandler struct {
	service WorkloadServiceInterface
	now     func() time.Time
}

// NewReportHandler はReportHandlerを生成する。
func NewReportHandler(service WorkloadServiceInterface) *ReportHandler {
	return &ReportHandler{service: service, now: time.Now}
}

// periodResponse は期間一覧のAPIレスポンスの1要素。
type periodResponse struct {
	Key   string `json:"key"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListReports は複数期間のレポート一覧を返す。
// GET /api/reports?company=1&unit=month&direction=past&count=10&group_by=project
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDParam(w, r)
	if !ok {
		return
	}
	groupBy, ok := groupByParam(w, r)
	if !ok {
		return
	}

	opts := workload.ReportOptions{
		Unit:      periodUnitParam(r),
		Direction: directionParam(r),
		GroupBy:   groupBy,
		Today:     h.now(),
	}
	if count := r.URL.Query().Get("count"); count != "" {
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "countは正の整数で指定してください。",
				Category: "validation",
				Action:   "countクエリパラメータを確認してください。",
			})
			return
		}
		opts.Count = n
	}

	result, err := h.service.BuildReports(r.Context(), companyID, opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetReport は1期間のレポートを返す。
// GET /api/reports/{key}?company=1&group_by=project
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDParam(w, r)
	if !ok {
		return
	}
	groupBy, ok := groupByParam(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	result, err := h.service.BuildReport(r.Context(), companyID, key, groupBy, h.now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListPeriods は期間セレクタ用の期間一覧を返す。
// GET /api/periods?unit=month&direction=past&count=10
func (h *ReportHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	count := 0
	if c := r.URL.Query().Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n <= 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_REQUEST",
				Message:  "countは正の整数で指定してください。",
				Category: "validation",
				Action:   "countクエリパラメータを確認してください。",
			})
			return
		}
		count = n
	}

	periods, err := h.service.ListPeriods(h.now(), count, periodUnitParam(r), directionParam(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	response := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		entry := periodResponse{Key: p.Key}
		if p.Kind == period.KindRolling {
			entry.Start = p.Start.Format("2006-01-02")
			entry.End = p.End.Format("2006-01-02")
		}
		response = append(response, entry)
	}

	writeJSON(w, http.StatusOK, response)
}

// companyIDParam はcompanyクエリパラメータを解析する。
// 不正な場合はエラーレスポンスを書き込み、falseを返す。
func companyIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("company")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "companyは正の整数で指定してください。",
			Category: "validation",
			Action:   "companyクエリパラメータを確認してください。",
		})
		return 0, false
	}
	return id, true
}

// groupByParam はgroup_byクエリパラメータを解析する。未指定はprojectとなる。
func groupByParam(w http.ResponseWriter, r *http.Request) (report.GroupBy, bool) {
	raw := r.URL.Query().Get("group_by")
	if raw == "" {
		return report.GroupByProject, true
	}
	groupBy, err := report.ParseGroupBy(raw)
	if err != nil {
		handleServiceError(w, err)
		return "", false
	}
	return groupBy, true
}

// periodUnitParam はunitクエリパラメータを解析する。未指定はmonthとなる。
func periodUnitParam(r *http.Request) period.Unit {
	if r.URL.Query().Get("unit") == string(period.UnitWeek) {
		return period.UnitWeek
	}
	return period.UnitMonth
}

// directionParam はdirectionクエリパラメータを解析する。未指定はpastとなる。
func directionParam(r *http.Request) period.Direction {
	if r.URL.Query().Get("direction") == string(period.DirectionFuture) {
		return period.DirectionFuture
	}
	return period.DirectionPast
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidPeriod, model.ErrCodeInvalidGroupBy, model.ErrCodeInvalidDateRange:
		return http.StatusBadRequest
	case model.ErrCodeCompanyNotFound, model.ErrCodeEmployeeNotFound:
		return http.StatusNotFound
	case model.ErrCodeCalendarFetchFailed:
		return http.StatusBadGateway
	case model.ErrCodeCalendarParseFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
