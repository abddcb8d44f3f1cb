package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/report"
	"github.com/hitoshi/workman/internal/workload"
)

// AvailabilityServiceInterface は稼働率ハンドラーが必要とするサービスインターフェース。
type AvailabilityServiceInterface interface {
	// Availability は範囲内の企業全体の稼働可能日数を計算する。
	Availability(ctx context.Context, companyID int64, start, end time.Time) (*workload.AvailabilityResult, error)
	// DayStates は1人の従業員の範囲内の各日の記録状態を返す。
	DayStates(ctx context.Context, employeeID int64, start, end time.Time) ([]report.DayStateEntry, error)
}

// AvailabilityHandler は稼働率・日次状態APIのHTTPハンドラー。
type AvailabilityHandler struct {
	service AvailabilityServiceInterface
}

// NewAvailabilityHandler はAvailabilityHandlerを生成する。
func NewAvailabilityHandler(service AvailabilityServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// GetAvailability は企業全体の稼働可能日数を返す。
// GET /api/availability?company=1&start=2024-03-11&end=2024-03-15
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyIDParam(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.Availability(r.Context(), companyID, start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetDayStates は従業員の日次記録状態を返す。
// GET /api/employees/{id}/days?start=2024-03-11&end=2024-03-15
func (h *AvailabilityHandler) GetDayStates(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	employeeID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || employeeID <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "従業員IDは正の整数で指定してください。",
			Category: "validation",
			Action:   "URLの従業員IDを確認してください。",
		})
		return
	}
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	entries, err := h.service.DayStates(r.Context(), employeeID, start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// dateRangeParams はstart・endクエリパラメータを解析する。
// 不正な場合はエラーレスポンスを書き込み、falseを返す。
func dateRangeParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("start"), time.UTC)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateRangeError("startの形式が不正です（YYYY-MM-DD）"))
		return time.Time{}, time.Time{}, false
	}
	end, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("end"), time.UTC)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateRangeError("endの形式が不正です（YYYY-MM-DD）"))
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
