package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/period"
	"github.com/hitoshi/workman/internal/report"
	"github.com/hitoshi/workman/internal/workload"
)

// --- モック定義 ---

// mockWorkloadService はWorkloadServiceInterfaceのモック実装。
type mockWorkloadService struct {
	buildReportsFn func(ctx context.Context, companyID int64, opts workload.ReportOptions) (*workload.ReportResult, error)
	buildReportFn  func(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*workload.SingleReportResult, error)
	listPeriodsFn  func(today time.Time, count int, unit period.Unit, direction period.Direction) ([]period.Period, error)
}

func (m *mockWorkloadService) BuildReports(ctx context.Context, companyID int64, opts workload.ReportOptions) (*workload.ReportResult, error) {
	if m.buildReportsFn != nil {
		return m.buildReportsFn(ctx, companyID, opts)
	}
	return &workload.ReportResult{}, nil
}

func (m *mockWorkloadService) BuildReport(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*workload.SingleReportResult, error) {
	if m.buildReportFn != nil {
		return m.buildReportFn(ctx, companyID, periodKey, groupBy, today)
	}
	return &workload.SingleReportResult{}, nil
}

func (m *mockWorkloadService) ListPeriods(today time.Time, count int, unit period.Unit, direction period.Direction) ([]period.Period, error) {
	if m.listPeriodsFn != nil {
		return m.listPeriodsFn(today, count, unit, direction)
	}
	return nil, nil
}

// --- テストヘルパー ---

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- GET /api/reports テスト ---

func TestReportHandler_ListReports_Success(t *testing.T) {
	svc := &mockWorkloadService{
		buildReportsFn: func(ctx context.Context, companyID int64, opts workload.ReportOptions) (*workload.ReportResult, error) {
			if companyID != 1 {
				t.Errorf("companyID = %d, want 1", companyID)
			}
			if opts.Unit != period.UnitWeek {
				t.Errorf("Unit = %q, want week", opts.Unit)
			}
			if opts.GroupBy != report.GroupByCategory {
				t.Errorf("GroupBy = %q, want category", opts.GroupBy)
			}
			if opts.Count != 5 {
				t.Errorf("Count = %d, want 5", opts.Count)
			}
			return &workload.ReportResult{
				Reports: []*report.PeriodReport{{Period: "W11-2024"}},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?company=1&unit=week&group_by=category&count=5", nil)
	w := httptest.NewRecorder()
	h.ListReports(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body workload.ReportResult
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Reports) != 1 || body.Reports[0].Period != "W11-2024" {
		t.Errorf("Reports = %v, want 1 report for W11-2024", body.Reports)
	}
}

func TestReportHandler_ListReports_MissingCompany(t *testing.T) {
	h := NewReportHandler(&mockWorkloadService{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	w := httptest.NewRecorder()
	h.ListReports(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %q, want INVALID_REQUEST", body["code"])
	}
}

func TestReportHandler_ListReports_InvalidGroupBy(t *testing.T) {
	h := NewReportHandler(&mockWorkloadService{})

	req := httptest.NewRequest(http.MethodGet, "/api/reports?company=1&group_by=banana", nil)
	w := httptest.NewRecorder()
	h.ListReports(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeInvalidGroupBy {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidGroupBy)
	}
}

// --- GET /api/reports/{key} テスト ---

func TestReportHandler_GetReport_Success(t *testing.T) {
	svc := &mockWorkloadService{
		buildReportFn: func(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*workload.SingleReportResult, error) {
			if periodKey != "03-2024" {
				t.Errorf("periodKey = %q, want 03-2024", periodKey)
			}
			return &workload.SingleReportResult{
				Report: &report.PeriodReport{Period: periodKey},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/03-2024?company=1", nil)
	req = withChiURLParam(req, "key", "03-2024")
	w := httptest.NewRecorder()
	h.GetReport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestReportHandler_GetReport_InvalidPeriod(t *testing.T) {
	svc := &mockWorkloadService{
		buildReportFn: func(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*workload.SingleReportResult, error) {
			return nil, model.NewInvalidPeriodError(periodKey)
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/banana?company=1", nil)
	req = withChiURLParam(req, "key", "banana")
	w := httptest.NewRecorder()
	h.GetReport(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeInvalidPeriod {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidPeriod)
	}
}

func TestReportHandler_GetReport_CompanyNotFound(t *testing.T) {
	svc := &mockWorkloadService{
		buildReportFn: func(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*workload.SingleReportResult, error) {
			return nil, model.NewCompanyNotFoundError(companyID)
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/03-2024?company=99", nil)
	req = withChiURLParam(req, "key", "03-2024")
	w := httptest.NewRecorder()
	h.GetReport(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

// --- GET /api/periods テスト ---

func TestReportHandler_ListPeriods_Success(t *testing.T) {
	svc := &mockWorkloadService{
		listPeriodsFn: func(today time.Time, count int, unit period.Unit, direction period.Direction) ([]period.Period, error) {
			return []period.Period{
				period.AllTime(),
				{
					Key:   "03-2024",
					Kind:  period.KindRolling,
					Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/periods", nil)
	w := httptest.NewRecorder()
	h.ListPeriods(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body []periodResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len(body) = %d, want 2", len(body))
	}
	if body[0].Key != "total" || body[0].Start != "" {
		t.Errorf("body[0] = %+v, want key total without range", body[0])
	}
	if body[1].Key != "03-2024" || body[1].Start != "2024-03-01" || body[1].End != "2024-03-31" {
		t.Errorf("body[1] = %+v, want 03-2024 with range", body[1])
	}
}

func TestReportHandler_ListPeriods_InvalidCount(t *testing.T) {
	h := NewReportHandler(&mockWorkloadService{})

	req := httptest.NewRequest(http.MethodGet, "/api/periods?count=-1", nil)
	w := httptest.NewRecorder()
	h.ListPeriods(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
