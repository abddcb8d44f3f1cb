// Package workload はレポート生成・稼働率計算のドメインロジックを提供する。
// イベント取得 → 期間生成 → 集計のフローを統括する。
package workload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/workman/internal/availability"
	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/period"
	"github.com/hitoshi/workman/internal/report"
	"github.com/hitoshi/workman/internal/repository"
)

// defaultPeriodCount は期間数を指定しない場合のローリング期間数。
const defaultPeriodCount = 10

// EventSource は従業員の解決済みイベント取得のインターフェース。
// キャッシュヒット時はキャッシュから、ミス時は取得にフォールバックする。
type EventSource interface {
	EventsFor(ctx context.Context, employee *model.Employee) ([]model.ResolvedEvent, error)
}

// Service はレポート生成・稼働率計算のサービス層。
type Service struct {
	companyRepo  repository.CompanyRepository
	employeeRepo repository.EmployeeRepository
	events       EventSource
	holidays     availability.HolidayChecker
	logger       *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	companyRepo repository.CompanyRepository,
	employeeRepo repository.EmployeeRepository,
	events EventSource,
	holidays availability.HolidayChecker,
	logger *slog.Logger,
) *Service {
	return &Service{
		companyRepo:  companyRepo,
		employeeRepo: employeeRepo,
		events:       events,
		holidays:     holidays,
		logger:       logger,
	}
}

// ReportOptions はレポート生成のパラメータ。
type ReportOptions struct {
	Count     int
	Unit      period.Unit
	Direction period.Direction
	GroupBy   report.GroupBy
	Today     time.Time
}

// ReportResult は複数期間のレポートと、取得に失敗した従業員の
// 警告メッセージをまとめたもの。1人の失敗はレポート全体を止めない。
type ReportResult struct {
	Reports  []*report.PeriodReport `json:"reports"`
	Warnings []string               `json:"warnings,omitempty"`
}

// BuildReports は企業の全有効従業員のイベントを集計し、
// ローリング期間＋疑似期間のレポート一覧を生成する。
func (s *Service) BuildReports(ctx context.Context, companyID int64, opts ReportOptions) (*ReportResult, error) {
	count := opts.Count
	if count <= 0 {
		count = defaultPeriodCount
	}

	periods, err := period.GenerateWithTotals(opts.Today, count, opts.Unit, opts.Direction)
	if err != nil {
		return nil, err
	}

	sets, warnings, err := s.companyEvents(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return &ReportResult{
		Reports:  report.AggregateAll(sets, periods, opts.GroupBy, opts.Today),
		Warnings: warnings,
	}, nil
}

// SingleReportResult は1期間分のレポートと警告メッセージ。
type SingleReportResult struct {
	Report   *report.PeriodReport `json:"report"`
	Warnings []string             `json:"warnings,omitempty"`
}

// BuildReport は期間キーで指定した1期間のレポートを生成する。
// 不正なキーはErrCodeInvalidPeriodで即座に失敗する。
func (s *Service) BuildReport(ctx context.Context, companyID int64, periodKey string, groupBy report.GroupBy, today time.Time) (*SingleReportResult, error) {
	p, err := period.ParseKey(periodKey, today)
	if err != nil {
		return nil, err
	}

	sets, warnings, err := s.companyEvents(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return &SingleReportResult{
		Report:   report.Aggregate(sets, p, groupBy, today),
		Warnings: warnings,
	}, nil
}

// ListPeriods はレポート画面の期間セレクタ用の期間一覧を返す。
func (s *Service) ListPeriods(today time.Time, count int, unit period.Unit, direction period.Direction) ([]period.Period, error) {
	if count <= 0 {
		count = defaultPeriodCount
	}
	return period.GenerateWithTotals(today, count, unit, direction)
}

// EmployeeAvailability は1人の従業員の稼働可能日数。
type EmployeeAvailability struct {
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	Days         float64 `json:"days"`
}

// AvailabilityResult は企業全体の稼働可能日数の集計。
type AvailabilityResult struct {
	Start     time.Time              `json:"start"`
	End       time.Time              `json:"end"`
	TotalDays float64                `json:"total_days"`
	Employees []EmployeeAvailability `json:"employees"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// Availability は範囲内（両端を含む）の企業全体の稼働可能日数を計算する。
func (s *Service) Availability(ctx context.Context, companyID int64, start, end time.Time) (*AvailabilityResult, error) {
	if end.Before(start) {
		return nil, model.NewInvalidDateRangeError("終了日が開始日より前です")
	}

	sets, warnings, err := s.companyEvents(ctx, companyID)
	if err != nil {
		return nil, err
	}

	result := &AvailabilityResult{
		Start:    start,
		End:      end,
		Warnings: warnings,
	}
	for _, set := range sets {
		days := availability.AvailableDays(set.Employee, set.Events, start, end, s.holidays)
		result.TotalDays += days
		result.Employees = append(result.Employees, EmployeeAvailability{
			EmployeeID:   set.Employee.ID,
			EmployeeName: set.Employee.Name,
			Days:         days,
		})
	}
	return result, nil
}

// DayStates は1人の従業員の範囲内の各日の記録状態を返す。
func (s *Service) DayStates(ctx context.Context, employeeID int64, start, end time.Time) ([]report.DayStateEntry, error) {
	if end.Before(start) {
		return nil, model.NewInvalidDateRangeError("終了日が開始日より前です")
	}

	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("従業員の取得に失敗しました: %w", err)
	}
	if employee == nil {
		return nil, model.NewEmployeeNotFoundError(employeeID)
	}

	events, err := s.events.EventsFor(ctx, employee)
	if err != nil {
		// 取得失敗時は空のイベントで状態を判定する（全日empty）
		s.logger.Warn("イベント取得に失敗しました",
			slog.Int64("employee_id", employee.ID),
			slog.String("error", err.Error()),
		)
		events = nil
	}

	return report.StatesOfDays(events, employee, start, end), nil
}

// companyEvents は企業の全有効従業員とそのイベントを収集する。
// 1人の従業員の取得失敗は警告メッセージとして集め、処理は継続する。
func (s *Service) companyEvents(ctx context.Context, companyID int64) ([]report.EmployeeEvents, []string, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, nil, model.NewCompanyNotFoundError(companyID)
	}

	employees, err := s.employeeRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("従業員一覧の取得に失敗しました: %w", err)
	}

	sets := make([]report.EmployeeEvents, 0, len(employees))
	var warnings []string
	for _, employee := range employees {
		events, err := s.events.EventsFor(ctx, employee)
		if err != nil {
			warnings = append(warnings, err.Error())
			s.logger.Warn("イベント取得に失敗しました",
				slog.Int64("employee_id", employee.ID),
				slog.String("error", err.Error()),
			)
			events = nil
		}
		sets = append(sets, report.EmployeeEvents{Employee: employee, Events: events})
	}
	return sets, warnings, nil
}
