// Package availability は期間内の従業員の空き日数計算を提供する。
package availability

import (
	"time"

	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/report"
)

// HolidayChecker は日付が祝日かどうかを判定する。
type HolidayChecker interface {
	IsHoliday(day time.Time) bool
}

// AvailableDays は [start, end] の各勤務日について
// max(既定勤務時間 - その日の実時間数, 0) / 既定勤務時間
// を加算した空き日数を返す。
//
// 従業員の勤務曜日でない日、祝日、トラッキング対象外の日は対象から
// 除外される。既定勤務時間を超えて埋まった日の寄与は0であり、
// 負になることはない。
func AvailableDays(employee *model.Employee, events []model.ResolvedEvent, start, end time.Time, holidays HolidayChecker) float64 {
	byDay := report.GroupEventsByDay(events)
	workingHours := float64(employee.DefaultDayWorkingHours)

	total := 0.0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !employee.WorksOn(day.Weekday()) {
			continue
		}
		if holidays != nil && holidays.IsHoliday(day) {
			continue
		}
		if !employee.IsTracking(day) {
			continue
		}

		busy := 0.0
		for _, ev := range byDay[day.Format("2006-01-02")] {
			busy += ev.Duration
		}
		free := workingHours - busy
		if free < 0 {
			free = 0
		}
		total += free / workingHours
	}
	return total
}
