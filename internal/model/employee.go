// Package model はドメインモデルを定義する。
package model

import "time"

// Employee は時間追跡の対象となる従業員を表す。
// 勤務曜日フラグと勤務時間設定は1回の集計実行中は読み取り専用として扱う。
type Employee struct {
	ID          int64
	CompanyID   int64
	Name        string
	CalendarURL string

	// DefaultDayWorkingHours は1日の既定勤務時間（0〜24）。
	// 不完全な日の按分計算の分母に使用される。
	DefaultDayWorkingHours int

	// MinWorkingHoursForFullDay はこの時間以上の記録がある日を
	// 「完全な1日」とみなす閾値。
	MinWorkingHoursForFullDay float64

	// IsPaidHourly は時給制かどうか。時給制の場合、按分の分母は
	// 常にDefaultDayWorkingHoursとなる（超過勤務は1.0を超える）。
	IsPaidHourly bool

	// WorksDay1〜WorksDay7 は月曜〜日曜の勤務曜日フラグ。
	WorksDay1 bool
	WorksDay2 bool
	WorksDay3 bool
	WorksDay4 bool
	WorksDay5 bool
	WorksDay6 bool
	WorksDay7 bool

	// StartTrackingFrom より前のイベントは取り込まない。
	StartTrackingFrom time.Time
	// EndTrackingOn が設定されている場合、それ以降は追跡対象外。
	EndTrackingOn *time.Time

	Disabled  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorksOn は指定された曜日が勤務日かどうかを返す。
func (e *Employee) WorksOn(weekday time.Weekday) bool {
	switch weekday {
	case time.Monday:
		return e.WorksDay1
	case time.Tuesday:
		return e.WorksDay2
	case time.Wednesday:
		return e.WorksDay3
	case time.Thursday:
		return e.WorksDay4
	case time.Friday:
		return e.WorksDay5
	case time.Saturday:
		return e.WorksDay6
	case time.Sunday:
		return e.WorksDay7
	}
	return false
}

// IsTracking は指定日時点で時間追跡の対象かどうかを返す。
func (e *Employee) IsTracking(day time.Time) bool {
	if e.Disabled {
		return false
	}
	if day.Before(e.StartTrackingFrom) {
		return false
	}
	if e.EndTrackingOn != nil && day.After(*e.EndTrackingOn) {
		return false
	}
	return true
}
