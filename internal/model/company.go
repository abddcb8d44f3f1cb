// Package model はドメインモデルを定義する。
package model

import "time"

// Company は従業員・プロジェクト・カテゴリを所有する企業を表す。
// 勤務時間ポリシーの既定値と日割りの金額設定を保持する。
type Company struct {
	ID                        int64
	Name                      string
	DefaultDayWorkingHours    int
	MinWorkingHoursForFullDay float64
	DailyEmployeeCost         float64
	DailyMarketPrice          float64
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// Category はプロジェクトの分類を表す。
// IsWorkingTimeがfalseのカテゴリ（休暇等）はレポートには現れるが、
// 「稼働時間」集計から除外するかどうかは利用側の判断に委ねる。
type Category struct {
	ID            int64
	CompanyID     int64
	Name          string
	Color         string
	IsWorkingTime bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
