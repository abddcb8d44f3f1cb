// Package report は日次按分と期間集計によるワークロードレポートを提供する。
package report

import (
	"strconv"

	"github.com/hitoshi/workman/internal/model"
)

// GroupBy は集計のグループ化キーの種別を表す。
type GroupBy string

const (
	// GroupByProject はプロジェクトごとの集計。
	GroupByProject GroupBy = "project"
	// GroupByCategory はカテゴリごとの集計。
	GroupByCategory GroupBy = "category"
)

// ParseGroupBy はクエリ文字列からGroupByを解決する。
// 空文字列はGroupByProjectとして扱う。
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "", string(GroupByProject):
		return GroupByProject, nil
	case string(GroupByCategory):
		return GroupByCategory, nil
	}
	return "", model.NewInvalidGroupByError(s)
}

// Distribution は1つのグループ化キーへの1日分の按分結果。
type Distribution struct {
	// Duration は1日のうちこのキーに費やされた割合（日数単位）。
	Duration float64
	// Details は内訳（プロジェクト集計なら副プロジェクト名ごと、
	// カテゴリ集計ならプロジェクトIDごと）の按分値。
	Details map[string]float64
}

// groupKey はイベントのグループ化キーを返す。
// カテゴリ未設定のイベントはカテゴリ集計では "" キーに集まる。
func groupKey(ev model.ResolvedEvent, groupBy GroupBy) string {
	if groupBy == GroupByCategory {
		return ev.Category
	}
	return strconv.FormatInt(ev.ProjectID, 10)
}

// detailKey はイベントの内訳キーを返す。
// プロジェクト集計では副プロジェクト名（なければ空）、
// カテゴリ集計ではプロジェクトIDとなる。
func detailKey(ev model.ResolvedEvent, groupBy GroupBy) string {
	if groupBy == GroupByCategory {
		return strconv.FormatInt(ev.ProjectID, 10)
	}
	return ev.Subproject
}

// DayDistribution は従業員の1カレンダー日分のイベントを、
// グループ化キーごとの日数割合に変換する。
//
// 分母は二重の規則で決まる:
//   - 月給制でその日の合計が閾値以上（完全な1日）なら合計時間。
//     この場合、割合の総和はちょうど1.0になる。
//   - それ以外（不完全な日、または時給制）では既定勤務時間。
//     総和は1.0未満（不完全）にも1.0超（時給制の超過勤務）にもなりうる。
func DayDistribution(events []model.ResolvedEvent, employee *model.Employee, groupBy GroupBy) map[string]Distribution {
	result := make(map[string]Distribution)
	if len(events) == 0 {
		return result
	}

	var total float64
	for _, ev := range events {
		total += ev.Duration
	}

	isFullDay := total >= employee.MinWorkingHoursForFullDay
	divider := float64(employee.DefaultDayWorkingHours)
	if isFullDay && !employee.IsPaidHourly {
		divider = total
	}
	if divider == 0 {
		return result
	}

	for _, ev := range events {
		key := groupKey(ev, groupBy)
		dist, ok := result[key]
		if !ok {
			dist = Distribution{Details: make(map[string]float64)}
		}

		contribution := ev.Duration / divider
		dist.Duration += contribution
		if dk := detailKey(ev, groupBy); dk != "" {
			dist.Details[dk] += contribution
		}
		result[key] = dist
	}

	return result
}

// GroupEventsByDay はイベントをカレンダー日ごとにまとめる。
// 各日の中の順序は入力順を保つ。
func GroupEventsByDay(events []model.ResolvedEvent) map[string][]model.ResolvedEvent {
	byDay := make(map[string][]model.ResolvedEvent)
	for _, ev := range events {
		key := ev.Day.Format("2006-01-02")
		byDay[key] = append(byDay[key], ev)
	}
	return byDay
}
