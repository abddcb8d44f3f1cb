package report

import (
	"sort"
	"time"

	"github.com/hitoshi/workman/internal/model"
)

// DayState は1日の記録状態を表す。
type DayState string

const (
	// DayStateEmpty はイベントが1件もない日。
	DayStateEmpty DayState = "empty"
	// DayStateIncomplete は合計が閾値未満の日。
	DayStateIncomplete DayState = "incomplete"
	// DayStateComplete は合計が閾値以上の日。
	DayStateComplete DayState = "complete"
)

// StateOfDay は1日分のイベントから記録状態を判定する。
// 閾値には従業員のmin_working_hours_for_full_dayを使用する。
func StateOfDay(events []model.ResolvedEvent, employee *model.Employee) DayState {
	if len(events) == 0 {
		return DayStateEmpty
	}
	var total float64
	for _, ev := range events {
		total += ev.Duration
	}
	if total == 0 {
		return DayStateEmpty
	}
	if total < employee.MinWorkingHoursForFullDay {
		return DayStateIncomplete
	}
	return DayStateComplete
}

// DayStateEntry は1日分の状態とイベントをまとめたもの。
type DayStateEntry struct {
	Date     time.Time             `json:"date"`
	State    DayState              `json:"state"`
	Duration float64               `json:"duration"`
	Events   []model.ResolvedEvent `json:"events"`
}

// StatesOfDays は範囲内の各日（両端を含む）の記録状態を返す。
// イベントのない日も含める。
func StatesOfDays(events []model.ResolvedEvent, employee *model.Employee, start, end time.Time) []DayStateEntry {
	byDay := GroupEventsByDay(events)

	var entries []DayStateEntry
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dayEvents := byDay[day.Format("2006-01-02")]
		var total float64
		for _, ev := range dayEvents {
			total += ev.Duration
		}
		entries = append(entries, DayStateEntry{
			Date:     day,
			State:    StateOfDay(dayEvents, employee),
			Duration: total,
			Events:   dayEvents,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries
}
