package report

import (
	"sort"
	"time"

	"github.com/hitoshi/workman/internal/model"
	"github.com/hitoshi/workman/internal/period"
)

// EmployeeEvents は1人の従業員とその解決済みイベントの組。
// 集計はこのスライスの順に走査するため、結果の同値順は入力順で決まる。
type EmployeeEvents struct {
	Employee *model.Employee
	Events   []model.ResolvedEvent
}

// GroupTotal は1つのグループ化キーの期間合計。
type GroupTotal struct {
	// Duration は期間中に費やされた日数の合計。
	Duration float64 `json:"duration"`
	// Events は寄与したイベントの監査証跡。
	Events []model.AuditEntry `json:"events"`
	// Subprojects は内訳キーごとの日数小計。
	Subprojects map[string]float64 `json:"subprojects"`
	// Name は表示用の名前（プロジェクト名またはカテゴリ名）。
	Name string `json:"name"`
	// IsWorkingTime はカテゴリの稼働時間フラグ（助言的、強制はしない）。
	IsWorkingTime bool `json:"is_working_time"`
}

// PeriodReport は1期間分の集計結果。
// Orderは累積日数の降順で並んだグループ化キーのリスト。
type PeriodReport struct {
	Period string                 `json:"period"`
	Order  []string               `json:"order"`
	Values map[string]*GroupTotal `json:"values"`
}

// getOrCreate はキーに対応する集計バケツを取得し、なければ作成する。
// 読み取りの副作用でキーが生えることを避けるため、作成はここに限定する。
func (r *PeriodReport) getOrCreate(key string) *GroupTotal {
	if total, ok := r.Values[key]; ok {
		return total
	}
	total := &GroupTotal{Subprojects: make(map[string]float64)}
	r.Values[key] = total
	return total
}

// Aggregate は複数従業員のイベントを1つの期間に畳み込む。
//
// 期間のフィルタ（日付範囲、またはdone/todo述語）を適用し、
// 従業員×日ごとにDayDistributionを実行して、グループ化キーごとに
// 日数・内訳・監査証跡を積み上げる。過去と未来で別のコードパスは
// 存在せず、期間の範囲とフィルタだけが異なる。
func Aggregate(sets []EmployeeEvents, p period.Period, groupBy GroupBy, today time.Time) *PeriodReport {
	result := &PeriodReport{
		Period: p.Key,
		Values: make(map[string]*GroupTotal),
	}

	for _, set := range sets {
		filtered := make([]model.ResolvedEvent, 0, len(set.Events))
		for _, ev := range set.Events {
			if p.Contains(ev.Day, ev.End, today) {
				filtered = append(filtered, ev)
			}
		}
		if len(filtered) == 0 {
			continue
		}

		byDay := GroupEventsByDay(filtered)
		dayKeys := make([]string, 0, len(byDay))
		for day := range byDay {
			dayKeys = append(dayKeys, day)
		}
		sort.Strings(dayKeys)

		for _, dayKey := range dayKeys {
			dayEvents := byDay[dayKey]
			distribution := DayDistribution(dayEvents, set.Employee, groupBy)

			// 1日の中のキー順も決定的にする
			keys := make([]string, 0, len(distribution))
			for key := range distribution {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				dist := distribution[key]
				total := result.getOrCreate(key)
				total.Duration += dist.Duration
				for sub, d := range dist.Details {
					total.Subprojects[sub] += d
				}
				total.Events = append(total.Events, model.AuditEntry{
					Employee: set.Employee.Name,
					Date:     dayEvents[0].Day,
					Duration: dist.Duration,
				})
				fillDisplayFields(total, dayEvents, key, groupBy)
			}
		}
	}

	// 累積日数の降順。同値はキーの昇順で安定させる。
	result.Order = make([]string, 0, len(result.Values))
	for key := range result.Values {
		result.Order = append(result.Order, key)
	}
	sort.SliceStable(result.Order, func(i, j int) bool {
		a, b := result.Order[i], result.Order[j]
		if result.Values[a].Duration != result.Values[b].Duration {
			return result.Values[a].Duration > result.Values[b].Duration
		}
		return a < b
	})

	return result
}

// fillDisplayFields は表示名とカテゴリフラグをイベントから補完する。
func fillDisplayFields(total *GroupTotal, dayEvents []model.ResolvedEvent, key string, groupBy GroupBy) {
	if total.Name != "" {
		return
	}
	for _, ev := range dayEvents {
		if groupKey(ev, groupBy) != key {
			continue
		}
		if groupBy == GroupByCategory {
			total.Name = ev.Category
		} else {
			total.Name = ev.ProjectName
		}
		total.IsWorkingTime = ev.CategoryWorkingTime
		return
	}
}

// AggregateAll は複数期間それぞれに対してAggregateを実行する。
func AggregateAll(sets []EmployeeEvents, periods []period.Period, groupBy GroupBy, today time.Time) []*PeriodReport {
	reports := make([]*PeriodReport, 0, len(periods))
	for _, p := range periods {
		reports = append(reports, Aggregate(sets, p, groupBy, today))
	}
	return reports
}
