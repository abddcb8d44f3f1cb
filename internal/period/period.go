// Package period は集計の単位となるカレンダー期間を提供する。
// 期間は値オブジェクトであり、リクエストごとに再計算され、永続化されない。
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/workman/internal/model"
)

// Unit はローリング期間の単位を表す。
type Unit string

const (
	// UnitWeek は週単位（月曜始まり）。
	UnitWeek Unit = "week"
	// UnitMonth は月単位（1日始まり）。
	UnitMonth Unit = "month"
)

// Direction はローリング期間の方向を表す。
type Direction string

const (
	// DirectionPast は過去方向。
	DirectionPast Direction = "past"
	// DirectionFuture は未来方向。
	DirectionFuture Direction = "future"
)

// Kind は期間の種別を表す。
// 文字列プレフィックスの再解析を繰り返す代わりに、構築時に1回だけ
// 種別を解決する。
type Kind int

const (
	// KindRolling は開始日・終了日を持つ通常のカレンダー期間。
	KindRolling Kind = iota
	// KindAllTime は全期間（日付制約なし）。
	KindAllTime
	// KindYearTotal は暦年で区切った疑似期間。
	KindYearTotal
)

// DoneFilter は疑似期間に適用する実施済み/予定フィルタを表す。
// 日付範囲ではなく、イベントの終了時刻が「今日」より前か以後かで
// 判定する述語である。
type DoneFilter int

const (
	// FilterNone はフィルタなし。
	FilterNone DoneFilter = iota
	// FilterDone は終了時刻が今日より前のイベントのみ。
	FilterDone
	// FilterTodo は終了時刻が今日以後のイベントのみ。
	FilterTodo
)

// Period は集計のキーとなる期間の値オブジェクト。
type Period struct {
	Key  string
	Kind Kind

	// Start・End はKindRollingの場合のみ有効（両端を含む）。
	Start time.Time
	End   time.Time

	// Year はKindYearTotalの場合のみ有効。
	Year int

	Filter DoneFilter
}

// Contains はイベントがこの期間に属するかどうかを返す。
// dayはイベントのカレンダー日、endはイベントの終了時刻、todayは判定基準日。
// 疑似期間のdone/todoフィルタは日付範囲ではなく終了時刻で判定する。
func (p Period) Contains(day, end, today time.Time) bool {
	switch p.Kind {
	case KindRolling:
		return !day.Before(p.Start) && !day.After(p.End)
	case KindAllTime:
		return p.matchesFilter(end, today)
	case KindYearTotal:
		if day.Year() != p.Year {
			return false
		}
		return p.matchesFilter(end, today)
	}
	return false
}

func (p Period) matchesFilter(end, today time.Time) bool {
	switch p.Filter {
	case FilterDone:
		return end.Before(today)
	case FilterTodo:
		return !end.Before(today)
	}
	return true
}

// startOfWeek は日付を含む週の月曜0時を返す。
func startOfWeek(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // 日曜
	}
	d := day.AddDate(0, 0, -(weekday - 1))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfMonth は日付を含む月の1日0時を返す。
func startOfMonth(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// keyFor は期間開始日からキー文字列を生成する。
// 月は "MM-YYYY"。週は年をまたいでも一意になるよう "Wnn-YYYY" とする
// （年はISO週年であり、暦年とは年末年始で異なることがある）。
func keyFor(start time.Time, unit Unit) string {
	if unit == UnitMonth {
		return fmt.Sprintf("%02d-%04d", int(start.Month()), start.Year())
	}
	isoYear, isoWeek := start.ISOWeek()
	return fmt.Sprintf("W%02d-%04d", isoWeek, isoYear)
}

// Generate は今日を起点としたn個のローリング期間を返す。
// 起点は現在の単位の開始（週は月曜、月は1日）。i番目の期間は起点から
// i単位シフトした開始日を持ち、終了日は次の期間開始の前日（週は+6日）。
func Generate(today time.Time, n int, unit Unit, direction Direction) ([]Period, error) {
	if unit != UnitWeek && unit != UnitMonth {
		return nil, model.NewInvalidPeriodError(string(unit))
	}
	if direction != DirectionPast && direction != DirectionFuture {
		return nil, model.NewInvalidPeriodError(string(direction))
	}
	if n <= 0 {
		return nil, model.NewInvalidPeriodError(fmt.Sprintf("n=%d", n))
	}

	var anchor time.Time
	if unit == UnitMonth {
		anchor = startOfMonth(today)
	} else {
		anchor = startOfWeek(today)
	}

	sign := 1
	if direction == DirectionPast {
		sign = -1
	}

	periods := make([]Period, 0, n)
	for i := 0; i < n; i++ {
		var start, next time.Time
		if unit == UnitMonth {
			start = anchor.AddDate(0, sign*i, 0)
			next = start.AddDate(0, 1, 0)
		} else {
			start = anchor.AddDate(0, 0, sign*i*7)
			next = start.AddDate(0, 0, 7)
		}
		periods = append(periods, Period{
			Key:   keyFor(start, unit),
			Kind:  KindRolling,
			Start: start,
			End:   next.AddDate(0, 0, -1),
		})
	}
	return periods, nil
}

// AllTime は全期間の疑似期間を返す。
func AllTime() Period {
	return Period{Key: "total", Kind: KindAllTime}
}

// AllTimeDone は実施済みの全期間疑似期間を返す。
func AllTimeDone() Period {
	return Period{Key: "total-done", Kind: KindAllTime, Filter: FilterDone}
}

// AllTimeTodo は予定の全期間疑似期間を返す。
func AllTimeTodo() Period {
	return Period{Key: "total-todo", Kind: KindAllTime, Filter: FilterTodo}
}

// YearTotal は暦年で区切った疑似期間を返す。
func YearTotal(year int, filter DoneFilter) Period {
	key := fmt.Sprintf("total-%04d", year)
	switch filter {
	case FilterDone:
		key += "-done"
	case FilterTodo:
		key += "-todo"
	}
	return Period{Key: key, Kind: KindYearTotal, Year: year, Filter: filter}
}

// GenerateWithTotals はローリング期間に全期間疑似期間と対象各年の
// 疑似期間を加えたリストを返す。レポート一覧画面が使用する。
func GenerateWithTotals(today time.Time, n int, unit Unit, direction Direction) ([]Period, error) {
	periods, err := Generate(today, n, unit, direction)
	if err != nil {
		return nil, err
	}

	result := []Period{AllTime(), AllTimeDone(), AllTimeTodo()}
	years := map[int]bool{}
	for _, p := range periods {
		for _, y := range []int{p.Start.Year(), p.End.Year()} {
			if !years[y] {
				years[y] = true
				result = append(result,
					YearTotal(y, FilterNone),
					YearTotal(y, FilterDone),
					YearTotal(y, FilterTodo),
				)
			}
		}
	}
	return append(result, periods...), nil
}

// ParseKey は期間キー文字列をPeriodに解決する。
// "total" プレフィックスの疑似期間を先に判定し、その後に
// 日付範囲キー（"MM-YYYY"、"Wnn-YYYY"）の解析を試みる。
// 不正なキーはErrCodeInvalidPeriodのAPIErrorで即座に失敗する。
func ParseKey(key string, today time.Time) (Period, error) {
	key = strings.TrimSpace(key)
	// 歴史的経緯でアンダースコア区切り（"total_done"等）も受け付ける
	canonical := strings.ReplaceAll(key, "_", "-")

	if strings.HasPrefix(canonical, "total") {
		return parseTotalKey(key, canonical)
	}

	if rest, ok := strings.CutPrefix(canonical, "W"); ok {
		return parseWeekKey(key, rest)
	}

	return parseMonthKey(key, canonical)
}

// parseTotalKey は "total"、"total-done"、"total-todo"、
// "total-<year>"、"total-<year>-done"、"total-<year>-todo" を解析する。
func parseTotalKey(original, canonical string) (Period, error) {
	parts := strings.Split(canonical, "-")
	if parts[0] != "total" {
		return Period{}, model.NewInvalidPeriodError(original)
	}

	switch len(parts) {
	case 1:
		return AllTime(), nil
	case 2:
		switch parts[1] {
		case "done":
			return AllTimeDone(), nil
		case "todo":
			return AllTimeTodo(), nil
		}
		year, err := strconv.Atoi(parts[1])
		if err != nil || year < 1 {
			return Period{}, model.NewInvalidPeriodError(original)
		}
		return YearTotal(year, FilterNone), nil
	case 3:
		year, err := strconv.Atoi(parts[1])
		if err != nil || year < 1 {
			return Period{}, model.NewInvalidPeriodError(original)
		}
		switch parts[2] {
		case "done":
			return YearTotal(year, FilterDone), nil
		case "todo":
			return YearTotal(year, FilterTodo), nil
		}
	}
	return Period{}, model.NewInvalidPeriodError(original)
}

// parseWeekKey は "Wnn-YYYY" 形式のキーを解析する。
// ISO週番号と週年から該当週の月曜を探索する。
func parseWeekKey(original, rest string) (Period, error) {
	parts := strings.Split(rest, "-")
	if len(parts) != 2 {
		return Period{}, model.NewInvalidPeriodError(original)
	}
	week, err := strconv.Atoi(parts[0])
	if err != nil || week < 1 || week > 53 {
		return Period{}, model.NewInvalidPeriodError(original)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1 {
		return Period{}, model.NewInvalidPeriodError(original)
	}

	// 1月4日は常にISO第1週に属する
	start := startOfWeek(time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC))
	start = start.AddDate(0, 0, (week-1)*7)
	if isoYear, isoWeek := start.ISOWeek(); isoYear != year || isoWeek != week {
		return Period{}, model.NewInvalidPeriodError(original)
	}

	return Period{
		Key:   fmt.Sprintf("W%02d-%04d", week, year),
		Kind:  KindRolling,
		Start: start,
		End:   start.AddDate(0, 0, 6),
	}, nil
}

// parseMonthKey は "MM-YYYY" 形式のキーを解析する。
func parseMonthKey(original, canonical string) (Period, error) {
	parts := strings.Split(canonical, "-")
	if len(parts) != 2 {
		return Period{}, model.NewInvalidPeriodError(original)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return Period{}, model.NewInvalidPeriodError(original)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1 {
		return Period{}, model.NewInvalidPeriodError(original)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Key:   fmt.Sprintf("%02d-%04d", month, year),
		Kind:  KindRolling,
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}, nil
}
