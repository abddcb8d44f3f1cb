// Package calendar はiCalendarデータの取得とイベントへの変換を提供する。
package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/hitoshi/workman/internal/model"
)

// 終了時刻のないイベントに与える既定の長さ。
const defaultEventLength = time.Hour

// Parse はiCalendarデータを従業員のRawEventに変換する。
//
// 概要欄が空、または "!" で始まるイベントは記録対象外として捨てる。
// 複数日にまたがるイベントはカレンダー日ごとに分割し、1日あたりの
// 時間は24時間を上限とする。従業員のトラッキング対象外の日に
// 落ちた分は除外される。
func Parse(data []byte, employee *model.Employee) ([]model.RawEvent, error) {
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("iCalendarデータの解析に失敗: %w", err)
	}

	var events []model.RawEvent
	for _, v := range cal.Events() {
		summary := propertyValue(v, ics.ComponentPropertySummary)
		summary = strings.TrimSpace(summary)
		if summary == "" || strings.HasPrefix(summary, "!") {
			continue
		}

		start, err := v.GetStartAt()
		if err != nil {
			continue
		}
		end, err := v.GetEndAt()
		if err != nil {
			end = start.Add(defaultEventLength)
		}
		if !end.After(start) {
			end = start.Add(defaultEventLength)
		}

		label, subproject := splitSummary(summary)

		for _, seg := range splitByDay(start, end) {
			day := utcDay(seg.day)
			if !employee.IsTracking(day) {
				continue
			}
			events = append(events, model.RawEvent{
				EmployeeID:   employee.ID,
				EmployeeName: employee.Name,
				Label:        label,
				Subproject:   subproject,
				Day:          day,
				Start:        seg.start,
				End:          seg.end,
				Duration:     seg.hours,
			})
		}
	}
	return events, nil
}

// propertyValue はVEVENTのプロパティ値を返す。未設定なら空文字列。
func propertyValue(v *ics.VEvent, prop ics.ComponentProperty) string {
	p := v.GetProperty(prop)
	if p == nil {
		return ""
	}
	return p.Value
}

// splitSummary は概要欄をラベルと副プロジェクト名に分解する。
// 最初の " - " より前をラベルとし、角括弧があれば副プロジェクトとして
// 小文字化して取り出す（例: "Acme [Backend] - 定例" → ("Acme", "backend")）。
func splitSummary(summary string) (label, subproject string) {
	label = summary
	if idx := strings.Index(label, " - "); idx >= 0 {
		label = label[:idx]
	}

	open := strings.Index(label, "[")
	end := strings.Index(label, "]")
	if open >= 0 && end > open {
		subproject = strings.ToLower(strings.TrimSpace(label[open+1 : end]))
		label = label[:open] + label[end+1:]
	}
	return strings.TrimSpace(label), subproject
}

// segment は1カレンダー日に切り出されたイベント区間。
type segment struct {
	day   time.Time
	start time.Time
	end   time.Time
	hours float64
}

// splitByDay は [start, end) をカレンダー日単位の区間に分割する。
// 各区間の時間数は24を上限とする。
func splitByDay(start, end time.Time) []segment {
	var segs []segment
	day := truncateToDay(start)
	for day.Before(end) {
		next := day.AddDate(0, 0, 1)

		segStart := start
		if day.After(segStart) {
			segStart = day
		}
		segEnd := end
		if next.Before(segEnd) {
			segEnd = next
		}

		hours := segEnd.Sub(segStart).Hours()
		if hours > 24 {
			hours = 24
		}
		if hours > 0 {
			segs = append(segs, segment{day: day, start: segStart, end: segEnd, hours: hours})
		}
		day = next
	}
	return segs
}

// truncateToDay はイベント自身のタイムゾーンにおけるその日の0時を返す。
// 日またぎの分割境界に使う。
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// utcDay はローカル日付の成分を保ったままUTC 0時に正規化する。
// 期間判定はUTC基準の日付と比較するため、Dayはここで揃える。
func utcDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
