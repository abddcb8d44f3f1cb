// Package model はドメインモデルを定義する。
package model

import "time"

// RawEvent はカレンダーから取り込んだ1件の時間ブロックを表す。
// 複数日にまたがるイベントはカレンダー取得側で1日1件に分割済みであり、
// Durationはその日の区間の時間数（最大24）となる。
// 取得のたびに生成され、集計後に破棄される一時データ。
type RawEvent struct {
	EmployeeID   int64
	EmployeeName string

	// Label はサマリーの最初の " - " より前の部分（角括弧の副プロジェクト
	// 指定を含む場合がある）。
	Label string

	// Subproject はラベル末尾の "[xxx]" から取り出した小文字・トリム済みの
	// 副プロジェクト名。なければ空文字列。
	Subproject string

	// Day はイベントが属するカレンダー日（UTC 0時に正規化）。
	Day time.Time

	Start time.Time
	End   time.Time

	// Duration はこの日の区間の時間数。24を上限とする。
	Duration float64
}

// ResolvedEvent はプロジェクト解決済みのイベント。
// リゾルバがRawEventごとに1回生成し、以後は不変として扱う。
type ResolvedEvent struct {
	RawEvent

	ProjectID   int64
	ProjectName string

	// Category はプロジェクトのカテゴリ名。未分類の場合は空文字列。
	Category string

	// CategoryWorkingTime はカテゴリのis_working_timeフラグの写し。
	// 非稼働カテゴリの除外判断は利用側が行う。
	CategoryWorkingTime bool
}

// AuditEntry は集計結果に寄与したイベントの監査証跡。
type AuditEntry struct {
	Employee string    `json:"employee"`
	Date     time.Time `json:"date"`
	Duration float64   `json:"duration"`
}
