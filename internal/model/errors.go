// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, calendar, report, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidPeriod       = "INVALID_PERIOD"
	ErrCodeInvalidGroupBy      = "INVALID_GROUP_BY"
	ErrCodeInvalidDateRange    = "INVALID_DATE_RANGE"
	ErrCodeCompanyNotFound     = "COMPANY_NOT_FOUND"
	ErrCodeEmployeeNotFound    = "EMPLOYEE_NOT_FOUND"
	ErrCodeCalendarFetchFailed = "CALENDAR_FETCH_FAILED"
	ErrCodeCalendarParseFailed = "CALENDAR_PARSE_FAILED"
)

// NewInvalidPeriodError は不正な期間キーのエラーを生成する。
// 期間キーの不正は呼び出し側の設定ミスを示すため、即座に失敗させる。
func NewInvalidPeriodError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPeriod,
		Message:  fmt.Sprintf("無効な期間キーです: %s", key),
		Category: "validation",
		Action:   "期間キーには MM-YYYY、Wnn-YYYY、または total 系のキーを指定してください。",
	}
}

// NewInvalidGroupByError は不正なグループ化指定のエラーを生成する。
func NewInvalidGroupByError(groupBy string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidGroupBy,
		Message:  fmt.Sprintf("無効なグループ化指定です: %s", groupBy),
		Category: "validation",
		Action:   "group_by には project または category を指定してください。",
	}
}

// NewInvalidDateRangeError は不正な日付範囲のエラーを生成する。
func NewInvalidDateRangeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  fmt.Sprintf("無効な日付範囲です: %s", reason),
		Category: "validation",
		Action:   "start と end をYYYY-MM-DD形式で、start <= end となるように指定してください。",
	}
}

// NewCompanyNotFoundError は企業が見つからない場合のエラーを生成する。
func NewCompanyNotFoundError(companyID int64) *APIError {
	return &APIError{
		Code:     ErrCodeCompanyNotFound,
		Message:  fmt.Sprintf("指定された企業が見つかりません: %d", companyID),
		Category: "validation",
		Action:   "企業IDを確認してください。",
	}
}

// NewEmployeeNotFoundError は従業員が見つからない場合のエラーを生成する。
func NewEmployeeNotFoundError(employeeID int64) *APIError {
	return &APIError{
		Code:     ErrCodeEmployeeNotFound,
		Message:  fmt.Sprintf("指定された従業員が見つかりません: %d", employeeID),
		Category: "validation",
		Action:   "従業員IDを確認してください。",
	}
}

// NewCalendarFetchError はカレンダー取得失敗のエラーを生成する。
// 1人の従業員の取得失敗は集計全体を中断せず、その従業員は空のイベント
// リストとして扱ったうえでこのメッセージを呼び出し側に伝える。
func NewCalendarFetchError(employeeName string) *APIError {
	return &APIError{
		Code:     ErrCodeCalendarFetchFailed,
		Message:  fmt.Sprintf("%s のカレンダーを取得できませんでした。設定が誤っている可能性があります。", employeeName),
		Category: "calendar",
		Action:   "カレンダー設定の「iCal形式の非公開URL」が正しく設定されているか確認してください。",
	}
}

// NewCalendarParseError はカレンダー解析失敗のエラーを生成する。
func NewCalendarParseError(employeeName string) *APIError {
	return &APIError{
		Code:     ErrCodeCalendarParseFailed,
		Message:  fmt.Sprintf("%s のカレンダーを解析できませんでした。", employeeName),
		Category: "calendar",
		Action:   "カレンダーURLが有効なiCalendarデータを返しているか確認してください。",
	}
}
