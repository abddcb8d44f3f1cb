// Package model はドメインモデルを定義する。
package model

import "time"

// Project はカレンダーのラベルが紐づく先となるプロジェクトを表す。
// 同名プロジェクトを期間で区別するため、開始日・終了日を任意で持つ。
// (normalized_name, company_id, start_date) の一意性は永続化層の制約で
// 保証され、リゾルバは自動作成時にこの制約を侵さないこと。
type Project struct {
	ID        int64
	CompanyID int64
	Name      string

	// NormalizedName は小文字化・ダイアクリティカルマーク除去・トリム済みの
	// 名前。カレンダーラベルとの等価比較はすべてこのキーで行う。
	NormalizedName string

	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoversDate はプロジェクトの期間が指定日を含むかどうかを返す。
// dayがゼロ値の場合、日付制約を持つプロジェクトは対象外となる。
func (p *Project) CoversDate(day time.Time) bool {
	if day.IsZero() {
		return p.StartDate == nil && p.EndDate == nil
	}
	if p.StartDate != nil && day.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && day.After(*p.EndDate) {
		return false
	}
	return true
}

// Alias はプロジェクトへの二次的なラベルを表す弱参照。
// エイリアス名で記録された時間はすべて所有プロジェクトに合算され、
// レポート上で独立した存在とはならない。
type Alias struct {
	ID             int64
	ProjectID      int64
	Name           string
	NormalizedName string
	CreatedAt      time.Time
}
