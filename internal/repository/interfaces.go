// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/workman/internal/model"
)

// CompanyRepository は企業データの永続化インターフェース。
type CompanyRepository interface {
	// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Company, error)

	// List は全企業を名前の昇順で返す。
	List(ctx context.Context) ([]*model.Company, error)
}

// EmployeeRepository は従業員データの永続化インターフェース。
type EmployeeRepository interface {
	// FindByID は指定IDの従業員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Employee, error)

	// ListActiveByCompany は企業の有効な従業員を名前の昇順で返す。
	// disabled = true の従業員は含まれない。
	ListActiveByCompany(ctx context.Context, companyID int64) ([]*model.Employee, error)

	// ListActive は全企業の有効な従業員を返す。取得ワーカーの巡回に使用する。
	ListActive(ctx context.Context) ([]*model.Employee, error)
}

// CategoryRepository はプロジェクトカテゴリの永続化インターフェース。
type CategoryRepository interface {
	// ListByCompany は企業の全カテゴリを返す。
	ListByCompany(ctx context.Context, companyID int64) ([]*model.Category, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
// リゾルバのカタログとして機能する。
type ProjectRepository interface {
	// ListByCompany は企業の全プロジェクトを主キーの昇順で返す。
	// リゾルバの候補順序はこの並びに依存するため、順序を変えないこと。
	ListByCompany(ctx context.Context, companyID int64) ([]*model.Project, error)

	// ListAliasesByCompany は企業の全エイリアスを主キーの昇順で返す。
	ListAliasesByCompany(ctx context.Context, companyID int64) ([]*model.Alias, error)

	// Create はプロジェクトを作成しIDを採番して返す。
	// (company_id, normalized_name) の日付なし一意制約と競合した場合は
	// 既存の行を返す。
	Create(ctx context.Context, project *model.Project) (*model.Project, error)

	// CreateAlias はプロジェクトにエイリアスを追加する。
	// 同一プロジェクト内で正規化名が重複する場合は既存の行を返す。
	CreateAlias(ctx context.Context, alias *model.Alias) (*model.Alias, error)
}
