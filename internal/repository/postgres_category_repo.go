package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/workman/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// ListByCompany は企業の全カテゴリを返す。
func (r *PostgresCategoryRepo) ListByCompany(ctx context.Context, companyID int64) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, company_id, name, color, is_working_time, created_at, updated_at
		 FROM categories WHERE company_id = $1 ORDER BY name ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		category := &model.Category{}
		var color sql.NullString
		if err := rows.Scan(
			&category.ID, &category.CompanyID, &category.Name, &color,
			&category.IsWorkingTime, &category.CreatedAt, &category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("カテゴリ一覧の読み取りに失敗しました: %w", err)
		}
		if color.Valid {
			category.Color = color.String
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の走査に失敗しました: %w", err)
	}
	return categories, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
