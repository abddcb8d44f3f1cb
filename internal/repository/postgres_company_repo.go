package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/workman/internal/model"
)

// PostgresCompanyRepo はPostgreSQLを使用した企業リポジトリ。
type PostgresCompanyRepo struct {
	db *sql.DB
}

// NewPostgresCompanyRepo はPostgresCompanyRepoを生成する。
func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByID(ctx context.Context, id int64) (*model.Company, error) {
	company := &model.Company{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, default_day_working_hours, min_working_hours_for_full_day,
		        daily_employee_cost, daily_market_price, created_at, updated_at
		 FROM companies WHERE id = $1`,
		id,
	).Scan(
		&company.ID, &company.Name,
		&company.DefaultDayWorkingHours, &company.MinWorkingHoursForFullDay,
		&company.DailyEmployeeCost, &company.DailyMarketPrice,
		&company.CreatedAt, &company.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	return company, nil
}

// List は全企業を名前の昇順で返す。
func (r *PostgresCompanyRepo) List(ctx context.Context) ([]*model.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, default_day_working_hours, min_working_hours_for_full_day,
		        daily_employee_cost, daily_market_price, created_at, updated_at
		 FROM companies ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("企業一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var companies []*model.Company
	for rows.Next() {
		company := &model.Company{}
		if err := rows.Scan(
			&company.ID, &company.Name,
			&company.DefaultDayWorkingHours, &company.MinWorkingHoursForFullDay,
			&company.DailyEmployeeCost, &company.DailyMarketPrice,
			&company.CreatedAt, &company.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("企業一覧の読み取りに失敗しました: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("企業一覧の走査に失敗しました: %w", err)
	}
	return companies, nil
}

// compile-time interface check
var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
