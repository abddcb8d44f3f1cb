package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/workman/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// ListByCompany は企業の全プロジェクトを主キーの昇順で返す。
func (r *PostgresProjectRepo) ListByCompany(ctx context.Context, companyID int64) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, company_id, name, normalized_name, start_date, end_date,
		        category_id, created_at, updated_at
		 FROM projects WHERE company_id = $1 ORDER BY id ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		project, err := scanProject(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("プロジェクト一覧の読み取りに失敗しました: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// scanProject は1行をプロジェクトに読み取る。
func scanProject(scan func(dest ...any) error) (*model.Project, error) {
	project := &model.Project{}
	var startDate, endDate sql.NullTime
	var categoryID sql.NullInt64

	err := scan(
		&project.ID, &project.CompanyID, &project.Name, &project.NormalizedName,
		&startDate, &endDate, &categoryID,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startDate.Valid {
		t := startDate.Time
		project.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		project.EndDate = &t
	}
	if categoryID.Valid {
		id := categoryID.Int64
		project.CategoryID = &id
	}
	return project, nil
}

// ListAliasesByCompany は企業の全エイリアスを主キーの昇順で返す。
func (r *PostgresProjectRepo) ListAliasesByCompany(ctx context.Context, companyID int64) ([]*model.Alias, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.project_id, a.name, a.normalized_name, a.created_at
		 FROM aliases a
		 INNER JOIN projects p ON a.project_id = p.id
		 WHERE p.company_id = $1
		 ORDER BY a.id ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("エイリアス一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var aliases []*model.Alias
	for rows.Next() {
		alias := &model.Alias{}
		if err := rows.Scan(
			&alias.ID, &alias.ProjectID, &alias.Name, &alias.NormalizedName, &alias.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("エイリアス一覧の読み取りに失敗しました: %w", err)
		}
		aliases = append(aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("エイリアス一覧の走査に失敗しました: %w", err)
	}
	return aliases, nil
}

// Create はプロジェクトを作成しIDを採番して返す。
//
// 日付なしプロジェクトは (company_id, normalized_name) の部分一意
// インデックスで保護されている。並行する自動作成が競合した場合は
// 重複を作らず、先に作成された行を取得して返す。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) (*model.Project, error) {
	created := *project
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO projects (company_id, name, normalized_name, start_date, end_date, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT DO NOTHING
		 RETURNING id, created_at, updated_at`,
		project.CompanyID, project.Name, project.NormalizedName,
		nullTimePtr(project.StartDate), nullTimePtr(project.EndDate),
		nullInt64Ptr(project.CategoryID),
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if err == sql.ErrNoRows {
		// 一意制約との競合。既存の行を返す。
		return r.findDateless(ctx, project.CompanyID, project.NormalizedName)
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return &created, nil
}

// CreateAlias はプロジェクトにエイリアスを追加しIDを採番して返す。
// (project_id, normalized_name) の一意制約と競合した場合は既存の行を返す。
func (r *PostgresProjectRepo) CreateAlias(ctx context.Context, alias *model.Alias) (*model.Alias, error) {
	created := *alias
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO aliases (project_id, name, normalized_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING
		 RETURNING id, created_at`,
		alias.ProjectID, alias.Name, alias.NormalizedName,
	).Scan(&created.ID, &created.CreatedAt)

	if err == sql.ErrNoRows {
		// 一意制約との競合。既存の行を返す。
		return r.findAlias(ctx, alias.ProjectID, alias.NormalizedName)
	}
	if err != nil {
		return nil, fmt.Errorf("エイリアスの作成に失敗しました: %w", err)
	}
	return &created, nil
}

// findAlias はエイリアスを正規化名で取得する。
func (r *PostgresProjectRepo) findAlias(ctx context.Context, projectID int64, normalizedName string) (*model.Alias, error) {
	alias := &model.Alias{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, normalized_name, created_at
		 FROM aliases
		 WHERE project_id = $1 AND normalized_name = $2`,
		projectID, normalizedName,
	).Scan(&alias.ID, &alias.ProjectID, &alias.Name, &alias.NormalizedName, &alias.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("既存エイリアスの取得に失敗しました: %w", err)
	}
	return alias, nil
}

// findDateless は日付なしプロジェクトを正規化名で取得する。
func (r *PostgresProjectRepo) findDateless(ctx context.Context, companyID int64, normalizedName string) (*model.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, company_id, name, normalized_name, start_date, end_date,
		        category_id, created_at, updated_at
		 FROM projects
		 WHERE company_id = $1 AND normalized_name = $2 AND start_date IS NULL
		 ORDER BY id ASC LIMIT 1`,
		companyID, normalizedName,
	)
	project, err := scanProject(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("既存プロジェクトの取得に失敗しました: %w", err)
	}
	return project, nil
}

// nullTimePtr は*time.TimeをNULL許容のsql.NullTimeに変換する。
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullInt64Ptr は*int64をNULL許容のsql.NullInt64に変換する。
func nullInt64Ptr(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
