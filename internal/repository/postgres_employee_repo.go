package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/workman/internal/model"
)

// PostgresEmployeeRepo はPostgreSQLを使用した従業員リポジトリ。
type PostgresEmployeeRepo struct {
	db *sql.DB
}

// NewPostgresEmployeeRepo はPostgresEmployeeRepoを生成する。
func NewPostgresEmployeeRepo(db *sql.DB) *PostgresEmployeeRepo {
	return &PostgresEmployeeRepo{db: db}
}

const employeeColumns = `id, company_id, name, calendar_url,
	        default_day_working_hours, min_working_hours_for_full_day, is_paid_hourly,
	        works_day_1, works_day_2, works_day_3, works_day_4,
	        works_day_5, works_day_6, works_day_7,
	        start_tracking_from, end_tracking_on, disabled, created_at, updated_at`

// scanEmployee は1行を従業員に読み取る。
func scanEmployee(scan func(dest ...any) error) (*model.Employee, error) {
	employee := &model.Employee{}
	var calendarURL sql.NullString
	var endTrackingOn sql.NullTime

	err := scan(
		&employee.ID, &employee.CompanyID, &employee.Name, &calendarURL,
		&employee.DefaultDayWorkingHours, &employee.MinWorkingHoursForFullDay, &employee.IsPaidHourly,
		&employee.WorksDay1, &employee.WorksDay2, &employee.WorksDay3, &employee.WorksDay4,
		&employee.WorksDay5, &employee.WorksDay6, &employee.WorksDay7,
		&employee.StartTrackingFrom, &endTrackingOn, &employee.Disabled,
		&employee.CreatedAt, &employee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if calendarURL.Valid {
		employee.CalendarURL = calendarURL.String
	}
	if endTrackingOn.Valid {
		t := endTrackingOn.Time
		employee.EndTrackingOn = &t
	}
	return employee, nil
}

// FindByID は指定IDの従業員を取得する。見つからない場合はnilを返す。
func (r *PostgresEmployeeRepo) FindByID(ctx context.Context, id int64) (*model.Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

	employee, err := scanEmployee(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("従業員の取得に失敗しました: %w", err)
	}
	return employee, nil
}

// ListActiveByCompany は企業の有効な従業員を名前の昇順で返す。
func (r *PostgresEmployeeRepo) ListActiveByCompany(ctx context.Context, companyID int64) ([]*model.Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+employeeColumns+`
		 FROM employees
		 WHERE company_id = $1 AND disabled = false
		 ORDER BY name ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("従業員一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

// ListActive は全企業の有効な従業員を返す。
func (r *PostgresEmployeeRepo) ListActive(ctx context.Context) ([]*model.Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+employeeColumns+`
		 FROM employees
		 WHERE disabled = false
		 ORDER BY company_id ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("有効な従業員の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func collectEmployees(rows *sql.Rows) ([]*model.Employee, error) {
	var employees []*model.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("従業員一覧の読み取りに失敗しました: %w", err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("従業員一覧の走査に失敗しました: %w", err)
	}
	return employees, nil
}

// compile-time interface check
var _ EmployeeRepository = (*PostgresEmployeeRepo)(nil)
