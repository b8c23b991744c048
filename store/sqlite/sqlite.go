/*
Package sqlite provides the SQLite-backed persistence collaborator.

PURPOSE:
  Stores everything the calculation engine consumes (employees, salary
  assignments, structures, components, policies, GOSI configurations,
  loans, adjustments, retroactive records) and everything it emits
  (payslips). The engine itself never touches this package; the api layer
  assembles an engine.Input from it and hands the Result back.

KEY TABLES:
  employees            Identity and organizational placement
  salary_assignments   Active contracted salary per employee
  structure_lines      Salary structure components
  components           Component catalog with statutory flags
  policies             Policy documents (config_json, parsed on read)
  gosi_configs         Social insurance rate tables
  loans                Outstanding advances with running balances
  disciplinary         Penalty/credit records
  retro_pay            Pending retroactive records (settled flag)
  manual_adjustments   Approved reviewer adjustments
  company_settings     Calculation settings document per company
  payslips             Persisted calculation results (result_json)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - api/handlers.go: Assembles engine inputs from this store
  - engine/types.go: Domain records these rows map to
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/engine"
	"github.com/warp/payroll-engine/money"
	"github.com/warp/payroll-engine/policy"
)

const dateLayout = "2006-01-02"

// Store implements the persistence collaborator using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		branch_id TEXT,
		department_id TEXT,
		job_title_id TEXT,
		hire_date TEXT NOT NULL,
		termination_date TEXT,
		gosi_eligible BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_company
		ON employees(company_id);

	CREATE TABLE IF NOT EXISTS salary_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		total_salary TEXT NOT NULL,
		structure_id TEXT,
		active BOOLEAN DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	-- One active assignment per employee at any instant.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_active
		ON salary_assignments(employee_id) WHERE active;

	CREATE TABLE IF NOT EXISTS structure_lines (
		id TEXT PRIMARY KEY,
		structure_id TEXT NOT NULL,
		component_code TEXT NOT NULL,
		source TEXT NOT NULL,
		amount TEXT,
		percent TEXT,
		formula TEXT,
		position INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_structure_lines_structure
		ON structure_lines(structure_id, position);

	CREATE TABLE IF NOT EXISTS components (
		code TEXT NOT NULL,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		nature TEXT NOT NULL,
		gosi_eligible BOOLEAN DEFAULT FALSE,
		taxable BOOLEAN DEFAULT FALSE,
		wps_included BOOLEAN DEFAULT TRUE,
		PRIMARY KEY (company_id, code)
	);

	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		code TEXT NOT NULL,
		type TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policies_company_type
		ON policies(company_id, type);

	CREATE TABLE IF NOT EXISTS gosi_configs (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_rate TEXT NOT NULL,
		saned_rate TEXT NOT NULL,
		employer_rate TEXT NOT NULL,
		hazard_rate TEXT NOT NULL,
		min_base TEXT NOT NULL,
		max_cap TEXT NOT NULL,
		nationals_only BOOLEAN DEFAULT TRUE,
		active BOOLEAN DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_gosi_company_active
		ON gosi_configs(company_id, active);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		description TEXT,
		monthly_deduction TEXT NOT NULL,
		balance TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_employee
		ON loans(employee_id);

	CREATE TABLE IF NOT EXISTS disciplinary (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		days TEXT,
		amount TEXT,
		effective_date TEXT NOT NULL,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_disciplinary_employee_date
		ON disciplinary(employee_id, effective_date);

	CREATE TABLE IF NOT EXISTS retro_pay (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		sign TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		description TEXT,
		settled BOOLEAN DEFAULT FALSE,
		settled_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_retro_employee_pending
		ON retro_pay(employee_id, settled, effective_date);

	CREATE TABLE IF NOT EXISTS manual_adjustments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		kind TEXT NOT NULL,
		component_code TEXT,
		amount TEXT,
		description TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_manual_employee_period
		ON manual_adjustments(employee_id, period_start);

	CREATE TABLE IF NOT EXISTS company_settings (
		company_id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		gross TEXT NOT NULL,
		deductions TEXT NOT NULL,
		net TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, period_start, period_end)
	);

	CREATE INDEX IF NOT EXISTS idx_payslips_employee
		ON payslips(employee_id, period_start DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employee is the persisted employee row.
type Employee struct {
	ID              string
	CompanyID       string
	Name            string
	BranchID        string
	DepartmentID    string
	JobTitleID      string
	HireDate        time.Time
	TerminationDate *time.Time
	GosiEligible    bool
	CreatedAt       time.Time
}

// ToDomain converts the row into the engine's employee record.
func (e Employee) ToDomain() *engine.Employee {
	emp := &engine.Employee{
		ID:           e.ID,
		Name:         e.Name,
		BranchID:     e.BranchID,
		DepartmentID: e.DepartmentID,
		JobTitleID:   e.JobTitleID,
		HireDate:     calendar.FromTime(e.HireDate),
		GosiEligible: e.GosiEligible,
	}
	if e.TerminationDate != nil {
		d := calendar.FromTime(*e.TerminationDate)
		emp.TerminationDate = &d
	}
	return emp
}

func (s *Store) SaveEmployee(ctx context.Context, e Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var term *string
	if e.TerminationDate != nil {
		t := e.TerminationDate.Format(dateLayout)
		term = &t
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees
		(id, company_id, name, branch_id, department_id, job_title_id,
		 hire_date, termination_date, gosi_eligible, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CompanyID, e.Name, e.BranchID, e.DepartmentID, e.JobTitleID,
		e.HireDate.Format(dateLayout), term, e.GosiEligible,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, branch_id, department_id, job_title_id,
		       hire_date, termination_date, gosi_eligible, created_at
		FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, branch_id, department_id, job_title_id,
		       hire_date, termination_date, gosi_eligible, created_at
		FROM employees WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*Employee, error) {
	var e Employee
	var hire, created string
	var term sql.NullString
	var branch, dept, job sql.NullString
	if err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &branch, &dept, &job,
		&hire, &term, &e.GosiEligible, &created); err != nil {
		return nil, err
	}
	e.BranchID, e.DepartmentID, e.JobTitleID = branch.String, dept.String, job.String
	e.HireDate, _ = time.Parse(dateLayout, hire)
	e.CreatedAt, _ = time.Parse(time.RFC3339, created)
	if term.Valid {
		t, err := time.Parse(dateLayout, term.String)
		if err == nil {
			e.TerminationDate = &t
		}
	}
	return &e, nil
}

// =============================================================================
// SALARY ASSIGNMENTS AND STRUCTURES
// =============================================================================

// Assignment is the persisted salary assignment row.
type Assignment struct {
	ID          string
	EmployeeID  string
	TotalSalary money.Money
	StructureID string
	Active      bool
}

func (a Assignment) ToDomain() *engine.SalaryAssignment {
	return &engine.SalaryAssignment{
		EmployeeID:  a.EmployeeID,
		TotalSalary: a.TotalSalary,
		StructureID: a.StructureID,
	}
}

// SaveAssignment deactivates any previous assignment for the employee and
// stores the new one as active.
func (s *Store) SaveAssignment(ctx context.Context, a Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE salary_assignments SET active = FALSE WHERE employee_id = ?`,
		a.EmployeeID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO salary_assignments
		(id, employee_id, total_salary, structure_id, active, created_at)
		VALUES (?, ?, ?, ?, TRUE, ?)`,
		a.ID, a.EmployeeID, a.TotalSalary.String(), a.StructureID,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetActiveAssignment(ctx context.Context, employeeID string) (*Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, total_salary, structure_id
		FROM salary_assignments WHERE employee_id = ? AND active`, employeeID)

	var a Assignment
	var total string
	var structure sql.NullString
	err := row.Scan(&a.ID, &a.EmployeeID, &total, &structure)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.TotalSalary = money.FromString(total)
	a.StructureID = structure.String
	a.Active = true
	return &a, nil
}

// SaveStructureLines replaces the structure's lines.
func (s *Store) SaveStructureLines(ctx context.Context, structureID string, lines []engine.StructureLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM structure_lines WHERE structure_id = ?`, structureID); err != nil {
		return err
	}
	for i, l := range lines {
		id := fmt.Sprintf("%s:%s", structureID, l.ComponentCode)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO structure_lines
			(id, structure_id, component_code, source, amount, percent, formula, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, structureID, l.ComponentCode, string(l.Source),
			l.Amount.String(), l.Percent.String(), l.Formula, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListStructureLines(ctx context.Context, structureID string) ([]engine.StructureLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT component_code, source, amount, percent, formula
		FROM structure_lines WHERE structure_id = ? ORDER BY position`, structureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.StructureLine
	for rows.Next() {
		var l engine.StructureLine
		var src, amount, percent string
		var formula sql.NullString
		if err := rows.Scan(&l.ComponentCode, &src, &amount, &percent, &formula); err != nil {
			return nil, err
		}
		l.Source = engine.ValueSource(src)
		l.Amount = money.FromString(amount)
		l.Percent, _ = decimal.NewFromString(percent)
		l.Formula = formula.String
		out = append(out, l)
	}
	return out, rows.Err()
}

// =============================================================================
// COMPONENTS
// =============================================================================

func (s *Store) SaveComponent(ctx context.Context, companyID string, c engine.Component) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO components
		(code, company_id, name, nature, gosi_eligible, taxable, wps_included)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Code, companyID, c.Name, string(c.Nature), c.GosiEligible, c.Taxable, c.WpsIncluded)
	return err
}

func (s *Store) ListComponents(ctx context.Context, companyID string) (map[string]engine.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, nature, gosi_eligible, taxable, wps_included
		FROM components WHERE company_id = ?`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]engine.Component)
	for rows.Next() {
		var c engine.Component
		var nature string
		if err := rows.Scan(&c.Code, &c.Name, &nature, &c.GosiEligible,
			&c.Taxable, &c.WpsIncluded); err != nil {
			return nil, err
		}
		c.Nature = policy.Sign(nature)
		out[c.Code] = c
	}
	return out, rows.Err()
}

// =============================================================================
// POLICIES
// =============================================================================

// PolicyRecord is the persisted policy document.
type PolicyRecord struct {
	ID         string
	CompanyID  string
	Code       string
	Type       string
	ConfigJSON string
	CreatedAt  time.Time
}

func (s *Store) SavePolicy(ctx context.Context, r PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (id, company_id, code, type, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code, type = excluded.type,
			config_json = excluded.config_json, updated_at = excluded.updated_at`,
		r.ID, r.CompanyID, r.Code, r.Type, r.ConfigJSON, now, now)
	return err
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, code, type, config_json, created_at
		FROM policies WHERE id = ?`, id)
	var r PolicyRecord
	var created string
	err := row.Scan(&r.ID, &r.CompanyID, &r.Code, &r.Type, &r.ConfigJSON, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &r, nil
}

func (s *Store) ListPolicies(ctx context.Context, companyID string) ([]PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, code, type, config_json, created_at
		FROM policies WHERE company_id = ? ORDER BY created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PolicyRecord
	for rows.Next() {
		var r PolicyRecord
		var created string
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Code, &r.Type, &r.ConfigJSON, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id)
	return err
}

// ParsedPolicies loads and parses every policy for a company, skipping
// documents that no longer parse.
func (s *Store) ParsedPolicies(ctx context.Context, companyID string) ([]policy.Policy, error) {
	records, err := s.ListPolicies(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]policy.Policy, 0, len(records))
	for _, r := range records {
		p, err := policy.ParsePolicy([]byte(r.ConfigJSON))
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// =============================================================================
// GOSI CONFIGURATIONS
// =============================================================================

func (s *Store) SaveGosiConfig(ctx context.Context, id string, cfg engine.GosiConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if cfg.Active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE gosi_configs SET active = FALSE WHERE company_id = ?`,
			cfg.CompanyID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO gosi_configs
		(id, company_id, employee_rate, saned_rate, employer_rate, hazard_rate,
		 min_base, max_cap, nationals_only, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cfg.CompanyID, cfg.EmployeeRate.String(), cfg.SanedRate.String(),
		cfg.EmployerRate.String(), cfg.HazardRate.String(),
		cfg.MinBase.String(), cfg.MaxCap.String(), cfg.NationalsOnly, cfg.Active,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetActiveGosiConfig(ctx context.Context, companyID string) (*engine.GosiConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT company_id, employee_rate, saned_rate, employer_rate, hazard_rate,
		       min_base, max_cap, nationals_only
		FROM gosi_configs WHERE company_id = ? AND active
		ORDER BY created_at DESC LIMIT 1`, companyID)

	var cfg engine.GosiConfig
	var empRate, saned, erRate, hazard, minBase, maxCap string
	err := row.Scan(&cfg.CompanyID, &empRate, &saned, &erRate, &hazard,
		&minBase, &maxCap, &cfg.NationalsOnly)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.EmployeeRate, _ = decimal.NewFromString(empRate)
	cfg.SanedRate, _ = decimal.NewFromString(saned)
	cfg.EmployerRate, _ = decimal.NewFromString(erRate)
	cfg.HazardRate, _ = decimal.NewFromString(hazard)
	cfg.MinBase = money.FromString(minBase)
	cfg.MaxCap = money.FromString(maxCap)
	cfg.Active = true
	return &cfg, nil
}

// =============================================================================
// LOANS
// =============================================================================

func (s *Store) SaveLoan(ctx context.Context, employeeID string, l engine.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO loans
		(id, employee_id, description, monthly_deduction, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, employeeID, l.Description, l.MonthlyDeduction.String(), l.Balance.String(),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) ListActiveLoans(ctx context.Context, employeeID string) ([]engine.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, monthly_deduction, balance
		FROM loans WHERE employee_id = ? AND CAST(balance AS REAL) > 0
		ORDER BY created_at`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Loan
	for rows.Next() {
		var l engine.Loan
		var desc sql.NullString
		var monthly, balance string
		if err := rows.Scan(&l.ID, &desc, &monthly, &balance); err != nil {
			return nil, err
		}
		l.Description = desc.String
		l.MonthlyDeduction = money.FromString(monthly)
		l.Balance = money.FromString(balance)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ApplyLoanInstallment reduces the loan balance after a payroll run.
func (s *Store) ApplyLoanInstallment(ctx context.Context, loanID string, installment money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT balance FROM loans WHERE id = ?`, loanID)
	var balance string
	if err := row.Scan(&balance); err != nil {
		return err
	}
	remaining := money.FromString(balance).Sub(installment).Max(money.Zero())
	_, err := s.db.ExecContext(ctx,
		`UPDATE loans SET balance = ? WHERE id = ?`, remaining.String(), loanID)
	return err
}

// =============================================================================
// DISCIPLINARY, RETRO, MANUAL ADJUSTMENTS
// =============================================================================

func (s *Store) SaveDisciplinary(ctx context.Context, employeeID string, d engine.Disciplinary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO disciplinary
		(id, employee_id, kind, days, amount, effective_date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, employeeID, string(d.Kind), d.Days.String(), d.Amount.String(),
		d.EffectiveDate.String(), d.Description)
	return err
}

func (s *Store) ListDisciplinary(ctx context.Context, employeeID string, p calendar.Period) ([]engine.Disciplinary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, days, amount, effective_date, description
		FROM disciplinary
		WHERE employee_id = ? AND effective_date BETWEEN ? AND ?
		ORDER BY effective_date`, employeeID, p.Start.String(), p.End.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Disciplinary
	for rows.Next() {
		var d engine.Disciplinary
		var kind, days, amount, effective string
		var desc sql.NullString
		if err := rows.Scan(&d.ID, &kind, &days, &amount, &effective, &desc); err != nil {
			return nil, err
		}
		d.Kind = engine.DisciplinaryKind(kind)
		d.Days, _ = decimal.NewFromString(days)
		d.Amount = money.FromString(amount)
		if t, err := time.Parse(dateLayout, effective); err == nil {
			d.EffectiveDate = calendar.FromTime(t)
		}
		d.Description = desc.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) SaveRetro(ctx context.Context, employeeID string, r engine.RetroPay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sign := r.Sign
	if sign == "" {
		sign = policy.SignEarning
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO retro_pay
		(id, employee_id, amount, sign, effective_date, description, settled)
		VALUES (?, ?, ?, ?, ?, ?, FALSE)`,
		r.ID, employeeID, r.Amount.String(), string(sign),
		r.EffectiveDate.String(), r.Description)
	return err
}

// ListPendingRetro returns unsettled records effective on or before the cutoff.
func (s *Store) ListPendingRetro(ctx context.Context, employeeID string, cutoff calendar.Date) ([]engine.RetroPay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, sign, effective_date, description
		FROM retro_pay
		WHERE employee_id = ? AND NOT settled AND effective_date <= ?
		ORDER BY effective_date`, employeeID, cutoff.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.RetroPay
	for rows.Next() {
		var r engine.RetroPay
		var amount, sign, effective string
		var desc sql.NullString
		if err := rows.Scan(&r.ID, &amount, &sign, &effective, &desc); err != nil {
			return nil, err
		}
		r.Amount = money.FromString(amount)
		r.Sign = policy.Sign(sign)
		if t, err := time.Parse(dateLayout, effective); err == nil {
			r.EffectiveDate = calendar.FromTime(t)
		}
		r.Description = desc.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkRetroSettled flags the given records after a persisted payroll run.
func (s *Store) MarkRetroSettled(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE retro_pay SET settled = TRUE, settled_at = ? WHERE id = ?`,
			now, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SaveManualAdjustment(ctx context.Context, employeeID string, periodStart calendar.Date, m engine.ManualAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO manual_adjustments
		(id, employee_id, period_start, kind, component_code, amount, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, employeeID, periodStart.String(), string(m.Kind),
		m.ComponentCode, m.Amount.String(), m.Description)
	return err
}

func (s *Store) ListManualAdjustments(ctx context.Context, employeeID string, periodStart calendar.Date) ([]engine.ManualAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, component_code, amount, description
		FROM manual_adjustments
		WHERE employee_id = ? AND period_start = ?`, employeeID, periodStart.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.ManualAdjustment
	for rows.Next() {
		var m engine.ManualAdjustment
		var kind, amount string
		var code, desc sql.NullString
		if err := rows.Scan(&m.ID, &kind, &code, &amount, &desc); err != nil {
			return nil, err
		}
		m.Kind = engine.AdjustmentKind(kind)
		m.ComponentCode = code.String
		m.Amount = money.FromString(amount)
		m.Description = desc.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// =============================================================================
// COMPANY SETTINGS
// =============================================================================

// SettingsDocument bundles the calculation settings with the company's
// sick-leave pay tiers; stored as one JSON document per company.
type SettingsDocument struct {
	Settings  engine.Settings   `json:"settings"`
	SickTiers []engine.SickTier `json:"sick_tiers,omitempty"`
}

func (s *Store) SaveSettings(ctx context.Context, doc SettingsDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO company_settings (company_id, config_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			config_json = excluded.config_json, updated_at = excluded.updated_at`,
		doc.Settings.CompanyID, string(raw), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) GetSettings(ctx context.Context, companyID string) (*SettingsDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM company_settings WHERE company_id = ?`, companyID)
	var raw string
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc SettingsDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// Payslip is a persisted calculation result.
type Payslip struct {
	ID         string
	EmployeeID string
	Period     calendar.Period
	Gross      money.Money
	Deductions money.Money
	Net        money.Money
	ResultJSON string
	CreatedAt  time.Time
}

func (s *Store) SavePayslip(ctx context.Context, p Payslip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payslips
		(id, employee_id, period_start, period_end, gross, deductions, net,
		 result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, period_start, period_end) DO UPDATE SET
			gross = excluded.gross, deductions = excluded.deductions,
			net = excluded.net, result_json = excluded.result_json`,
		p.ID, p.EmployeeID, p.Period.Start.String(), p.Period.End.String(),
		p.Gross.String(), p.Deductions.String(), p.Net.String(),
		p.ResultJSON, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) ListPayslips(ctx context.Context, employeeID string) ([]Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, period_start, period_end, gross, deductions, net,
		       result_json, created_at
		FROM payslips WHERE employee_id = ? ORDER BY period_start DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// HasPayslip reports whether a payslip already exists for the period.
func (s *Store) HasPayslip(ctx context.Context, employeeID string, p calendar.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payslips
		WHERE employee_id = ? AND period_start = ? AND period_end = ?`,
		employeeID, p.Start.String(), p.End.String()).Scan(&n)
	return n > 0, err
}

// ListCompanyIDs returns every company that has at least one employee.
func (s *Store) ListCompanyIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT company_id FROM employees ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanPayslip(row rowScanner) (*Payslip, error) {
	var p Payslip
	var start, end, gross, ded, net, created string
	if err := row.Scan(&p.ID, &p.EmployeeID, &start, &end, &gross, &ded, &net,
		&p.ResultJSON, &created); err != nil {
		return nil, err
	}
	if t, err := time.Parse(dateLayout, start); err == nil {
		p.Period.Start = calendar.FromTime(t)
	}
	if t, err := time.Parse(dateLayout, end); err == nil {
		p.Period.End = calendar.FromTime(t)
	}
	p.Gross = money.FromString(gross)
	p.Deductions = money.FromString(ded)
	p.Net = money.FromString(net)
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

// =============================================================================
// RESET (dev/demo only)
// =============================================================================

// Reset wipes every table. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"employees", "salary_assignments", "structure_lines", "components",
		"policies", "gosi_configs", "loans", "disciplinary", "retro_pay",
		"manual_adjustments", "company_settings", "payslips",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return err
		}
	}
	return nil
}
