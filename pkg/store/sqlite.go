package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/muthuraman/pawnbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	log.Println("Database connection established and schema initialized.")
	return s, nil
}

// initSchema creates the database tables if they don't already exist.
// We use TEXT for decimal fields in SQLite to ensure no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		customer_key TEXT NOT NULL,
		item_description TEXT NOT NULL DEFAULT '',
		principal TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		monthly_rate TEXT NOT NULL,
		validity_months INTEGER NOT NULL,
		interest_prepaid INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		end_date DATETIME NOT NULL,
		method INTEGER NOT NULL,
		duration_label TEXT NOT NULL,
		rate_label TEXT NOT NULL DEFAULT '',
		gross_interest TEXT NOT NULL,
		interest_reduction TEXT NOT NULL,
		additional_reduction TEXT NOT NULL,
		total_payable TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateLoan inserts a new loan into the database.
func (s *SQLiteStore) CreateLoan(loan *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (id, customer_key, item_description, principal, start_date, monthly_rate, validity_months, interest_prepaid, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.CustomerKey, loan.ItemDescription, loan.Principal, loan.StartDate, loan.MonthlyRate, loan.ValidityMonths, loan.InterestPrepaid, loan.Status, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(
		`SELECT id, customer_key, item_description, principal, start_date, monthly_rate, validity_months, interest_prepaid, status, created_at, updated_at
		FROM loans WHERE id = ?`, id.String())

	loan, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// GetAllLoans retrieves all loans.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(
		`SELECT id, customer_key, item_description, principal, start_date, monthly_rate, validity_months, interest_prepaid, status, created_at, updated_at
		FROM loans ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(r rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var idStr string
	var start, created, updated time.Time
	if err := r.Scan(&idStr, &loan.CustomerKey, &loan.ItemDescription, &loan.Principal, &start, &loan.MonthlyRate, &loan.ValidityMonths, &loan.InterestPrepaid, &loan.Status, &created, &updated); err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(idStr)
	loan.StartDate = start
	loan.CreatedAt = created
	loan.UpdatedAt = updated
	return &loan, nil
}

// UpdateLoanStatus updates only the status column of a loan.
func (s *SQLiteStore) UpdateLoanStatus(id uuid.UUID, status models.LoanStatus) error {
	result, err := s.db.Exec(
		`UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// CreateCalculation inserts a settlement calculation record.
func (s *SQLiteStore) CreateCalculation(record *models.CalculationRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO calculations (id, loan_id, end_date, method, duration_label, rate_label, gross_interest, interest_reduction, additional_reduction, total_payable, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(), record.LoanID.String(), record.EndDate, record.Method, record.DurationLabel, record.RateLabel, record.GrossInterest, record.InterestReduction, record.AdditionalReduction, record.TotalPayable, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create calculation record: %w", err)
	}
	return nil
}

// GetCalculationsForLoan retrieves all calculation records for a loan,
// oldest first.
func (s *SQLiteStore) GetCalculationsForLoan(loanID uuid.UUID) ([]*models.CalculationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, loan_id, end_date, method, duration_label, rate_label, gross_interest, interest_reduction, additional_reduction, total_payable, created_at
		FROM calculations WHERE loan_id = ? ORDER BY created_at ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get calculations for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var records []*models.CalculationRecord
	for rows.Next() {
		var rec models.CalculationRecord
		var idStr, loanIDStr string
		var end, created time.Time
		if err := rows.Scan(&idStr, &loanIDStr, &end, &rec.Method, &rec.DurationLabel, &rec.RateLabel, &rec.GrossInterest, &rec.InterestReduction, &rec.AdditionalReduction, &rec.TotalPayable, &created); err != nil {
			return nil, fmt.Errorf("failed to scan calculation row: %w", err)
		}
		rec.ID = uuid.MustParse(idStr)
		rec.LoanID = uuid.MustParse(loanIDStr)
		rec.EndDate = end
		rec.CreatedAt = created
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan calculations: %w", err)
	}
	return records, nil
}

// SettleLoan writes the calculation record and closes the loan in a single
// transaction, so a failure can never leave a record behind on an open loan.
func (s *SQLiteStore) SettleLoan(record *models.CalculationRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO calculations (id, loan_id, end_date, method, duration_label, rate_label, gross_interest, interest_reduction, additional_reduction, total_payable, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.String(), record.LoanID.String(), record.EndDate, record.Method, record.DurationLabel, record.RateLabel, record.GrossInterest, record.InterestReduction, record.AdditionalReduction, record.TotalPayable, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create calculation record: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE loans SET status = ?, updated_at = ? WHERE id = ?`,
		models.StatusClosed, time.Now(), record.LoanID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrLoanNotFound
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
