package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/repository"
)

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

const loanColumns = `id, user_id, amount, installment_count, monthly_payment, full_name, tax_id, email, phone,
	birth_date, profession, monthly_income, monthly_expenses, owns_property, owns_vehicle, agreed_to_terms,
	status, submitted_at`

func scanLoan(row interface{ Scan(...any) error }) (*entity.LoanApplication, error) {
	a := &entity.LoanApplication{}
	var status string
	if err := row.Scan(&a.ID, &a.UserID, &a.Amount, &a.InstallmentCount, &a.MonthlyPayment, &a.FullName,
		&a.TaxID, &a.Email, &a.Phone, &a.BirthDate, &a.Profession, &a.MonthlyIncome, &a.MonthlyExpenses,
		&a.OwnsProperty, &a.OwnsVehicle, &a.AgreedToTerms, &status, &a.SubmittedAt); err != nil {
		return nil, err
	}
	a.Status = entity.LoanStatus(status)
	return a, nil
}

func (r *LoanRepository) query(ctx context.Context, q string, args ...any) ([]entity.LoanApplication, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]entity.LoanApplication, 0)
	for rows.Next() {
		a, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// List returns every application in insertion order.
func (r *LoanRepository) List(ctx context.Context) ([]entity.LoanApplication, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM loan_applications ORDER BY id ASC`)
}

// Append inserts app. A colliding id is moved past the current maximum so
// ids keep growing with insertion order.
func (r *LoanRepository) Append(ctx context.Context, app *entity.LoanApplication) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE loan_applications IN EXCLUSIVE MODE`); err != nil {
		return err
	}
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT max(id) FROM loan_applications`).Scan(&last); err != nil {
		return err
	}
	if last.Valid && app.ID <= last.Int64 {
		app.ID = last.Int64 + 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO loan_applications (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, app.ID, app.UserID, app.Amount, app.InstallmentCount, app.MonthlyPayment, app.FullName, app.TaxID,
		app.Email, app.Phone, app.BirthDate, app.Profession, app.MonthlyIncome, app.MonthlyExpenses,
		app.OwnsProperty, app.OwnsVehicle, app.AgreedToTerms, string(app.Status), app.SubmittedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *LoanRepository) GetByID(ctx context.Context, id int64) (*entity.LoanApplication, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loan_applications WHERE id = $1`, id)
	a, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return a, err
}

// ListByUser returns the user's applications, newest first.
func (r *LoanRepository) ListByUser(ctx context.Context, userID string) ([]entity.LoanApplication, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM loan_applications WHERE user_id = $1 ORDER BY id DESC`, userID)
}

func (r *LoanRepository) AddReview(ctx context.Context, rv *entity.LoanReview) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loan_reviews (id, application_id, analyst_id, decision, justification, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rv.ID, rv.ApplicationID, rv.AnalystID, string(rv.Decision), rv.Justification, rv.CreatedAt)
	return err
}

func (r *LoanRepository) ListReviews(ctx context.Context, applicationID int64) ([]entity.LoanReview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, application_id, analyst_id, decision, justification, created_at
		FROM loan_reviews WHERE application_id = $1 ORDER BY created_at ASC
	`, applicationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]entity.LoanReview, 0)
	for rows.Next() {
		var rv entity.LoanReview
		var decision string
		if err := rows.Scan(&rv.ID, &rv.ApplicationID, &rv.AnalystID, &decision, &rv.Justification, &rv.CreatedAt); err != nil {
			return nil, err
		}
		rv.Decision = entity.ReviewDecision(decision)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *LoanRepository) AddDocument(ctx context.Context, d *entity.LoanDocument) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loan_documents (id, application_id, filename, content_type, url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.ApplicationID, d.Filename, d.ContentType, d.URL, d.UploadedAt)
	return err
}

func (r *LoanRepository) ListDocuments(ctx context.Context, applicationID int64) ([]entity.LoanDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, application_id, filename, content_type, url, uploaded_at
		FROM loan_documents WHERE application_id = $1 ORDER BY uploaded_at ASC
	`, applicationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]entity.LoanDocument, 0)
	for rows.Next() {
		var d entity.LoanDocument
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.Filename, &d.ContentType, &d.URL, &d.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ repository.LoanRepository = (*LoanRepository)(nil)
