package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/iwvelando/setaside/pkg/constants"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQL stores requests and outcomes in sqlite or postgres. Amounts are kept as
// decimal text so nothing is lost to float conversion.
type SQL struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// NewSQL opens dsn with driver, applies migrations and returns the store.
func NewSQL(logger *zap.Logger, driver, dsn string) (*SQL, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch driver {
	case constants.DriverSQLite:
		if dsn == "" {
			dsn = constants.DefaultSQLitePath
		}
		// Migrations run on their own connection and would not see an
		// in-memory database.
		if isMemoryDSN(dsn) {
			return nil, fmt.Errorf("in-memory sqlite dsn %q is not supported, use the memory driver", dsn)
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	case constants.DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == constants.DriverSQLite {
		// sqlite allows one writer; serialize through a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("database ready",
		zap.String("op", "store.NewSQL"),
		zap.String("driver", driver),
	)

	return &SQL{db: db, driver: driver, logger: logger}, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQL) rebind(query string) string {
	if s.driver != constants.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timeLayout is fixed width so created_at text sorts in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (s *SQL) SaveRequest(ctx context.Context, req setaside.Request) error {
	query := s.rebind(`INSERT INTO set_aside_requests
		(id, loan_id, core_customer_id, set_aside_type, disaster_code, approval_date,
		 installment_date, set_aside_amount, payment_after_installment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		req.ID, req.LoanID, req.CoreCustomerID, req.SetAsideType, req.DisasterCode, req.ApprovalDate,
		req.InstallmentDate, req.SetAsideAmount.String(), req.PaymentAfterInstallment.String(), formatTime(req.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

const requestColumns = `id, loan_id, core_customer_id, set_aside_type, disaster_code, approval_date,
	installment_date, set_aside_amount, payment_after_installment, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (setaside.Request, error) {
	var req setaside.Request
	var created string
	err := row.Scan(&req.ID, &req.LoanID, &req.CoreCustomerID, &req.SetAsideType, &req.DisasterCode,
		&req.ApprovalDate, &req.InstallmentDate, &req.SetAsideAmount, &req.PaymentAfterInstallment, &created)
	if err != nil {
		return setaside.Request{}, err
	}
	if req.CreatedAt, err = parseTime(created); err != nil {
		return setaside.Request{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return req, nil
}

func (s *SQL) GetRequest(ctx context.Context, id string) (setaside.Request, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+requestColumns+` FROM set_aside_requests WHERE id = ?`), id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return setaside.Request{}, setaside.ErrNotFound
	}
	if err != nil {
		return setaside.Request{}, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

func (s *SQL) ListRequests(ctx context.Context, loanID int64) ([]setaside.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+requestColumns+` FROM set_aside_requests WHERE loan_id = ? ORDER BY created_at, id`), loanID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []setaside.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *SQL) SaveOutcome(ctx context.Context, out setaside.Outcome) error {
	if _, err := s.GetRequest(ctx, out.RequestID); err != nil {
		return err
	}
	query := s.rebind(`INSERT INTO set_aside_outcomes
		(request_id, loan_id, non_cap_int_capacity, dfr_non_cap_int_capacity, dfr_int_capacity, accrued_int_capacity,
		 non_cap_int_amount, dfr_non_cap_int_amount, dfr_int_amount, int_amount, principal_amount,
		 confirmation_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	a := out.Allocation
	_, err := s.db.ExecContext(ctx, query,
		out.RequestID, out.LoanID,
		out.Accrual.NonCapitalizedInterest.String(),
		out.Accrual.DeferredNonCapitalizedInterest.String(),
		out.Accrual.DeferredInterest.String(),
		out.Accrual.AccruedInterest.String(),
		a.NonCapitalizedInterestAmount.String(),
		a.DeferredNonCapitalizedInterestAmount.String(),
		a.DeferredInterestAmount.String(),
		a.InterestAmount.String(),
		a.PrincipalAmount.String(),
		out.ConfirmationNumber, formatTime(out.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (s *SQL) GetOutcome(ctx context.Context, requestID string) (setaside.Outcome, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT request_id, loan_id,
		non_cap_int_capacity, dfr_non_cap_int_capacity, dfr_int_capacity, accrued_int_capacity,
		non_cap_int_amount, dfr_non_cap_int_amount, dfr_int_amount, int_amount, principal_amount,
		confirmation_number, created_at
		FROM set_aside_outcomes WHERE request_id = ?`), requestID)

	var out setaside.Outcome
	var created string
	a := &out.Allocation
	err := row.Scan(&out.RequestID, &out.LoanID,
		&out.Accrual.NonCapitalizedInterest, &out.Accrual.DeferredNonCapitalizedInterest,
		&out.Accrual.DeferredInterest, &out.Accrual.AccruedInterest,
		&a.NonCapitalizedInterestAmount, &a.DeferredNonCapitalizedInterestAmount,
		&a.DeferredInterestAmount, &a.InterestAmount, &a.PrincipalAmount,
		&out.ConfirmationNumber, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return setaside.Outcome{}, setaside.ErrNotFound
	}
	if err != nil {
		return setaside.Outcome{}, fmt.Errorf("get outcome: %w", err)
	}
	if out.CreatedAt, err = parseTime(created); err != nil {
		return setaside.Outcome{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return out, nil
}

func (s *SQL) DeleteRequest(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM set_aside_outcomes WHERE request_id = ?`), id); err != nil {
		return fmt.Errorf("delete outcome: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM set_aside_requests WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return setaside.ErrNotFound
	}
	return tx.Commit()
}

func (s *SQL) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
